// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/shadowpaste/core"
)

// State is the lifecycle of the embedding models.
type State int

const (
	// StateIdle means Load has not been called.
	StateIdle State = iota
	// StateLoading means the models are being initialized.
	StateLoading
	// StateReady means embedding requests are served.
	StateReady
	// StateFailed means loading failed. It is permanent for the process.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is a point-in-time view of the service state.
// Message carries the failure reason when State is StateFailed.
type Status struct {
	State   State
	Message string
}

// Loader builds the provider. It may take a long time (model downloads,
// session creation) and runs off the caller's goroutine.
type Loader func(ctx context.Context) (Provider, error)

// Service owns the embedding models and serializes access to them.
// Requests are executed on a worker pool; each model call holds the model
// lock for exactly that call.
type Service struct {
	loader Loader
	pool   *ants.Pool
	cache  *vectorCache
	logger *slog.Logger

	loadOnce sync.Once
	done     chan struct{}

	stateMu sync.RWMutex
	status  Status

	modelMu  sync.Mutex
	provider Provider
}

// ServiceOption configures a Service.
type ServiceOption func(*Service) error

// WithPoolSize sets the worker pool size for embedding requests.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) ServiceOption {
	return func(s *Service) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

// WithCacheSize sets how many vectors are memoised. 0 disables the cache.
func WithCacheSize(size int) ServiceOption {
	return func(s *Service) error {
		cache, err := newVectorCache(size)
		if err != nil {
			return err
		}
		s.cache = cache
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates an embedding service. Models are not loaded until Load.
func NewService(loader Loader, opts ...ServiceOption) (*Service, error) {
	if loader == nil {
		return nil, ErrLoaderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	cache, err := newVectorCache(512)
	if err != nil {
		pool.Release()
		return nil, err
	}

	s := &Service{
		loader: loader,
		pool:   pool,
		cache:  cache,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.pool.Release()
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "embedder")
	return s, nil
}

// Load starts loading the models in the background. Only the first call has
// an effect.
func (s *Service) Load(ctx context.Context) {
	s.loadOnce.Do(func() {
		s.setStatus(Status{State: StateLoading})
		s.logger.Info("loading embedding models")

		err := s.pool.Submit(func() {
			provider, err := s.loader(ctx)
			if err == nil && provider == nil {
				err = errors.New("loader returned no provider")
			}
			s.finishLoad(provider, err)
		})
		if err != nil {
			s.finishLoad(nil, err)
		}
	})
}

func (s *Service) finishLoad(provider Provider, err error) {
	if err != nil {
		s.logger.Error("embedding models failed to load", "err", err)
		s.setStatus(Status{State: StateFailed, Message: err.Error()})
	} else {
		s.modelMu.Lock()
		s.provider = provider
		s.modelMu.Unlock()
		s.logger.Info("embedding models ready", "images", provider.ImageEmbedder() != nil)
		s.setStatus(Status{State: StateReady})
	}
	close(s.done)
}

func (s *Service) setStatus(st Status) {
	s.stateMu.Lock()
	s.status = st
	s.stateMu.Unlock()
}

// Status reports the current lifecycle state.
func (s *Service) Status() Status {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.status
}

// Ready reports whether embedding requests will be served.
func (s *Service) Ready() bool {
	return s.Status().State == StateReady
}

// Wait blocks until loading finishes or ctx ends. It returns an error
// wrapping ErrLoadFailed if the models could not be loaded.
func (s *Service) Wait(ctx context.Context) error {
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if st := s.Status(); st.State == StateFailed {
		return fmt.Errorf("%w: %s", ErrLoadFailed, st.Message)
	}
	return nil
}

// EmbedContent embeds clipboard content. Empty content yields a nil vector
// and no error.
func (s *Service) EmbedContent(ctx context.Context, content core.Content) ([]float32, error) {
	switch c := content.(type) {
	case core.Text:
		return s.embedCached(ctx, cacheKey(purposeDocument, string(c)), func(p Provider) ([]float32, error) {
			return p.TextEmbedder().EmbedDocument(ctx, string(c))
		})
	case core.Image:
		return s.embedImage(ctx, c)
	default:
		return nil, nil
	}
}

func (s *Service) embedImage(ctx context.Context, img core.Image) ([]float32, error) {
	data, err := core.DecodeDataURI(img)
	if err != nil {
		return nil, err
	}
	return s.embedCached(ctx, cacheKey(purposeImage, string(img)), func(p Provider) ([]float32, error) {
		ie := p.ImageEmbedder()
		if ie == nil {
			return nil, ErrNoImageEmbedder
		}
		return ie.EmbedImage(ctx, data)
	})
}

// EmbedQuery embeds a search query with the query prefix.
func (s *Service) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return s.embedCached(ctx, cacheKey(purposeQuery, query), func(p Provider) ([]float32, error) {
		return p.TextEmbedder().EmbedQuery(ctx, query)
	})
}

// EmbedDocuments embeds a batch of texts in one model call. Results bypass
// the cache.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return dispatch(ctx, s, func(p Provider) ([][]float32, error) {
		out, err := p.TextEmbedder().EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(out) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(out))
		}
		return out, nil
	})
}

func (s *Service) embedCached(ctx context.Context, key uint64, fn func(Provider) ([]float32, error)) ([]float32, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}
	if vec, ok := s.cache.get(key); ok {
		return vec, nil
	}
	vec, err := dispatch(ctx, s, fn)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, ErrEmptyResult
	}
	s.cache.add(key, vec)
	return vec, nil
}

type result[T any] struct {
	value T
	err   error
}

// dispatch runs fn on the worker pool under the model lock and waits for the
// result or ctx.
func dispatch[T any](ctx context.Context, s *Service, fn func(Provider) (T, error)) (T, error) {
	var zero T
	if !s.Ready() {
		return zero, ErrNotReady
	}

	results := make(chan result[T], 1)
	err := s.pool.Submit(func() {
		if err := ctx.Err(); err != nil {
			results <- result[T]{err: err}
			return
		}
		s.modelMu.Lock()
		defer s.modelMu.Unlock()
		if s.provider == nil {
			results <- result[T]{err: ErrNotReady}
			return
		}
		value, err := fn(s.provider)
		results <- result[T]{value: value, err: err}
	})
	if err != nil {
		return zero, err
	}

	select {
	case r := <-results:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close stops the worker pool and releases the models.
func (s *Service) Close() error {
	s.pool.Release()
	s.modelMu.Lock()
	defer s.modelMu.Unlock()
	if s.provider == nil {
		return nil
	}
	err := s.provider.Close()
	s.provider = nil
	return err
}
