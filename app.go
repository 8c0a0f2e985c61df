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


// Package shadowpaste wires clipboard capture, storage, embeddings and
// search into a single application handle.
package shadowpaste

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/poiesic/shadowpaste/ai"
	"github.com/poiesic/shadowpaste/ai/onnx"
	"github.com/poiesic/shadowpaste/ai/openai"
	"github.com/poiesic/shadowpaste/clipboard"
	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/history"
	"github.com/poiesic/shadowpaste/ingestion"
	"github.com/poiesic/shadowpaste/reembed"
	"github.com/poiesic/shadowpaste/search"
	"github.com/poiesic/shadowpaste/storage"
	"github.com/poiesic/shadowpaste/storage/badger"
	"github.com/poiesic/shadowpaste/storage/sqlite"
)

// App owns the storage handle, the embedding models and the in-memory
// history. It is safe for concurrent use.
type App struct {
	config    *Config
	repo      storage.HistoryRepository
	history   *history.Store
	embedder  *ai.Service
	searcher  *search.Searcher
	platform  clipboard.Platform
	onCapture func(*core.Entry)
	logger    *slog.Logger

	mu            sync.Mutex
	captureCancel context.CancelFunc
	captureDone   chan struct{}
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	platform  clipboard.Platform
	loader    ai.Loader
	repo      storage.HistoryRepository
	onCapture func(*core.Entry)
	logger    *slog.Logger
}

// WithPlatform replaces the clipboard platform chosen by the config.
func WithPlatform(p clipboard.Platform) Option {
	return func(o *appOptions) {
		o.platform = p
	}
}

// WithLoader replaces the embedding provider loader chosen by the config.
func WithLoader(l ai.Loader) Option {
	return func(o *appOptions) {
		o.loader = l
	}
}

// WithRepository uses repo instead of opening the configured store. The
// App takes ownership and closes it.
func WithRepository(repo storage.HistoryRepository) Option {
	return func(o *appOptions) {
		o.repo = repo
	}
}

// WithOnCapture registers a callback run after each captured entry is
// stored and added to the history.
func WithOnCapture(fn func(*core.Entry)) Option {
	return func(o *appOptions) {
		o.onCapture = fn
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// Open opens storage and loads the history. Storage failures are returned;
// the embedder is not loaded and capture is not started.
func Open(cfg *Config, opts ...Option) (*App, error) {
	options := &appOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	repo := options.repo
	if repo == nil {
		var err error
		if repo, err = openRepository(cfg.Storage, logger); err != nil {
			return nil, err
		}
	}

	entries, err := repo.LoadAll(context.Background())
	if err != nil {
		repo.Close()
		return nil, err
	}
	hist := history.New(entries)

	loader := options.loader
	if loader == nil {
		loader = NewLoader(cfg.Embedding)
	}
	svcOpts := []ai.ServiceOption{ai.WithCacheSize(cfg.CacheSize), ai.WithLogger(logger)}
	if cfg.PoolSize > 0 {
		svcOpts = append(svcOpts, ai.WithPoolSize(cfg.PoolSize))
	}
	embedder, err := ai.NewService(loader, svcOpts...)
	if err != nil {
		repo.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(hist, embedder, search.WithConfig(cfg.Ranking), search.WithLogger(logger))
	if err != nil {
		embedder.Close()
		repo.Close()
		return nil, err
	}

	logger.Info("history loaded", "entries", hist.Len(), "backend", cfg.Storage.Backend)
	return &App{
		config:    cfg,
		repo:      repo,
		history:   hist,
		embedder:  embedder,
		searcher:  searcher,
		platform:  options.platform,
		onCapture: options.onCapture,
		logger:    logger,
	}, nil
}

func openRepository(cfg StorageConfig, logger *slog.Logger) (storage.HistoryRepository, error) {
	switch cfg.Backend {
	case BackendBadger:
		return badger.Open(cfg.Path, false, logger)
	case BackendSQLite:
		return sqlite.Open(cfg.Path, sqlite.WithLogger(logger))
	}
	return nil, ErrUnknownBackend
}

// NewLoader returns a loader building the provider described by cfg. With
// the openai provider, an ONNX image model is attached when configured.
func NewLoader(cfg ai.Config) ai.Loader {
	return func(ctx context.Context) (ai.Provider, error) {
		c := cfg
		c.Normalize()
		if c.Provider == ai.ProviderONNX {
			return onnx.NewProvider(&c)
		}
		var image ai.ImageEmbedder
		if c.ImageModelPath != "" {
			ie, err := onnx.NewImageEmbedder(&c)
			if err != nil {
				return nil, err
			}
			image = ie
		}
		return openai.NewProvider(&c, image)
	}
}

// Config returns the validated configuration.
func (a *App) Config() *Config {
	return a.config
}

// StartEmbedder begins loading the embedding models in the background.
func (a *App) StartEmbedder(ctx context.Context) {
	a.embedder.Load(ctx)
}

// EmbedderStatus reports model readiness, for a loading indicator.
func (a *App) EmbedderStatus() ai.Status {
	return a.embedder.Status()
}

// WaitEmbedder blocks until the models are ready or failed to load.
func (a *App) WaitEmbedder(ctx context.Context) error {
	return a.embedder.Wait(ctx)
}

// StartCapture starts the clipboard monitor and the ingestion consumer.
// A listener init failure is returned and leaves capture off; the rest of
// the App keeps working.
func (a *App) StartCapture(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.captureCancel != nil {
		return ErrCaptureRunning
	}

	platform := a.platform
	if platform == nil {
		var err error
		if platform, err = newPlatform(a.config.Monitor); err != nil {
			return err
		}
	}
	monitor, err := clipboard.NewMonitor(platform,
		clipboard.WithSettleDelay(a.config.Monitor.SettleDelay),
		clipboard.WithVerifyRetries(a.config.Monitor.VerifyRetries),
		clipboard.WithVerifyBackoff(a.config.Monitor.VerifyBackoff),
		clipboard.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	pipeline, err := ingestion.NewPipeline(a.repo, a.embedder, a.history,
		ingestion.WithLogger(a.logger),
		ingestion.WithOnCapture(a.onCapture),
	)
	if err != nil {
		return err
	}

	captureCtx, cancel := context.WithCancel(ctx)
	captures, err := monitor.Start(captureCtx)
	if err != nil {
		cancel()
		a.logger.Error("clipboard capture unavailable", "err", err)
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := pipeline.Run(captureCtx, captures); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("ingestion stopped", "err", err)
		}
		// The monitor may end on its own (watcher closed); capture is then off
		// and may be started again.
		a.mu.Lock()
		if a.captureDone == done {
			a.captureCancel, a.captureDone = nil, nil
		}
		a.mu.Unlock()
		cancel()
	}()
	a.captureCancel = cancel
	a.captureDone = done
	return nil
}

// StopCapture stops the monitor and waits for the consumer to finish the
// capture it is working on.
func (a *App) StopCapture() {
	a.mu.Lock()
	cancel, done := a.captureCancel, a.captureDone
	a.captureCancel, a.captureDone = nil, nil
	a.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Ingest records content as if it had been captured from the clipboard.
// It bypasses the monitor, so no dedup against the last capture applies.
func (a *App) Ingest(ctx context.Context, content core.Content) (*core.Entry, error) {
	pipeline, err := ingestion.NewPipeline(a.repo, a.embedder, a.history,
		ingestion.WithLogger(a.logger),
		ingestion.WithOnCapture(a.onCapture),
	)
	if err != nil {
		return nil, err
	}
	return pipeline.Capture(ctx, core.Capture{Content: content})
}

func newPlatform(cfg MonitorConfig) (clipboard.Platform, error) {
	switch cfg.Platform {
	case PlatformNative:
		return clipboard.NewNativePlatform(), nil
	case PlatformPoll:
		return clipboard.NewPollingPlatform(cfg.PollInterval), nil
	}
	return nil, ErrUnknownPlatform
}

// History returns the entries, oldest first.
func (a *App) History() []*core.Entry {
	return a.history.Snapshot()
}

// Search ranks the history against a raw query.
func (a *App) Search(ctx context.Context, raw string) []search.Result {
	return a.searcher.Search(ctx, raw)
}

// Searcher exposes the underlying searcher.
func (a *App) Searcher() *search.Searcher {
	return a.searcher
}

// NewSession starts an interactive query session.
func (a *App) NewSession(onUpdate func([]search.Result)) *search.Session {
	return a.searcher.NewSession(onUpdate)
}

// Delete removes an entry from storage and then from the history. An id of
// 0 (an entry whose insert failed) returns core.ErrNotPersisted.
func (a *App) Delete(ctx context.Context, id core.ID) error {
	if id == 0 {
		return core.ErrNotPersisted
	}
	if err := a.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	a.history.Remove(id)
	return nil
}

// DeleteEntry removes e from storage, when it was stored, and then from the
// history. Unlike Delete it also removes an entry whose insert failed.
func (a *App) DeleteEntry(ctx context.Context, e *core.Entry) error {
	if e == nil {
		return nil
	}
	if !e.Persisted() {
		a.history.RemoveEntry(e)
		return nil
	}
	return a.Delete(ctx, e.ID)
}

// NewReembedder creates a reembedder over this App's store and models.
// Each stored vector is also swapped into the in-memory history.
func (a *App) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	if cfg == nil {
		c := a.config.Reembed
		cfg = &c
	}
	r, err := reembed.NewReembedder(a.repo, a.embedder, cfg, progress, a.logger)
	if err != nil {
		return nil, err
	}
	r.OnUpdate(func(id core.ID, vector []float32) {
		a.history.ReplaceEmbedding(id, vector)
	})
	return r, nil
}

// Close stops capture and releases the models and the store.
func (a *App) Close() error {
	a.StopCapture()

	var errs []error
	if err := a.embedder.Close(); err != nil {
		a.logger.Error("error closing embedder", "err", err)
		errs = append(errs, err)
	}
	if err := a.repo.Close(); err != nil {
		a.logger.Error("error closing history store", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
