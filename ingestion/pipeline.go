package ingestion

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/history"
	"github.com/poiesic/shadowpaste/storage"
)

// ContentEmbedder computes the vector for a piece of clipboard content.
// *ai.Service satisfies it.
type ContentEmbedder interface {
	EmbedContent(ctx context.Context, content core.Content) ([]float32, error)
}

// Pipeline is the single consumer of the capture queue. Nothing else
// inserts new rows.
type Pipeline struct {
	history   *history.Store
	embedProc processor
	storeProc processor
	onCapture func(*core.Entry)
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithOnCapture registers a callback invoked after each entry has been
// appended to the history. It runs on the pipeline goroutine.
func WithOnCapture(fn func(*core.Entry)) Option {
	return func(p *Pipeline) error {
		p.onCapture = fn
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.HistoryRepository,
	embedder ContentEmbedder,
	hist *history.Store,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if hist == nil {
		return nil, ErrHistoryRequired
	}

	p := &Pipeline{
		history: hist,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")
	p.embedProc = newEmbeddingProcessor(embedder, p.logger)
	p.storeProc = &storeProcessor{repository: repository}
	return p, nil
}

// Run processes captures until the channel closes or ctx ends. Captures are
// handled strictly one at a time.
func (p *Pipeline) Run(ctx context.Context, captures <-chan core.Capture) error {
	p.logger.Info("ingestion started")
	defer p.logger.Info("ingestion stopped")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-captures:
			if !ok {
				return nil
			}
			_, _ = p.Capture(ctx, c)
		}
	}
}

// Capture embeds, stores and records a single capture. The returned entry is
// always non-nil and already in the history; the error reports a storage
// failure, in which case the entry has id 0.
func (p *Pipeline) Capture(ctx context.Context, c core.Capture) (*core.Entry, error) {
	entry := core.NewEntry(c)
	if entry.CapturedAt.IsZero() {
		entry.CapturedAt = time.Now()
	}

	_ = p.embedProc.process(ctx, entry)

	storeErr := p.storeProc.process(ctx, entry)
	if storeErr != nil {
		p.logger.Error("error storing clipboard entry", "kind", core.KindOf(entry.Content), "err", storeErr)
	} else {
		p.logger.Debug("stored clipboard entry", "id", entry.ID, "kind", core.KindOf(entry.Content),
			"embedded", entry.HasEmbedding())
	}

	p.history.Append(entry)
	if p.onCapture != nil {
		p.onCapture(entry)
	}
	return entry, storeErr
}
