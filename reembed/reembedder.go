package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/storage"
)

// Config holds configuration for a reembed run.
type Config struct {
	// BatchSize is the number of entries handed to the embedder at once
	BatchSize int `yaml:"batch_size"`

	// ReportInterval is how often to refresh progress (number of entries)
	ReportInterval int `yaml:"report_interval"`

	// MaxRetries is the maximum number of attempts per embedding call
	MaxRetries int `yaml:"max_retries"`

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration `yaml:"retry_delay"`

	// MissingOnly limits the run to entries without a vector
	MissingOnly bool `yaml:"missing_only"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      32,
		ReportInterval: 32,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

// Stats summarizes a completed run.
type Stats struct {
	Total    int
	Embedded int
	Skipped  int
	Elapsed  time.Duration
}

// Reembedder recomputes stored vectors.
type Reembedder struct {
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *EntryIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.HistoryRepository, embedder Embedder, config *Config, progress io.Writer, logger *slog.Logger) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reembed")

	return &Reembedder{
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay, logger),
		iterator:  NewEntryIterator(repo, config.BatchSize, config.MissingOnly),
		logger:    logger,
	}, nil
}

// OnUpdate registers fn to be called after each vector is written to
// storage, so callers holding their own copy of the entries can follow.
func (r *Reembedder) OnUpdate(fn func(id core.ID, vector []float32)) {
	r.processor.onUpdate = fn
}

// Run embeds every pending entry and stores the vectors. It stops at the
// first entry whose embedding or update still fails after retries; vectors
// written before that point are kept.
func (r *Reembedder) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	entries, err := r.iterator.Pending(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load entries: %w", err)
	}
	stats.Total = len(entries)
	if stats.Total == 0 {
		fmt.Fprintf(r.progress, "Nothing to embed (0 entries)\n")
		return stats, nil
	}

	scope := "all"
	if r.config.MissingOnly {
		scope = "missing"
	}
	fmt.Fprintf(r.progress, "Embedding %d entries (%s, batch size: %d)\n",
		stats.Total, scope, r.iterator.batchSize)
	r.logger.Info("reembed started", "entries", stats.Total, "missing_only", r.config.MissingOnly)

	tracker := NewProgressTracker(r.progress, stats.Total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.each(ctx, entries, func(batch []*core.Entry) error {
		res, err := r.processor.Process(ctx, batch)
		stats.Embedded += res.Embedded
		stats.Skipped += res.Skipped
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		tracker.Increment(len(batch), res.Skipped)
		return nil
	})
	stats.Elapsed = tracker.Elapsed()
	if err != nil {
		fmt.Fprintln(r.progress)
		return stats, err
	}

	tracker.Finish()
	rate := 0.0
	if secs := stats.Elapsed.Seconds(); secs > 0 {
		rate = float64(stats.Embedded) / secs
	}
	fmt.Fprintf(r.progress, "Reembedding complete. Embedded %d of %d entries in %v (%.1f entries/sec)\n",
		stats.Embedded, stats.Total, stats.Elapsed.Round(time.Millisecond), rate)
	r.logger.Info("reembed finished", "embedded", stats.Embedded, "skipped", stats.Skipped)

	return stats, nil
}
