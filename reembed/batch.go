package reembed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/shadowpaste/ai"
	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/storage"
)

// Embedder is the part of the embedding service a reembed needs.
// *ai.Service satisfies it.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedContent(ctx context.Context, content core.Content) ([]float32, error)
}

// BatchResult counts what happened to one batch.
type BatchResult struct {
	Embedded int
	Skipped  int
}

// BatchProcessor embeds a batch of entries and writes the vectors back.
type BatchProcessor struct {
	repo           storage.HistoryRepository
	embedder       Embedder
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
	onUpdate       func(core.ID, []float32)
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts per embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.HistoryRepository, embedder Embedder, maxRetries int, retryBaseDelay time.Duration, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         logger,
	}
}

// Process embeds all text entries of the batch in one call and each image
// separately. Images that cannot be embedded (no image model, undecodable
// payload) are skipped rather than failing the run.
func (bp *BatchProcessor) Process(ctx context.Context, entries []*core.Entry) (BatchResult, error) {
	var res BatchResult
	var texts []string
	var textEntries, imageEntries []*core.Entry
	for _, e := range entries {
		switch c := e.Content.(type) {
		case core.Text:
			texts = append(texts, string(c))
			textEntries = append(textEntries, e)
		case core.Image:
			imageEntries = append(imageEntries, e)
		default:
			res.Skipped++
		}
	}

	if len(texts) > 0 {
		var vectors [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var err error
			vectors, err = bp.embedder.EmbedDocuments(ctx, texts)
			return classify(err)
		}, bp.maxRetries, bp.retryBaseDelay)
		if err != nil {
			return res, fmt.Errorf("failed to embed %d texts: %w", len(texts), err)
		}
		if len(vectors) != len(textEntries) {
			return res, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(textEntries), len(vectors))
		}
		for i, e := range textEntries {
			if err := bp.store(ctx, e, vectors[i]); err != nil {
				return res, err
			}
			res.Embedded++
		}
	}

	for _, e := range imageEntries {
		var vector []float32
		err := RetryWithBackoff(ctx, func() error {
			var err error
			vector, err = bp.embedder.EmbedContent(ctx, e.Content)
			return classify(err)
		}, bp.maxRetries, bp.retryBaseDelay)
		switch {
		case errors.Is(err, ai.ErrNoImageEmbedder), errors.Is(err, core.ErrInvalidImage):
			bp.logger.Debug("skipping image entry", "id", e.ID, "err", err)
			res.Skipped++
			continue
		case err != nil:
			return res, fmt.Errorf("failed to embed image entry %d: %w", e.ID, err)
		}
		if err := bp.store(ctx, e, vector); err != nil {
			return res, err
		}
		res.Embedded++
	}

	return res, nil
}

func (bp *BatchProcessor) store(ctx context.Context, e *core.Entry, vector []float32) error {
	vector = ai.NormalizeVector(vector)
	if err := bp.repo.UpdateEmbedding(ctx, e.ID, vector); err != nil {
		return fmt.Errorf("failed to update entry %d: %w", e.ID, err)
	}
	e.Embedding = vector
	if bp.onUpdate != nil {
		bp.onUpdate(e.ID, vector)
	}
	return nil
}

// classify marks errors that a retry cannot fix.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ai.ErrNotReady),
		errors.Is(err, ai.ErrNoImageEmbedder),
		errors.Is(err, core.ErrInvalidImage):
		return Permanent(err)
	}
	return err
}
