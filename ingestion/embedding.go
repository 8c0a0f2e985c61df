package ingestion

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/shadowpaste/ai"
	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/storage"
)

// embeddingProcessor attaches a vector to an entry. It never fails: an
// unavailable or failing embedder leaves the entry without a vector.
type embeddingProcessor struct {
	embedder ContentEmbedder
	logger   *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

func newEmbeddingProcessor(embedder ContentEmbedder, logger *slog.Logger) *embeddingProcessor {
	return &embeddingProcessor{
		embedder: embedder,
		logger:   logger.With("processor", "embeddings"),
	}
}

func (ep *embeddingProcessor) process(ctx context.Context, entry *core.Entry) error {
	vec, err := ep.embedder.EmbedContent(ctx, entry.Content)
	switch {
	case errors.Is(err, ai.ErrNotReady):
		ep.logger.Debug("embedder not ready, storing without vector", "kind", core.KindOf(entry.Content))
	case errors.Is(err, ai.ErrNoImageEmbedder):
		ep.logger.Debug("no image model, storing without vector")
	case err != nil:
		ep.logger.Warn("error generating embedding", "kind", core.KindOf(entry.Content), "err", err)
	default:
		entry.Embedding = vec
	}
	return nil
}

// storeProcessor inserts an entry and backfills its id.
type storeProcessor struct {
	repository storage.HistoryRepository
}

var _ processor = (*storeProcessor)(nil)

func (sp *storeProcessor) process(ctx context.Context, entry *core.Entry) error {
	id, err := sp.repository.Insert(ctx, entry)
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}
