package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/shadowpaste/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.TextEmbedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	config   *ai.Config
	maxRunes int
	logger   *slog.Logger
}

var _ ai.TextEmbedder = (*Embedder)(nil)

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.TextModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		config:   config,
		maxRunes: defaultMaxRunes,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.TextEmbedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.TextEmbedder, error) {
	return newEmbedder(config)
}

// EmbedDocument embeds clipboard text with the document prefix.
func (e *Embedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embedOne(ctx, e.config.Document(prepareText(text, e.maxRunes)))
}

// EmbedQuery embeds a search query with the query prefix.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embedOne(ctx, e.config.Query(prepareText(text, e.maxRunes)))
}

// EmbedDocuments embeds several clipboard texts in one request.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	inputs := make([]string, len(texts))
	for i, text := range texts {
		inputs[i] = e.config.Document(prepareText(text, e.maxRunes))
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, inputs)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return vectors, nil
}

func (e *Embedder) embedOne(ctx context.Context, input string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(input))

	// Prefixes are applied here, so both paths go through EmbedDocuments.
	vectors, err := e.embedder.EmbedDocuments(ctx, []string{input})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return nil, ai.ErrEmptyResult
	}
	return vectors[0], nil
}
