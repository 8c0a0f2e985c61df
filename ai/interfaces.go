package ai

import "context"

// TextEmbedder generates vector embeddings from text.
// Implementations apply the document and query prefixes the model expects and
// must be safe for concurrent use.
type TextEmbedder interface {
	// EmbedDocument embeds a clipboard text being stored.
	EmbedDocument(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments embeds several texts in one call. The result has one
	// vector per input, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ImageEmbedder generates vector embeddings from encoded images.
// Implementations must be safe for concurrent use.
type ImageEmbedder interface {
	// EmbedImage embeds a PNG (or any format the implementation can decode).
	EmbedImage(ctx context.Context, data []byte) ([]float32, error)
}

// Provider bundles the models used by the embedding service.
type Provider interface {
	// TextEmbedder returns the text model. Never nil.
	TextEmbedder() TextEmbedder

	// ImageEmbedder returns the image model, or nil when images cannot be
	// embedded. Image entries then carry no vector.
	ImageEmbedder() ImageEmbedder

	// Close releases resources held by the provider and its models.
	Close() error
}
