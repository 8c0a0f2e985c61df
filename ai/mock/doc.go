// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.TextEmbedder,
// ai.ImageEmbedder and ai.Provider for use in unit tests. The mocks allow
// tests to run without model files or a running embedding server.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewMockProvider()
//	vec, err := provider.TextEmbedder().EmbedDocument(ctx, "test")
//
//	// Custom behavior injection
//	text := mock.NewMockTextEmbedder()
//	text.EmbedQueryFunc = func(ctx context.Context, q string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := text.CallCount()
//
// # Default Behavior
//
//   - MockTextEmbedder: deterministic unit vectors derived from the prefixed text
//   - MockImageEmbedder: deterministic unit vectors derived from the image bytes
//   - MockProvider: aggregates both, with an optional nil image model
package mock
