package mock

import (
	"context"
	"hash/fnv"
	"sync/atomic"

	"github.com/poiesic/shadowpaste/ai"
)

// Dimensions is the vector length produced by the default mock behavior.
const Dimensions = 64

// MockTextEmbedder is a test double for ai.TextEmbedder.
// It allows custom behavior injection via function fields.
type MockTextEmbedder struct {
	// EmbedDocumentFunc is called by EmbedDocument if set.
	EmbedDocumentFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedDocumentsFunc is called by EmbedDocuments if set.
	EmbedDocumentsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQueryFunc is called by EmbedQuery if set.
	EmbedQueryFunc func(ctx context.Context, text string) ([]float32, error)

	callCount atomic.Int64
}

var _ ai.TextEmbedder = (*MockTextEmbedder)(nil)

// NewMockTextEmbedder creates a mock with default deterministic behavior.
func NewMockTextEmbedder() *MockTextEmbedder {
	return &MockTextEmbedder{}
}

// EmbedDocument returns a deterministic vector for the document-prefixed text.
func (m *MockTextEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)
	if m.EmbedDocumentFunc != nil {
		return m.EmbedDocumentFunc(ctx, text)
	}
	return DeterministicVector(ai.DefaultDocumentPrefix+text, Dimensions), nil
}

// EmbedDocuments returns deterministic vectors for each text.
func (m *MockTextEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)
	if m.EmbedDocumentsFunc != nil {
		return m.EmbedDocumentsFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = DeterministicVector(ai.DefaultDocumentPrefix+text, Dimensions)
	}
	return out, nil
}

// EmbedQuery returns a deterministic vector for the query-prefixed text.
func (m *MockTextEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)
	if m.EmbedQueryFunc != nil {
		return m.EmbedQueryFunc(ctx, text)
	}
	return DeterministicVector(ai.DefaultQueryPrefix+text, Dimensions), nil
}

// CallCount returns the number of times any method was called.
func (m *MockTextEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockTextEmbedder) Reset() {
	m.callCount.Store(0)
	m.EmbedDocumentFunc = nil
	m.EmbedDocumentsFunc = nil
	m.EmbedQueryFunc = nil
}

// MockImageEmbedder is a test double for ai.ImageEmbedder.
type MockImageEmbedder struct {
	// EmbedImageFunc is called by EmbedImage if set.
	EmbedImageFunc func(ctx context.Context, data []byte) ([]float32, error)

	callCount atomic.Int64
}

var _ ai.ImageEmbedder = (*MockImageEmbedder)(nil)

// NewMockImageEmbedder creates a mock with default deterministic behavior.
func NewMockImageEmbedder() *MockImageEmbedder {
	return &MockImageEmbedder{}
}

// EmbedImage returns a deterministic vector for the image bytes.
func (m *MockImageEmbedder) EmbedImage(ctx context.Context, data []byte) ([]float32, error) {
	m.callCount.Add(1)
	if m.EmbedImageFunc != nil {
		return m.EmbedImageFunc(ctx, data)
	}
	return DeterministicVector("image:"+string(data), Dimensions), nil
}

// CallCount returns the number of times EmbedImage was called.
func (m *MockImageEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// DeterministicVector creates a unit vector from text.
// It uses an FNV hash so the same text always produces the same vector.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 - 0.5
	}
	return ai.NormalizeVector(vector)
}
