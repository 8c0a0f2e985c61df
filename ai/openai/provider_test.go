package openai

import (
	"testing"

	"github.com/poiesic/shadowpaste/ai"
	"github.com/poiesic/shadowpaste/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"))
		p, err := NewProvider(cfg, nil)
		require.NoError(t, err)
		defer p.Close()

		assert.NotNil(t, p.TextEmbedder())
		assert.Nil(t, p.ImageEmbedder())
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("attached image model", func(t *testing.T) {
		image := mock.NewMockImageEmbedder()
		p, err := NewProvider(ai.DefaultConfig(), image)
		require.NoError(t, err)
		assert.Equal(t, image, p.ImageEmbedder())
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewProvider(ai.NewConfig(ai.WithTextModel("")), nil)
		assert.Error(t, err)
	})
}
