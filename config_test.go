package shadowpaste

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/shadowpaste/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "history.db", filepath.Base(cfg.Storage.Path))
	assert.Equal(t, PlatformNative, cfg.Monitor.Platform)
	assert.Equal(t, 50*time.Millisecond, cfg.Monitor.SettleDelay)
	assert.Equal(t, float32(2.0), cfg.Ranking.MatchBonus)
	assert.Equal(t, float32(10.0), cfg.Ranking.ImageScale)
	assert.Equal(t, ai.ProviderOpenAI, cfg.Embedding.Provider)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
}

func TestLoadConfig_Overlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  backend: Badger
  path: ` + filepath.Join(dir, "kv") + `
monitor:
  platform: poll
  settle_delay: 80ms
  poll_interval: 1s
embedding:
  host: http://embed.local:8080
  text_model: all-minilm
ranking:
  image_scale: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "kv"), cfg.Storage.Path)
	assert.Equal(t, PlatformPoll, cfg.Monitor.Platform)
	assert.Equal(t, 80*time.Millisecond, cfg.Monitor.SettleDelay)
	assert.Equal(t, time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, 2, cfg.Monitor.VerifyRetries, "unset fields keep defaults")
	assert.Equal(t, "http://embed.local:8080/v1", cfg.Embedding.EmbeddingHost)
	assert.Equal(t, "all-minilm", cfg.Embedding.TextModel)
	assert.Equal(t, ai.DefaultQueryPrefix, cfg.Embedding.QueryPrefix)
	assert.Equal(t, float32(4), cfg.Ranking.ImageScale)
	assert.Equal(t, float32(2), cfg.Ranking.MatchBonus)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"unknown backend", "storage:\n  backend: postgres\n", ErrUnknownBackend},
		{"unknown platform", "monitor:\n  platform: wayland\n", ErrUnknownPlatform},
		{"negative delay", "monitor:\n  settle_delay: -5ms\n", nil},
		{"match bonus below similarity span", "ranking:\n  match_bonus: 1.5\n", nil},
		{"onnx without model", "embedding:\n  provider: onnx\n", nil},
		{"malformed yaml", "storage: [\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadConfig(path)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Storage.Backend = BackendBadger
	cfg.Monitor.VerifyRetries = 5
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, loaded.Storage.Backend)
	assert.Equal(t, 5, loaded.Monitor.VerifyRetries)
	assert.Equal(t, cfg.Monitor.SettleDelay, loaded.Monitor.SettleDelay)
}
