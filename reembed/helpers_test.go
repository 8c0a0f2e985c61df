package reembed

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/shadowpaste/ai"
	"github.com/poiesic/shadowpaste/ai/mock"
	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/storage"
	"github.com/poiesic/shadowpaste/storage/badger"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) storage.HistoryRepository {
	t.Helper()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func readyService(t *testing.T, provider *mock.MockProvider) *ai.Service {
	t.Helper()
	svc, err := ai.NewService(provider.Loader(), ai.WithPoolSize(2), ai.WithCacheSize(0))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	svc.Load(context.Background())
	require.NoError(t, svc.Wait(context.Background()))
	return svc
}

// seed inserts the given contents one second apart and returns the stored entries.
func seed(t *testing.T, repo storage.HistoryRepository, contents ...core.Content) []*core.Entry {
	t.Helper()
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*core.Entry, len(contents))
	for i, c := range contents {
		e := &core.Entry{Content: c, CapturedAt: base.Add(time.Duration(i) * time.Second)}
		id, err := repo.Insert(context.Background(), e)
		require.NoError(t, err)
		e.ID = id
		out[i] = e
	}
	return out
}

func testImage() core.Content {
	return core.EncodeImage(2, 1, []byte{255, 0, 0, 255, 0, 255, 0, 255})
}
