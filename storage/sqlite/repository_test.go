package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/storage"
	"github.com/poiesic/shadowpaste/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) storage.HistoryRepository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	return repo
}

func TestRepository(t *testing.T) {
	storagetest.Run(t, openTemp)
}

func TestOpen_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	repo, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	repo, err := Open(path)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, &core.Entry{Content: core.Text("survives"), CapturedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = Open(path)
	require.NoError(t, err)
	defer repo.Close()

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, core.Text("survives"), loaded[0].Content)
}

func TestSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	repo, err := Open(path)
	require.NoError(t, err)
	_, err = repo.Insert(context.Background(), &core.Entry{
		Content:    core.Text("abc"),
		CapturedAt: time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var (
		contentType string
		content     string
		copiedAt    string
		embedding   []byte
	)
	err = db.QueryRow(`SELECT content_type, content, copied_at, embedding FROM clipboard_history`).
		Scan(&contentType, &content, &copiedAt, &embedding)
	require.NoError(t, err)
	assert.Equal(t, "text", contentType)
	assert.Equal(t, "abc", content)
	assert.Equal(t, "2024-02-03T04:05:06.000000000Z", copiedAt)
	assert.Nil(t, embedding)
}

func TestLoadAll_UnparseableTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	repo, err := Open(path)
	require.NoError(t, err)
	defer repo.Close()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO clipboard_history (content_type, content, copied_at) VALUES ('text', 'odd', 'not a time')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.WithinDuration(t, time.Now(), loaded[0].CapturedAt, 5*time.Second)
}
