package shadowpaste

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/shadowpaste/ai"
	"github.com/poiesic/shadowpaste/ai/mock"
	"github.com/poiesic/shadowpaste/clipboard"
	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/search"
	"github.com/poiesic/shadowpaste/storage"
	"github.com/poiesic/shadowpaste/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPlatform replays snapshots sent on changes.
type scriptedPlatform struct {
	initErr error
	changes chan clipboard.Snapshot
	current clipboard.Snapshot
}

func newScriptedPlatform() *scriptedPlatform {
	return &scriptedPlatform{changes: make(chan clipboard.Snapshot)}
}

func (p *scriptedPlatform) Init() error                             { return p.initErr }
func (p *scriptedPlatform) ReadText() (string, error)               { return p.current.Text, nil }
func (p *scriptedPlatform) ReadImage() (*clipboard.RawImage, error) { return p.current.Image, nil }

func (p *scriptedPlatform) WaitChange(ctx context.Context) error {
	select {
	case s, ok := <-p.changes:
		if !ok {
			return clipboard.ErrWatchClosed
		}
		p.current = s
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Storage.Path = t.TempDir() + "/history.db"
	cfg.Monitor.SettleDelay = 0
	cfg.Monitor.VerifyBackoff = 0
	cfg.PoolSize = 2
	return cfg
}

func openTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithLoader(mock.NewMockProvider().Loader())}, opts...)
	app, err := Open(testConfig(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app
}

func TestOpen_LoadsHistory(t *testing.T) {
	ctx := context.Background()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, s := range []string{"a", "b", "c"} {
		_, err := repo.Insert(ctx, &core.Entry{Content: core.Text(s), CapturedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	app := openTestApp(t, WithRepository(repo))
	entries := app.History()
	require.Len(t, entries, 3)
	assert.Equal(t, core.Text("a"), entries[0].Content)
	assert.Equal(t, core.Text("c"), entries[2].Content)
}

func TestOpen_SQLiteDefault(t *testing.T) {
	app := openTestApp(t)
	assert.Empty(t, app.History())
	assert.Equal(t, ai.StateIdle, app.EmbedderStatus().State)
}

func TestOpen_StorageFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = BackendBadger
	cfg.Storage.Path = "/dev/null/cannot-create"
	_, err := Open(cfg, WithLoader(mock.NewMockProvider().Loader()))
	require.Error(t, err)
}

func receiveEntry(t *testing.T, ch <-chan *core.Entry) *core.Entry {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a captured entry")
		return nil
	}
}

func TestApp_CaptureScenario(t *testing.T) {
	ctx := context.Background()
	platform := newScriptedPlatform()
	captured := make(chan *core.Entry, 4)
	app := openTestApp(t, WithPlatform(platform), WithOnCapture(func(e *core.Entry) { captured <- e }))

	app.StartEmbedder(ctx)
	require.NoError(t, app.WaitEmbedder(ctx))
	require.NoError(t, app.StartCapture(ctx))
	assert.ErrorIs(t, app.StartCapture(ctx), ErrCaptureRunning)

	red := &clipboard.RawImage{Width: 1, Height: 1, Pix: []byte{255, 0, 0, 255}}
	platform.changes <- clipboard.Snapshot{Text: "abc", HasText: true}
	platform.changes <- clipboard.Snapshot{Text: "abc", HasText: true}
	platform.changes <- clipboard.Snapshot{Image: red}

	first := receiveEntry(t, captured)
	second := receiveEntry(t, captured)
	app.StopCapture()

	assert.Equal(t, core.Text("abc"), first.Content)
	assert.True(t, first.HasEmbedding())
	assert.Equal(t, core.KindImage, core.KindOf(second.Content))
	assert.True(t, second.HasEmbedding())

	entries := app.History()
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Persisted())
	assert.True(t, entries[1].Persisted())

	results := app.Search(ctx, "ABC")
	require.Len(t, results, 2)
	assert.Equal(t, first.ID, results[0].Entry.ID)
	assert.True(t, results[0].Matched)

	// Capture can be restarted after a stop.
	require.NoError(t, app.StartCapture(ctx))
}

func TestApp_CaptureRestartsAfterWatcherCloses(t *testing.T) {
	ctx := context.Background()
	platform := newScriptedPlatform()
	app := openTestApp(t, WithPlatform(platform))

	require.NoError(t, app.StartCapture(ctx))
	close(platform.changes)

	assert.Eventually(t, func() bool {
		return app.StartCapture(ctx) == nil
	}, 3*time.Second, 10*time.Millisecond, "capture state is cleared when the monitor ends on its own")
}

func TestApp_CaptureInitFailure(t *testing.T) {
	ctx := context.Background()
	platform := newScriptedPlatform()
	platform.initErr = errors.New("no display")
	app := openTestApp(t, WithPlatform(platform))

	err := app.StartCapture(ctx)
	assert.ErrorIs(t, err, clipboard.ErrInitFailed)

	// The rest of the app keeps working.
	assert.Empty(t, app.Search(ctx, "anything"))
	assert.ErrorIs(t, app.StartCapture(ctx), clipboard.ErrInitFailed, "a failed start leaves capture off")
}

func TestApp_Delete(t *testing.T) {
	ctx := context.Background()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	id, err := repo.Insert(ctx, &core.Entry{Content: core.Text("secret"), CapturedAt: time.Now()})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, &core.Entry{Content: core.Text("keep"), CapturedAt: time.Now()})
	require.NoError(t, err)

	app := openTestApp(t, WithRepository(repo))

	assert.ErrorIs(t, app.Delete(ctx, 0), core.ErrNotPersisted)
	require.NoError(t, app.Delete(ctx, id))
	require.NoError(t, app.Delete(ctx, 9999), "missing id is a no-op")

	for _, e := range app.History() {
		assert.NotEqual(t, id, e.ID)
	}
	stored, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, core.Text("keep"), stored[0].Content)
}

func TestApp_Ingest(t *testing.T) {
	ctx := context.Background()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	var seen []*core.Entry
	app := openTestApp(t, WithRepository(repo), WithOnCapture(func(e *core.Entry) { seen = append(seen, e) }))

	entry, err := app.Ingest(ctx, core.Text("imported"))
	require.NoError(t, err)
	assert.True(t, entry.Persisted())
	assert.False(t, entry.CapturedAt.IsZero())
	require.Len(t, seen, 1)
	assert.Same(t, entry, seen[0])

	stored, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, entry.ID, stored[0].ID)
}

func TestApp_DeleteEntryNotPersisted(t *testing.T) {
	ctx := context.Background()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	app := openTestApp(t, WithRepository(repo))
	require.NoError(t, repo.Close())

	entry, err := app.Ingest(ctx, core.Text("hunter2"))
	require.Error(t, err, "insert fails on a closed store")
	require.False(t, entry.Persisted())
	require.Len(t, app.History(), 1)

	assert.ErrorIs(t, app.Delete(ctx, entry.ID), core.ErrNotPersisted)
	require.NoError(t, app.DeleteEntry(ctx, entry))
	assert.Empty(t, app.History())
	assert.Empty(t, app.Search(ctx, "hunter2"))
	require.NoError(t, app.DeleteEntry(ctx, nil))
}

func TestApp_DeleteEntryPersisted(t *testing.T) {
	ctx := context.Background()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	app := openTestApp(t, WithRepository(repo))

	entry, err := app.Ingest(ctx, core.Text("gone"))
	require.NoError(t, err)
	require.NoError(t, app.DeleteEntry(ctx, entry))

	assert.Empty(t, app.History())
	stored, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestApp_DeleteStorageError(t *testing.T) {
	ctx := context.Background()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	id, err := repo.Insert(ctx, &core.Entry{Content: core.Text("x"), CapturedAt: time.Now()})
	require.NoError(t, err)

	app := openTestApp(t, WithRepository(repo))
	require.NoError(t, repo.Close())

	err = app.Delete(ctx, id)
	assert.True(t, storage.IsStorageError(err))
	assert.Len(t, app.History(), 1, "memory is untouched when storage fails")
}

func TestApp_Session(t *testing.T) {
	ctx := context.Background()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	text := "hello world"
	_, err = repo.Insert(ctx, &core.Entry{
		Content:    core.Text(text),
		CapturedAt: time.Now(),
		Embedding:  mock.DeterministicVector(ai.DefaultDocumentPrefix+text, mock.Dimensions),
	})
	require.NoError(t, err)

	app := openTestApp(t, WithRepository(repo))
	app.StartEmbedder(ctx)
	require.NoError(t, app.WaitEmbedder(ctx))

	updates := make(chan struct{}, 1)
	session := app.NewSession(func([]search.Result) { updates <- struct{}{} })
	results := session.SetQuery(ctx, "greeting")
	require.Len(t, results, 1)

	select {
	case <-updates:
	case <-time.After(3 * time.Second):
		t.Fatal("no session update")
	}
	assert.NotZero(t, session.Refresh(ctx)[0].Similarity)
}

func TestApp_Reembed(t *testing.T) {
	ctx := context.Background()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	_, err = repo.Insert(ctx, &core.Entry{Content: core.Text("backfill me"), CapturedAt: time.Now()})
	require.NoError(t, err)

	app := openTestApp(t, WithRepository(repo))
	app.StartEmbedder(ctx)
	require.NoError(t, app.WaitEmbedder(ctx))

	r, err := app.NewReembedder(nil, nil)
	require.NoError(t, err)
	before := app.History()[0]
	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Embedded)

	entries := app.History()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].HasEmbedding(), "the history follows the stored vectors")
	assert.False(t, before.HasEmbedding(), "entries handed out earlier are not mutated")

	results := app.Search(ctx, "something unrelated")
	require.Len(t, results, 1)
	assert.NotZero(t, results[0].Similarity)
}

func TestNewLoader(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoader(*ai.DefaultConfig())(ctx)
	require.NoError(t, err)
	assert.NotNil(t, provider.TextEmbedder())
	assert.Nil(t, provider.ImageEmbedder())
	require.NoError(t, provider.Close())

	onnxCfg := *ai.DefaultConfig()
	onnxCfg.Provider = "ONNX"
	_, err = NewLoader(onnxCfg)(ctx)
	assert.Error(t, err, "onnx needs model paths")
}
