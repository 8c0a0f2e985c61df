package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/shadowpaste/ai"
	"github.com/poiesic/shadowpaste/ai/mock"
	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns canned query vectors. A gate, when present, holds
// the call for that query until it is closed.
type fakeEmbedder struct {
	ready   bool
	vectors map[string][]float32
	gates   map[string]chan struct{}
	err     error
	calls   atomic.Int32

	mu      sync.Mutex
	queries []string
}

func (f *fakeEmbedder) Ready() bool { return f.ready }

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	f.calls.Add(1)
	if gate, ok := f.gates[query]; ok {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors[query], nil
}

// recordingMonitor captures the hook sequence.
type recordingMonitor struct {
	events []string
}

func (m *recordingMonitor) Start(query string) { m.events = append(m.events, "start:"+query) }
func (m *recordingMonitor) AfterQueryEmbedding(embedded bool, err error) {
	if embedded {
		m.events = append(m.events, "embedded")
	} else {
		m.events = append(m.events, "no-vector")
	}
}
func (m *recordingMonitor) Finish(results []Result) { m.events = append(m.events, "finish") }

func sampleHistory() *history.Store {
	return history.New([]*core.Entry{
		textEntry(1, "hello world", []float32{0, 1}),
		textEntry(2, "foo", []float32{1, 0}),
	})
}

func TestNewSearcher(t *testing.T) {
	emb := &fakeEmbedder{}

	t.Run("valid configuration", func(t *testing.T) {
		s, err := NewSearcher(sampleHistory(), emb)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), s.config)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		s, err := NewSearcher(sampleHistory(), emb, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, s.logger)
	})

	t.Run("with custom logger and config", func(t *testing.T) {
		cfg := Config{MatchBonus: 3, ImageScale: 5}
		s, err := NewSearcher(sampleHistory(), emb, WithLogger(slog.Default()), WithConfig(cfg))
		require.NoError(t, err)
		assert.Equal(t, cfg, s.config)
	})

	t.Run("nil history", func(t *testing.T) {
		_, err := NewSearcher(nil, emb)
		assert.Equal(t, ErrHistoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(sampleHistory(), nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("uses query vector when ready", func(t *testing.T) {
		emb := &fakeEmbedder{ready: true, vectors: map[string][]float32{"BAR": {1, 0}}}
		s, err := NewSearcher(sampleHistory(), emb)
		require.NoError(t, err)

		results := s.Search(ctx, "  BAR ")
		require.Len(t, results, 2)
		assert.Equal(t, core.ID(2), results[0].Entry.ID)
		assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	})

	t.Run("embeds trimmed text as typed and matches folded", func(t *testing.T) {
		emb := &fakeEmbedder{ready: true, vectors: map[string][]float32{}}
		s, err := NewSearcher(sampleHistory(), emb)
		require.NoError(t, err)

		results := s.Search(ctx, "  Hello WORLD\t")
		assert.Equal(t, []string{"Hello WORLD"}, emb.queries)
		require.Len(t, results, 2)
		assert.Equal(t, core.ID(1), results[0].Entry.ID)
		assert.True(t, results[0].Matched)
	})

	t.Run("not ready degrades to substring", func(t *testing.T) {
		emb := &fakeEmbedder{vectors: map[string][]float32{"bar": {1, 0}}}
		s, err := NewSearcher(sampleHistory(), emb)
		require.NoError(t, err)

		results := s.Search(ctx, "world")
		require.Len(t, results, 2)
		assert.Equal(t, core.ID(1), results[0].Entry.ID)
		assert.Zero(t, results[1].Score)
		assert.Zero(t, emb.calls.Load())
	})

	t.Run("embed failure degrades to substring", func(t *testing.T) {
		emb := &fakeEmbedder{ready: true, err: errors.New("model gone")}
		s, err := NewSearcher(sampleHistory(), emb)
		require.NoError(t, err)

		results := s.Search(ctx, "foo")
		require.Len(t, results, 2)
		assert.Equal(t, core.ID(2), results[0].Entry.ID)
		assert.True(t, results[0].Matched)
	})

	t.Run("empty query skips embedding", func(t *testing.T) {
		emb := &fakeEmbedder{ready: true}
		s, err := NewSearcher(sampleHistory(), emb)
		require.NoError(t, err)

		assert.Equal(t, []core.ID{2, 1}, ids(s.Search(ctx, "")))
		assert.Zero(t, emb.calls.Load())
	})

	t.Run("monitor hooks", func(t *testing.T) {
		emb := &fakeEmbedder{ready: true, vectors: map[string][]float32{"Foo": {1, 0}}}
		s, err := NewSearcher(sampleHistory(), emb)
		require.NoError(t, err)

		m := &recordingMonitor{}
		s.SearchWithMonitor(ctx, "Foo", m)
		assert.Equal(t, []string{"start:foo", "embedded", "finish"}, m.events)
	})
}

func TestSearch_WithService(t *testing.T) {
	ctx := context.Background()
	provider := mock.NewMockProvider()
	svc, err := ai.NewService(provider.Loader(), ai.WithPoolSize(1))
	require.NoError(t, err)
	defer svc.Close()

	hist := history.New([]*core.Entry{
		textEntry(1, "alpha", mock.DeterministicVector(ai.DefaultDocumentPrefix+"alpha", mock.Dimensions)),
		textEntry(2, "beta", mock.DeterministicVector(ai.DefaultDocumentPrefix+"beta", mock.Dimensions)),
	})
	s, err := NewSearcher(hist, svc)
	require.NoError(t, err)

	// Before loading: substring only.
	results := s.Search(ctx, "beta")
	assert.Equal(t, core.ID(2), results[0].Entry.ID)
	assert.Zero(t, results[0].Similarity)

	svc.Load(ctx)
	require.NoError(t, svc.Wait(ctx))

	results = s.Search(ctx, "beta")
	assert.Equal(t, core.ID(2), results[0].Entry.ID)
	assert.NotZero(t, results[0].Similarity)
}

func waitUpdate(t *testing.T, ch <-chan []Result) []Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session update")
		return nil
	}
}

func TestSession_LazyVector(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{ready: true, vectors: map[string][]float32{"Bar": {1, 0}}}
	s, err := NewSearcher(sampleHistory(), emb)
	require.NoError(t, err)

	updates := make(chan []Result, 4)
	session := s.NewSession(func(r []Result) { updates <- r })

	immediate := session.SetQuery(ctx, "Bar")
	require.Len(t, immediate, 2)
	for _, r := range immediate {
		assert.Zero(t, r.Similarity, "no vector before the embedding resolves")
	}

	updated := waitUpdate(t, updates)
	assert.Equal(t, core.ID(2), updated[0].Entry.ID)
	assert.InDelta(t, 1.0, updated[0].Similarity, 1e-6)
	assert.Equal(t, "bar", session.Query())

	// Same text again: the vector is reused, no new embedding.
	again := session.SetQuery(ctx, "Bar ")
	assert.InDelta(t, 1.0, again[0].Similarity, 1e-6)
	assert.Equal(t, int32(1), emb.calls.Load())

	// A case-only edit is embedded afresh, as typed.
	session.SetQuery(ctx, "BAR")
	assert.Eventually(t, func() bool { return emb.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	emb.mu.Lock()
	assert.Equal(t, []string{"Bar", "BAR"}, emb.queries)
	emb.mu.Unlock()
}

func TestSession_StaleVectorDiscarded(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	emb := &fakeEmbedder{
		ready:   true,
		vectors: map[string][]float32{"old": {0, 1}, "new": {1, 0}},
		gates:   map[string]chan struct{}{"old": gate},
	}
	s, err := NewSearcher(sampleHistory(), emb)
	require.NoError(t, err)

	var mu sync.Mutex
	var queries []string
	updates := make(chan []Result, 4)
	var session *Session
	session = s.NewSession(func(r []Result) {
		mu.Lock()
		queries = append(queries, session.Query())
		mu.Unlock()
		updates <- r
	})

	session.SetQuery(ctx, "old")
	session.SetQuery(ctx, "new")

	updated := waitUpdate(t, updates)
	assert.Equal(t, core.ID(2), updated[0].Entry.ID)

	close(gate)
	select {
	case <-updates:
		t.Fatal("stale vector must not produce an update")
	case <-time.After(50 * time.Millisecond):
	}

	results := session.Refresh(ctx)
	assert.Equal(t, core.ID(2), results[0].Entry.ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)

	mu.Lock()
	assert.Equal(t, []string{"new"}, queries)
	mu.Unlock()
}

func TestSession_RefreshSeesNewEntries(t *testing.T) {
	ctx := context.Background()
	hist := sampleHistory()
	s, err := NewSearcher(hist, &fakeEmbedder{})
	require.NoError(t, err)

	session := s.NewSession(nil)
	assert.Len(t, session.SetQuery(ctx, ""), 2)

	hist.Append(textEntry(3, "baz", nil))
	results := session.Refresh(ctx)
	assert.Equal(t, []core.ID{3, 2, 1}, ids(results))
}

func TestSession_EmbedsOnceReady(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vectors: map[string][]float32{"bar": {1, 0}}}
	s, err := NewSearcher(sampleHistory(), emb)
	require.NoError(t, err)

	updates := make(chan []Result, 1)
	session := s.NewSession(func(r []Result) { updates <- r })
	session.SetQuery(ctx, "bar")
	assert.Zero(t, emb.calls.Load())

	emb.ready = true
	session.Refresh(ctx)
	updated := waitUpdate(t, updates)
	assert.InDelta(t, 1.0, updated[0].Similarity, 1e-6)
}
