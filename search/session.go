package search

import (
	"context"
	"strings"
	"sync"
)

// Session is the query state behind an interactive search box. The query
// vector is computed lazily in the background and dropped whenever the
// query changes; a vector that resolves for an outdated query is discarded.
type Session struct {
	searcher *Searcher
	onUpdate func([]Result)

	mu       sync.Mutex
	text     string // trimmed, as typed; what gets embedded
	query    string // case folded; what gets matched
	vec      []float32
	gen      uint64
	inflight bool
}

// NewSession starts an empty query session. onUpdate, if non-nil, receives
// a fresh ranking each time a query vector arrives for the current query.
func (s *Searcher) NewSession(onUpdate func([]Result)) *Session {
	return &Session{searcher: s, onUpdate: onUpdate}
}

// SetQuery updates the query and returns a ranking computed with whatever
// vector is already known, which is none right after a change. Any edit to
// the trimmed text, case included, counts as a change.
func (ss *Session) SetQuery(ctx context.Context, raw string) []Result {
	text := strings.TrimSpace(raw)

	ss.mu.Lock()
	if text != ss.text {
		ss.text = text
		ss.query = NormalizeQuery(text)
		ss.vec = nil
		ss.gen++
		ss.inflight = false
	}
	query, vec := ss.query, ss.vec
	ss.mu.Unlock()

	ss.ensureVector(ctx)
	return ss.searcher.rank(query, vec)
}

// Refresh re-ranks the current query, typically after the history changed.
func (ss *Session) Refresh(ctx context.Context) []Result {
	ss.mu.Lock()
	query, vec := ss.query, ss.vec
	ss.mu.Unlock()

	ss.ensureVector(ctx)
	return ss.searcher.rank(query, vec)
}

// Query returns the current normalized query.
func (ss *Session) Query() string {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.query
}

// ensureVector starts a background embedding for the current query unless
// one is known or already on its way.
func (ss *Session) ensureVector(ctx context.Context) {
	ss.mu.Lock()
	if ss.query == "" || ss.vec != nil || ss.inflight || !ss.searcher.embedder.Ready() {
		ss.mu.Unlock()
		return
	}
	ss.inflight = true
	text, query, gen := ss.text, ss.query, ss.gen
	ss.mu.Unlock()

	go ss.resolve(ctx, text, query, gen)
}

func (ss *Session) resolve(ctx context.Context, text, query string, gen uint64) {
	vec, _ := ss.searcher.embedQuery(ctx, text)

	ss.mu.Lock()
	if gen != ss.gen {
		ss.mu.Unlock()
		ss.searcher.logger.Debug("discarding stale query vector", "query", query)
		return
	}
	ss.inflight = false
	if vec == nil {
		ss.mu.Unlock()
		return
	}
	ss.vec = vec
	ss.mu.Unlock()

	if ss.onUpdate == nil {
		return
	}
	results := ss.searcher.rank(query, vec)
	ss.mu.Lock()
	current := gen == ss.gen
	ss.mu.Unlock()
	if current {
		ss.onUpdate(results)
	}
}
