package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/shadowpaste/core"
)

// HistorySource supplies the entries to rank, oldest first.
// *history.Store satisfies it.
type HistorySource interface {
	Snapshot() []*core.Entry
}

// QueryEmbedder embeds search queries. *ai.Service satisfies it.
type QueryEmbedder interface {
	Ready() bool
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Searcher ranks the current history against queries.
type Searcher struct {
	history  HistorySource
	embedder QueryEmbedder
	config   Config
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithConfig overrides the ranking weights.
func WithConfig(cfg Config) Option {
	return func(s *Searcher) error {
		s.config = cfg
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(history HistorySource, embedder QueryEmbedder, opts ...Option) (*Searcher, error) {
	if history == nil {
		return nil, ErrHistoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		history:  history,
		embedder: embedder,
		config:   DefaultConfig(),
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "search")

	return s, nil
}

// Search ranks a snapshot of the history against raw. It never fails: when
// no query vector can be computed the ranking uses substring matches only.
func (s *Searcher) Search(ctx context.Context, raw string) []Result {
	return s.SearchWithMonitor(ctx, raw, nil)
}

// SearchWithMonitor is Search with progress callbacks.
func (s *Searcher) SearchWithMonitor(ctx context.Context, raw string, monitor SearchMonitor) []Result {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	text := strings.TrimSpace(raw)
	query := NormalizeQuery(text)
	monitor.Start(query)

	vec, err := s.embedQuery(ctx, text)
	monitor.AfterQueryEmbedding(vec != nil, err)

	results := s.rank(query, vec)
	monitor.Finish(results)
	return results
}

func (s *Searcher) rank(query string, vec []float32) []Result {
	return Rank(s.history.Snapshot(), query, vec, s.config)
}

// embedQuery embeds the trimmed query as typed; case folding applies only
// to substring matching. It returns nil when the text is empty, the
// embedder is not ready, or embedding fails.
func (s *Searcher) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" || !s.embedder.Ready() {
		return nil, nil
	}
	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		s.logger.Warn("error embedding query, using substring matches only", "err", err)
		return nil, err
	}
	return vec, nil
}
