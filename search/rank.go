package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/poiesic/shadowpaste/ai"
	"github.com/poiesic/shadowpaste/core"
)

const (
	// DefaultMatchBonus is added for a literal substring match. It exceeds
	// the largest possible similarity, so every match outranks every
	// purely semantic hit among text entries.
	DefaultMatchBonus = 2.0

	// MinMatchBonus is the width of the cosine similarity range. Below it a
	// strong semantic hit can outrank a weak literal match.
	MinMatchBonus = 2.0

	// DefaultImageScale multiplies image similarities before scoring.
	DefaultImageScale = 10.0
)

// Config holds the ranking weights.
type Config struct {
	MatchBonus float32 `yaml:"match_bonus"`
	ImageScale float32 `yaml:"image_scale"`
}

// DefaultConfig returns the calibrated ranking weights.
func DefaultConfig() Config {
	return Config{MatchBonus: DefaultMatchBonus, ImageScale: DefaultImageScale}
}

// Result is a ranked entry. Similarity is the raw cosine value, before
// image scaling; Score is what the ordering used.
type Result struct {
	Entry      *core.Entry
	Similarity float32
	Score      float32
	Matched    bool
}

// Rank orders entries (oldest first, as history stores them) for a query.
// An empty query returns every entry newest first with zero scores. A nil
// query vector means every similarity is 0.
func Rank(entries []*core.Entry, query string, queryVec []float32, cfg Config) []Result {
	query = NormalizeQuery(query)
	results := make([]Result, 0, len(entries))

	// Walk newest first so equal scores favour recent entries.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e == nil {
			continue
		}
		if query == "" {
			results = append(results, Result{Entry: e})
			continue
		}
		results = append(results, score(e, query, queryVec, cfg))
	}
	if query == "" {
		return results
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return results
}

func score(e *core.Entry, query string, queryVec []float32, cfg Config) Result {
	r := Result{Entry: e}
	if text, ok := e.Content.(core.Text); ok {
		r.Matched = strings.Contains(fold(string(text)), query)
	}
	if len(queryVec) > 0 && e.HasEmbedding() {
		r.Similarity = ai.Similarity(queryVec, e.Embedding)
	}

	scaled := r.Similarity
	if _, ok := e.Content.(core.Image); ok {
		scaled *= cfg.ImageScale
	}
	r.Score = scaled
	if r.Matched {
		r.Score += cfg.MatchBonus
	}
	return r
}
