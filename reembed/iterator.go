// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"

	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/storage"
)

const (
	// DefaultBatchSize is the default number of entries handed to fn at once
	DefaultBatchSize = 100
)

// EntryIterator walks the stored entries that need a vector, oldest first.
type EntryIterator struct {
	repo        storage.HistoryRepository
	batchSize   int
	missingOnly bool
}

// NewEntryIterator creates an iterator. With missingOnly set, entries that
// already carry a vector are left out.
func NewEntryIterator(repo storage.HistoryRepository, batchSize int, missingOnly bool) *EntryIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &EntryIterator{repo: repo, batchSize: batchSize, missingOnly: missingOnly}
}

// Pending loads the entries to process. Empty entries never get a vector
// and are excluded.
func (it *EntryIterator) Pending(ctx context.Context) ([]*core.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all, err := it.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	pending := all[:0]
	for _, e := range all {
		if core.KindOf(e.Content) == core.KindEmpty {
			continue
		}
		if it.missingOnly && e.HasEmbedding() {
			continue
		}
		pending = append(pending, e)
	}
	return pending, nil
}

// ForEach loads the pending entries and calls fn with each batch.
// Iteration stops on the first error from fn or when ctx ends.
func (it *EntryIterator) ForEach(ctx context.Context, fn func([]*core.Entry) error) error {
	entries, err := it.Pending(ctx)
	if err != nil {
		return err
	}
	return it.each(ctx, entries, fn)
}

func (it *EntryIterator) each(ctx context.Context, entries []*core.Entry, fn func([]*core.Entry) error) error {
	for start := 0; start < len(entries); start += it.batchSize {
		end := min(start+it.batchSize, len(entries))
		if err := fn(entries[start:end]); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
