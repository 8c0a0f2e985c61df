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

// Package history holds the in-memory view of captured entries.
//
// The store is populated from storage at startup and then kept in sync by
// explicit Append, Remove and ReplaceEmbedding calls. It never reconciles in
// the background.
package history

import (
	"slices"
	"sync"

	"github.com/poiesic/shadowpaste/core"
)

// Store is an ordered, concurrency-safe list of entries, oldest first.
type Store struct {
	mu      sync.RWMutex
	entries []*core.Entry
}

// New creates a store holding entries in the given order.
func New(entries []*core.Entry) *Store {
	s := &Store{entries: make([]*core.Entry, 0, len(entries))}
	for _, e := range entries {
		if e != nil {
			s.entries = append(s.entries, e)
		}
	}
	return s
}

// Append adds an entry as the newest item.
func (s *Store) Append(e *core.Entry) {
	if e == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

// Remove drops every entry with the given id and reports whether any was
// found. Id 0 never matches.
func (s *Store) Remove(id core.ID) bool {
	if id == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(e *core.Entry) bool {
		return e.ID == id
	})
	return len(s.entries) != before
}

// RemoveEntry drops e itself, matched by identity rather than id, so an
// entry whose insert failed (id 0) can still be removed.
func (s *Store) RemoveEntry(e *core.Entry) bool {
	if e == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(x *core.Entry) bool {
		return x == e
	})
	return len(s.entries) != before
}

// ReplaceEmbedding swaps in a copy of the entry with the given id carrying
// vector. Entries handed out earlier are not modified.
func (s *Store) ReplaceEmbedding(id core.ID, vector []float32) bool {
	if id == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			updated := *e
			updated.Embedding = vector
			s.entries[i] = &updated
			return true
		}
	}
	return false
}

// Get returns the entry with the given id.
func (s *Store) Get(id core.ID) (*core.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id && id != 0 {
			return e, true
		}
	}
	return nil, false
}

// Snapshot returns a copy of the entry list, oldest to newest. The entries
// themselves are shared and must be treated as read-only.
func (s *Store) Snapshot() []*core.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
