package storage

import (
	"context"

	"github.com/poiesic/shadowpaste/core"
)

// HistoryRepository persists clipboard entries.
// Implementations must be thread-safe and support concurrent access.
type HistoryRepository interface {
	// Insert stores a new entry and returns the id assigned to it.
	// The entry's ID field is ignored on input.
	Insert(ctx context.Context, entry *core.Entry) (core.ID, error)

	// DeleteByID removes the entry with the given id.
	// Deleting an id that does not exist is not an error.
	DeleteByID(ctx context.Context, id core.ID) error

	// LoadAll returns every stored entry ordered by capture time ascending,
	// ties broken by id.
	LoadAll(ctx context.Context) ([]*core.Entry, error)

	// UpdateEmbedding replaces the vector of an existing entry.
	// A nil vector clears it. Used by maintenance tools only.
	UpdateEmbedding(ctx context.Context, id core.ID, embedding []float32) error

	// Close releases the backend. Further calls return ErrClosed.
	Close() error
}
