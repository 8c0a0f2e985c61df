package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/storage"
)

// HistoryRepository implements storage.HistoryRepository for BadgerDB.
type HistoryRepository struct {
	backend   *Backend
	idSeq     *badger.Sequence
	ownsStore bool
}

var _ storage.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository creates a repository on an existing backend.
// Closing the repository releases the id sequence but leaves the backend open.
func NewHistoryRepository(backend *Backend) (*HistoryRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	idSeq, err := backend.GetSequence(entryIDSeq)
	if err != nil {
		return nil, storage.Wrap("open", err)
	}

	return &HistoryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Open opens a BadgerDB backed history in dir. The returned repository owns
// the backend and closes it on Close.
func Open(dir string, inMemory bool, logger *slog.Logger) (*HistoryRepository, error) {
	backend, err := OpenBackend(dir, inMemory, logger)
	if err != nil {
		return nil, storage.Wrap("open", err)
	}
	repo, err := NewHistoryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	repo.ownsStore = true
	return repo, nil
}

// Close releases the ID sequence and, when owned, the backend.
func (r *HistoryRepository) Close() error {
	if r.backend.IsClosed() {
		return nil
	}
	err := r.idSeq.Release()
	if r.ownsStore {
		err = errors.Join(err, r.backend.Close())
	}
	return storage.Wrap("close", err)
}

func (r *HistoryRepository) checkOpen(op string) error {
	if r.backend.IsClosed() {
		return storage.Wrap(op, storage.ErrClosed)
	}
	return nil
}

// nextID draws from the sequence, skipping zero.
func (r *HistoryRepository) nextID() (core.ID, error) {
	next, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		next, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(next), nil
}

// Insert stores a new entry and returns its id.
func (r *HistoryRepository) Insert(ctx context.Context, entry *core.Entry) (core.ID, error) {
	if err := core.ValidateEntry(entry); err != nil {
		return 0, storage.Wrap("insert", fmt.Errorf("%w: %w", storage.ErrInvalidEntry, err))
	}
	if err := r.checkOpen("insert"); err != nil {
		return 0, err
	}

	id, err := r.nextID()
	if err != nil {
		return 0, storage.Wrap("insert", err)
	}

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		rec := recordFromEntry(id, entry)
		if err := tx.Set(makeEntryKey(id), marshalRecord(rec)); err != nil {
			return err
		}
		if err := tx.Set(makeEntryDateKey(entry.CapturedAt, id), nil); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, storage.Wrap("insert", err)
	}
	return id, nil
}

// DeleteByID removes an entry and its index key. Unknown ids are ignored.
func (r *HistoryRepository) DeleteByID(ctx context.Context, id core.ID) error {
	if err := r.checkOpen("delete"); err != nil {
		return err
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		rec, found, err := readRecord(tx, id)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		if err := tx.Delete(makeEntryDateKey(rec.entry().CapturedAt, id)); err != nil {
			return err
		}
		if err := tx.Delete(makeEntryKey(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return storage.Wrap("delete", err)
}

// LoadAll walks the capture-time index and returns entries oldest first.
func (r *HistoryRepository) LoadAll(ctx context.Context) ([]*core.Entry, error) {
	if err := r.checkOpen("load"); err != nil {
		return nil, err
	}
	var entries []*core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryDatePrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, ok := idFromDateKey(iter.Item().Key())
			if !ok {
				continue
			}
			rec, found, err := readRecord(tx, id)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			entries = append(entries, rec.entry())
		}
		return nil
	}, false)
	if err != nil {
		return nil, storage.Wrap("load", err)
	}
	return entries, nil
}

// UpdateEmbedding rewrites the stored vector for id.
func (r *HistoryRepository) UpdateEmbedding(ctx context.Context, id core.ID, embedding []float32) error {
	if err := r.checkOpen("update-embedding"); err != nil {
		return err
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		rec, found, err := readRecord(tx, id)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		rec.Embedding = string(storage.EncodeEmbedding(embedding))
		if err := tx.Set(makeEntryKey(id), marshalRecord(rec)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return storage.Wrap("update-embedding", err)
}

func readRecord(tx *badger.Txn, id core.ID) (record, bool, error) {
	item, err := tx.Get(makeEntryKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return record{}, false, nil
	}
	if err != nil {
		return record{}, false, err
	}
	var rec record
	err = item.Value(func(val []byte) error {
		var err error
		rec, err = unmarshalRecord(val)
		return err
	})
	if err != nil {
		return record{}, false, err
	}
	return rec, true, nil
}
