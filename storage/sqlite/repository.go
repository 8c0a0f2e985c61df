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

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/storage"

	_ "modernc.org/sqlite"
)

const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// Repository implements storage.HistoryRepository on a single SQLite table.
type Repository struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
	logger *slog.Logger
}

var _ storage.HistoryRepository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// Open opens (or creates) the history database at path and ensures the
// schema exists. Opening an existing database is idempotent.
func Open(path string, opts ...Option) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storage.Wrap("open", err)
		}
	}

	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, storage.Wrap("open", fmt.Errorf("open sqlite: %w", err))
	}
	// One writer at a time; the mutex below serializes callers anyway.
	db.SetMaxOpenConns(1)

	r := &Repository{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "sqlite-history")

	if err := r.migrate(); err != nil {
		db.Close()
		return nil, storage.Wrap("migrate", err)
	}

	r.logger.Debug("history store opened", "path", path)
	return r, nil
}

func (r *Repository) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS clipboard_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content_type TEXT NOT NULL,
			content TEXT NOT NULL,
			copied_at TEXT NOT NULL,
			embedding BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clipboard_history_copied_at ON clipboard_history(copied_at)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// withDB runs fn while holding the handle lock. The lock is never held
// across more than one call.
func (r *Repository) withDB(op string, fn func(db *sql.DB) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return storage.Wrap(op, storage.ErrClosed)
	}
	return storage.Wrap(op, fn(r.db))
}

// Insert stores a new entry and returns its id.
func (r *Repository) Insert(ctx context.Context, entry *core.Entry) (core.ID, error) {
	if err := core.ValidateEntry(entry); err != nil {
		return 0, storage.Wrap("insert", fmt.Errorf("%w: %w", storage.ErrInvalidEntry, err))
	}

	tag, payload := storage.ContentTag(entry.Content)
	var id core.ID
	err := r.withDB("insert", func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`INSERT INTO clipboard_history (content_type, content, copied_at, embedding) VALUES (?, ?, ?, ?)`,
			tag, payload, storage.FormatTime(entry.CapturedAt), embeddingArg(entry.Embedding))
		if err != nil {
			return err
		}
		last, err := res.LastInsertId()
		if err != nil {
			return err
		}
		id = core.ID(last)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteByID removes an entry. Unknown ids are ignored.
func (r *Repository) DeleteByID(ctx context.Context, id core.ID) error {
	return r.withDB("delete", func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `DELETE FROM clipboard_history WHERE id = ?`, int64(id))
		return err
	})
}

// LoadAll returns every entry, oldest first.
func (r *Repository) LoadAll(ctx context.Context) ([]*core.Entry, error) {
	var entries []*core.Entry
	err := r.withDB("load", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			`SELECT id, content_type, content, copied_at, embedding FROM clipboard_history ORDER BY copied_at ASC, id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				id        int64
				tag       string
				payload   string
				copiedAt  string
				embedding []byte
			)
			if err := rows.Scan(&id, &tag, &payload, &copiedAt, &embedding); err != nil {
				return err
			}
			entries = append(entries, &core.Entry{
				ID:         core.ID(id),
				Content:    storage.ContentFromTag(tag, payload),
				CapturedAt: storage.ParseTime(copiedAt),
				Embedding:  storage.DecodeEmbedding(embedding),
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateEmbedding replaces the stored vector for id.
func (r *Repository) UpdateEmbedding(ctx context.Context, id core.ID, embedding []float32) error {
	return r.withDB("update-embedding", func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`UPDATE clipboard_history SET embedding = ? WHERE id = ?`,
			embeddingArg(embedding), int64(id))
		return err
	})
}

// Close closes the database handle.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return storage.Wrap("close", r.db.Close())
}

// embeddingArg binds a missing vector as NULL rather than an empty blob.
func embeddingArg(v []float32) any {
	if v == nil {
		return nil
	}
	return storage.EncodeEmbedding(v)
}
