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

// Package storage provides the storage abstraction layer for shadowpaste.
//
// This package defines the HistoryRepository interface that decouples the
// capture pipeline from the backend that persists clipboard entries. Two
// backends are provided:
//
//   - sqlite: a single clipboard_history table, the default
//   - badger: an embedded key/value store, useful where cgo-free
//     single-directory storage is preferred
//
// # Wire format
//
// Both backends share the codec in this package:
//
//   - content is stored as a type tag ("text", "image", "empty") plus payload
//   - timestamps are fixed-width UTC strings that sort lexically
//   - embeddings are little-endian float32 words, bit-exact on round trip
//
// # Errors
//
// Every failure raised by a backend is returned as a *Error carrying the
// operation name. Callers that only care whether the storage layer failed can
// use IsStorageError.
//
// # Usage
//
//	repo, err := sqlite.Open("/path/to/history.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	id, err := repo.Insert(ctx, entry)
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
