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

package core

import "fmt"

// ValidateEntry checks an Entry before it is written to storage.
//
// Validation rules:
//   - Content must not be nil (Empty is allowed)
//   - CapturedAt must be set
//
// NOT validated:
//   - Embedding (nil until the embedder has run)
//   - ID (0 until storage assigns one)
func ValidateEntry(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}
	if entry.Content == nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrMissingContent)
	}
	if entry.CapturedAt.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrMissingTimestamp)
	}
	return nil
}
