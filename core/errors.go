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

import "errors"

// Domain errors
var (
	// ErrInvalidEntry indicates an Entry failed validation.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrInvalidImage indicates an Image payload could not be decoded.
	ErrInvalidImage = errors.New("invalid image")

	// ErrNotPersisted indicates an operation needs a stored entry but got one
	// with id 0.
	ErrNotPersisted = errors.New("entry not persisted")

	// ErrMissingContent indicates the Content field is nil.
	ErrMissingContent = errors.New("content cannot be nil")

	// ErrMissingTimestamp indicates the capture timestamp is zero.
	ErrMissingTimestamp = errors.New("captured-at timestamp is required")
)
