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

package ai

import "errors"

var (
	// ErrNotReady is returned when embedding is requested before the models
	// finished loading, or after loading failed.
	ErrNotReady = errors.New("embedder not ready")

	// ErrLoadFailed wraps the reason the models could not be loaded.
	ErrLoadFailed = errors.New("embedder failed to load")

	// ErrNoImageEmbedder is returned for image content when the provider has
	// no image model.
	ErrNoImageEmbedder = errors.New("no image embedder configured")

	// ErrEmptyResult is returned when a model produced no vector.
	ErrEmptyResult = errors.New("embedder returned empty result")

	// ErrLoaderRequired is returned when a service is built without a loader.
	ErrLoaderRequired = errors.New("provider loader required")

	// ErrTextEmbedderRequired is returned when a provider has no text model.
	ErrTextEmbedderRequired = errors.New("text embedder required")
)
