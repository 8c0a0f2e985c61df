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

// Package ai provides the embedding layer used by shadowpaste.
//
// Clipboard text and images are mapped into a shared vector space so a text
// query can rank both. The package defines the model interfaces, the cosine
// Similarity used for ranking, and Service, which owns the loaded models.
//
// # Interfaces
//
//   - TextEmbedder: document and query embeddings, with model prefixes applied
//   - ImageEmbedder: embeddings for encoded images
//   - Provider: bundles one TextEmbedder and an optional ImageEmbedder
//
// # Implementation Packages
//
//   - ai/openai: text embeddings over an OpenAI-compatible HTTP API
//   - ai/onnx: local text and image models run with onnxruntime
//   - ai/mock: test doubles for unit testing without models
//
// # Service lifecycle
//
// A Service starts idle. Load runs the Loader on the worker pool; until it
// finishes every embedding call returns ErrNotReady so capture can continue
// without vectors. A failed load is permanent for the life of the process and
// its reason is reported by Status.
//
//	svc, err := ai.NewService(loader, ai.WithPoolSize(2))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//	svc.Load(ctx)
//
//	vec, err := svc.EmbedContent(ctx, core.Text("hello"))
//	if errors.Is(err, ai.ErrNotReady) {
//	    // store without a vector
//	}
//
// Model calls are serialized by a single lock held for one call at a time.
// Recently computed vectors are kept in an LRU cache keyed by a BLAKE2b digest
// of the request.
package ai
