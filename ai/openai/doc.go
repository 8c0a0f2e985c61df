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

// Package openai provides text embeddings over OpenAI-compatible APIs.
//
// This package implements ai.TextEmbedder and ai.Provider using the
// langchaingo library to talk to OpenAI or a compatible server (Ollama,
// LocalAI, vLLM). The configured document and query prefixes are prepended
// before each request.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithTextModel("nomic-embed-text"),
//	)
//
//	provider, err := openai.NewProvider(config, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.TextEmbedder().EmbedQuery(ctx, "invoice from march")
package openai
