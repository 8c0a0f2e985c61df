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

package openai

import (
	"log/slog"

	"github.com/poiesic/shadowpaste/ai"
)

// Provider implements ai.Provider with a remote text model.
// OpenAI-compatible servers have no image embedding endpoint, so
// ImageEmbedder is nil unless one is attached.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	image    ai.ImageEmbedder
	logger   *slog.Logger
}

// NewProvider creates a new provider backed by an OpenAI-compatible server.
// The config is validated and normalized before use. image may be nil.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config, image ai.ImageEmbedder) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		embedder: embedder,
		image:    image,
		logger:   slog.Default().With("component", "openai-provider"),
	}, nil
}

// TextEmbedder returns the text embedding service.
func (p *Provider) TextEmbedder() ai.TextEmbedder {
	return p.embedder
}

// ImageEmbedder returns the attached image model, if any.
func (p *Provider) ImageEmbedder() ai.ImageEmbedder {
	return p.image
}

// Close releases resources held by the provider.
// The HTTP client needs no cleanup; an attached image model that implements
// io.Closer is closed.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	if c, ok := p.image.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
