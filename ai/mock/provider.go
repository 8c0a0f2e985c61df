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

package mock

import (
	"context"

	"github.com/poiesic/shadowpaste/ai"
)

// MockProvider is a test double for ai.Provider.
type MockProvider struct {
	text   *MockTextEmbedder
	image  *MockImageEmbedder
	closed bool
}

// NewMockProvider creates a provider with default text and image mocks.
//
// Returns *MockProvider so tests can reach the concrete embedders for
// assertions via GetMockText()/GetMockImage().
func NewMockProvider() *MockProvider {
	return &MockProvider{
		text:  NewMockTextEmbedder(),
		image: NewMockImageEmbedder(),
	}
}

// NewMockProviderWithServices creates a provider with custom mocks.
// A nil image mock makes ImageEmbedder return nil.
func NewMockProviderWithServices(text *MockTextEmbedder, image *MockImageEmbedder) *MockProvider {
	if text == nil {
		text = NewMockTextEmbedder()
	}
	return &MockProvider{text: text, image: image}
}

// TextEmbedder returns the mock text model.
func (p *MockProvider) TextEmbedder() ai.TextEmbedder {
	return p.text
}

// ImageEmbedder returns the mock image model, or nil if none was given.
func (p *MockProvider) ImageEmbedder() ai.ImageEmbedder {
	if p.image == nil {
		return nil
	}
	return p.image
}

// Close records that the provider was closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockText returns the underlying text mock for test assertions.
func (p *MockProvider) GetMockText() *MockTextEmbedder {
	return p.text
}

// GetMockImage returns the underlying image mock for test assertions.
func (p *MockProvider) GetMockImage() *MockImageEmbedder {
	return p.image
}

// Loader returns an ai.Loader that yields p.
func (p *MockProvider) Loader() ai.Loader {
	return func(context.Context) (ai.Provider, error) { return p, nil }
}
