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

package onnx

import (
	"errors"
	"log/slog"

	"github.com/poiesic/shadowpaste/ai"
)

// Provider implements ai.Provider with local ONNX models.
type Provider struct {
	text   *TextEmbedder
	image  *ImageEmbedder
	logger *slog.Logger
}

// NewProvider loads the text model and, when config.ImageModelPath is set,
// the vision model. Loading can take seconds; call it from an ai.Loader.
//
// Returns ai.Provider interface to enforce abstraction.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := slog.Default().With("component", "onnx-provider")

	text, err := NewTextEmbedder(config)
	if err != nil {
		return nil, err
	}

	p := &Provider{text: text, logger: logger}
	if config.ImageModelPath != "" {
		image, err := NewImageEmbedder(config)
		if err != nil {
			text.Close()
			return nil, err
		}
		p.image = image
	} else {
		logger.Warn("no image model configured; images will not be embedded")
	}
	return p, nil
}

// TextEmbedder returns the local text model.
func (p *Provider) TextEmbedder() ai.TextEmbedder {
	return p.text
}

// ImageEmbedder returns the local vision model, or nil.
func (p *Provider) ImageEmbedder() ai.ImageEmbedder {
	if p.image == nil {
		return nil
	}
	return p.image
}

// Close destroys both sessions.
func (p *Provider) Close() error {
	p.logger.Debug("closing ONNX provider")
	var errs []error
	if p.image != nil {
		errs = append(errs, p.image.Close())
	}
	errs = append(errs, p.text.Close())
	return errors.Join(errs...)
}
