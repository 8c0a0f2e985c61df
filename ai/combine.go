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

import (
	"errors"
	"io"
)

type combined struct {
	text    TextEmbedder
	image   ImageEmbedder
	closers []io.Closer
}

// Combine builds a Provider from independent text and image models, e.g. a
// remote text endpoint paired with a local image model. image may be nil.
// Each closer is closed by the provider's Close, in order.
func Combine(text TextEmbedder, image ImageEmbedder, closers ...io.Closer) (Provider, error) {
	if text == nil {
		return nil, ErrTextEmbedderRequired
	}
	return &combined{text: text, image: image, closers: closers}, nil
}

func (c *combined) TextEmbedder() TextEmbedder   { return c.text }
func (c *combined) ImageEmbedder() ImageEmbedder { return c.image }

func (c *combined) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if closer == nil {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
