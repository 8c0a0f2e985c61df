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

package clipboard

import (
	"bytes"
	"context"
	"sync"

	"github.com/disintegration/imaging"
	"golang.design/x/clipboard"
)

// NativePlatform reads the system clipboard through the OS APIs and
// receives change notifications from its watchers.
type NativePlatform struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	text   <-chan []byte
	image  <-chan []byte
}

// NewNativePlatform returns an uninitialized native platform.
func NewNativePlatform() *NativePlatform {
	return &NativePlatform{}
}

// Init opens the OS clipboard and starts the change watchers.
func (p *NativePlatform) Init() error {
	if err := clipboard.Init(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.text = clipboard.Watch(ctx, clipboard.FmtText)
	p.image = clipboard.Watch(ctx, clipboard.FmtImage)
	return nil
}

func (p *NativePlatform) ReadText() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

// ReadImage returns the clipboard image, or nil when none is present.
func (p *NativePlatform) ReadImage() (*RawImage, error) {
	data := clipboard.Read(clipboard.FmtImage)
	if len(data) == 0 {
		return nil, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	return &RawImage{Width: bounds.Dx(), Height: bounds.Dy(), Pix: nrgba.Pix}, nil
}

// WaitChange returns on the next text or image change.
func (p *NativePlatform) WaitChange(ctx context.Context) error {
	p.mu.Lock()
	text, image := p.text, p.image
	p.mu.Unlock()
	if text == nil || image == nil {
		return ErrWatchClosed
	}
	select {
	case _, ok := <-text:
		if !ok {
			return ErrWatchClosed
		}
	case _, ok := <-image:
		if !ok {
			return ErrWatchClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Close stops the watchers.
func (p *NativePlatform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
		p.text, p.image = nil, nil
	}
	return nil
}
