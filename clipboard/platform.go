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
	"context"
	"errors"

	"github.com/poiesic/shadowpaste/core"
)

var (
	// ErrPlatformRequired is returned when a Monitor is built without a Platform.
	ErrPlatformRequired = errors.New("clipboard platform is required")

	// ErrInitFailed wraps a platform listener initialization failure.
	ErrInitFailed = errors.New("clipboard listener init failed")

	// ErrUnsupported indicates no clipboard backend is available on this host.
	ErrUnsupported = errors.New("clipboard unsupported on this platform")

	// ErrWatchClosed indicates the platform stopped delivering change events.
	ErrWatchClosed = errors.New("clipboard watch closed")
)

// RawImage is an uncompressed RGBA pixel buffer as reported by the platform.
type RawImage struct {
	Width  int
	Height int
	Pix    []byte
}

// Snapshot is what the platform reported for one read of the clipboard.
type Snapshot struct {
	Text    string
	HasText bool
	Image   *RawImage
}

// Platform is the OS clipboard collaborator. ReadText and ReadImage are
// only called from the goroutine that runs WaitChange.
type Platform interface {
	Init() error
	ReadText() (string, error)
	ReadImage() (*RawImage, error)
	// WaitChange blocks until the clipboard content changes or ctx ends.
	WaitChange(ctx context.Context) error
}

// Classify normalizes a snapshot. Text wins over an image when the platform
// reports both, since most applications publish a text flavour on copy.
func Classify(s Snapshot) core.Content {
	if s.HasText && s.Text != "" {
		return core.Text(s.Text)
	}
	if s.Image != nil {
		return core.EncodeImage(s.Image.Width, s.Image.Height, s.Image.Pix)
	}
	return core.Empty{}
}
