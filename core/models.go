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

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID identifies a persisted clipboard entry. Zero means the entry has not
// been written to storage yet.
type ID uint64

// Kind names a content variant. The string values double as the storage tag.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindEmpty Kind = "empty"
)

// Content is the closed set of things a clipboard can hold.
// Only Text, Image and Empty implement it.
type Content interface {
	Kind() Kind
	isContent()
}

// Text is a plain text clipboard item.
type Text string

// Image is a PNG image carried as a data URI (data:image/png;base64,...).
type Image string

// Empty means the clipboard held nothing, or nothing we could decode.
type Empty struct{}

func (Text) Kind() Kind  { return KindText }
func (Image) Kind() Kind { return KindImage }
func (Empty) Kind() Kind { return KindEmpty }

func (Text) isContent()  {}
func (Image) isContent() {}
func (Empty) isContent() {}

// KindOf returns the variant of c. A nil Content is Empty.
func KindOf(c Content) Kind {
	if c == nil {
		return KindEmpty
	}
	return c.Kind()
}

// Equal reports whether two contents are the same variant with byte-identical
// payloads. Two Empty values are always equal.
func Equal(a, b Content) bool {
	if KindOf(a) != KindOf(b) {
		return false
	}
	switch av := a.(type) {
	case Text:
		return av == b.(Text)
	case Image:
		return av == b.(Image)
	default:
		return true
	}
}

// Payload returns the string payload of c, or "" for Empty.
func Payload(c Content) string {
	switch v := c.(type) {
	case Text:
		return string(v)
	case Image:
		return string(v)
	default:
		return ""
	}
}

// Digest hashes the variant and payload of c with BLAKE2b into a 64-bit key.
// Identical content always produces the same digest.
func Digest(c Content) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(KindOf(c)))
	h.Write([]byte{0})
	h.Write([]byte(Payload(c)))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// Capture is one observed clipboard change, stamped when it was read.
type Capture struct {
	Content    Content
	CapturedAt time.Time
}

// Entry is a clipboard item in the history.
type Entry struct {
	ID         ID
	Content    Content
	CapturedAt time.Time
	Embedding  []float32 // nil when no vector has been computed
}

// Persisted reports whether the entry was assigned an id by storage.
func (e *Entry) Persisted() bool {
	return e != nil && e.ID != 0
}

// HasEmbedding reports whether the entry carries a vector.
func (e *Entry) HasEmbedding() bool {
	return e != nil && len(e.Embedding) > 0
}

// NewEntry builds an unpersisted entry from a capture.
func NewEntry(c Capture) *Entry {
	content := c.Content
	if content == nil {
		content = Empty{}
	}
	return &Entry{
		Content:    content,
		CapturedAt: c.CapturedAt,
	}
}
