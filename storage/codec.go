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

package storage

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/poiesic/shadowpaste/core"
)

// TimeLayout is the on-disk timestamp format. It is fixed width and UTC so
// that lexical order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// ContentTag splits content into its storage tag and payload.
func ContentTag(c core.Content) (string, string) {
	return string(core.KindOf(c)), core.Payload(c)
}

// ContentFromTag rebuilds content from a storage tag and payload.
// Unknown tags decode as Empty.
func ContentFromTag(tag, payload string) core.Content {
	switch core.Kind(tag) {
	case core.KindText:
		return core.Text(payload)
	case core.KindImage:
		return core.Image(payload)
	default:
		return core.Empty{}
	}
}

// FormatTime renders t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a stored timestamp and converts it to local time.
// Values in RFC 3339 are accepted too. Anything unparseable becomes the
// current time so a corrupt row never hides the rest of the history.
func ParseTime(s string) time.Time {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t.Local()
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.Local()
	}
	return time.Now()
}

// EncodeEmbedding packs a vector as consecutive little-endian float32 words.
// A nil vector encodes as nil.
func EncodeEmbedding(v []float32) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeEmbedding unpacks a vector written by EncodeEmbedding.
// Trailing bytes that do not make up a full word are dropped.
func DecodeEmbedding(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
