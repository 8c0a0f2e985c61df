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
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// PNGDataURIPrefix prefixes every Image payload.
const PNGDataURIPrefix = "data:image/png;base64,"

// EncodeImage converts raw RGBA pixels into an Image content.
// Any mismatch between the dimensions and the pixel buffer, or an encoding
// failure, yields Empty.
func EncodeImage(width, height int, pix []byte) Content {
	if width <= 0 || height <= 0 || len(pix) != width*height*4 {
		return Empty{}
	}
	img := &image.NRGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Empty{}
	}
	return Image(PNGDataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()))
}

// DecodeDataURI returns the PNG bytes carried by an Image.
func DecodeDataURI(img Image) ([]byte, error) {
	payload, ok := strings.CutPrefix(string(img), PNGDataURIPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: missing png data uri prefix", ErrInvalidImage)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	return data, nil
}

// DecodeImage parses an Image back into pixels.
func DecodeImage(img Image) (image.Image, error) {
	data, err := DecodeDataURI(img)
	if err != nil {
		return nil, err
	}
	decoded, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	return decoded, nil
}
