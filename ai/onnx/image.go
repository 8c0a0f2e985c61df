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
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/poiesic/shadowpaste/ai"
	"github.com/poiesic/shadowpaste/core"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	imageSize      = 224
	defaultPatches = 197 // 14x14 patches plus the class token
)

// CLIP-style channel statistics used by nomic-embed-vision.
var (
	channelMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	channelStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// ImageEmbedder runs a ViT vision tower and returns the normalized class
// token. The output space matches the companion text model.
type ImageEmbedder struct {
	mu        sync.Mutex
	dim       int
	session   *ort.AdvancedSession
	pixels    *ort.Tensor[float32]
	output    *ort.Tensor[float32]
	closeOnce sync.Once
}

var _ ai.ImageEmbedder = (*ImageEmbedder)(nil)

// NewImageEmbedder loads the vision model named by config.ImageModelPath.
func NewImageEmbedder(config *ai.Config) (*ImageEmbedder, error) {
	dim := config.Dimensions
	if dim == 0 {
		dim = defaultTextDim
	}
	if err := acquireRuntime(config.RuntimeLibraryPath); err != nil {
		return nil, err
	}

	e := &ImageEmbedder{dim: dim}
	if err := e.init(config.ImageModelPath); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *ImageEmbedder) init(modelPath string) error {
	var err error
	e.pixels, err = ort.NewTensor(ort.NewShape(1, 3, imageSize, imageSize), make([]float32, 3*imageSize*imageSize))
	if err != nil {
		return fmt.Errorf("create pixel tensor: %w", err)
	}
	e.output, err = ort.NewTensor(ort.NewShape(1, defaultPatches, int64(e.dim)), make([]float32, defaultPatches*e.dim))
	if err != nil {
		return fmt.Errorf("create output tensor: %w", err)
	}

	e.session, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"pixel_values"},
		[]string{"last_hidden_state"},
		[]ort.ArbitraryTensor{e.pixels},
		[]ort.ArbitraryTensor{e.output},
		nil,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// EmbedImage decodes data, resizes it to the model input and embeds it.
func (e *ImageEmbedder) EmbedImage(ctx context.Context, data []byte) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", core.ErrInvalidImage, err)
	}
	input := pixelValues(img)

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.pixels.GetData(), input)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	return ai.NormalizeVector(classToken(e.output.GetData(), e.dim)), nil
}

// Close destroys the session and tensors.
func (e *ImageEmbedder) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.session != nil {
			err = e.session.Destroy()
		}
		if e.pixels != nil {
			e.pixels.Destroy()
		}
		if e.output != nil {
			e.output.Destroy()
		}
		releaseRuntime()
	})
	return err
}

// pixelValues center-crops img to the model size and returns a CHW tensor
// normalized with the channel statistics.
func pixelValues(img image.Image) []float32 {
	fitted := imaging.Fill(img, imageSize, imageSize, imaging.Center, imaging.Lanczos)

	plane := imageSize * imageSize
	out := make([]float32, 3*plane)
	for y := 0; y < imageSize; y++ {
		for x := 0; x < imageSize; x++ {
			i := (y*fitted.Stride + x*4)
			idx := y*imageSize + x
			for c := 0; c < 3; c++ {
				v := float32(fitted.Pix[i+c]) / 255
				out[c*plane+idx] = (v - channelMean[c]) / channelStd[c]
			}
		}
	}
	return out
}

// classToken returns the first token of a [tokens, dim] hidden state.
func classToken(hidden []float32, dim int) []float32 {
	if len(hidden) < dim {
		return nil
	}
	out := make([]float32, dim)
	copy(out, hidden[:dim])
	return out
}
