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
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/shadowpaste/ai"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	defaultSeqLen  = 256
	defaultTextDim = 768
)

// TextEmbedder runs a BERT-style sentence model (e.g. nomic-embed-text) with
// mean pooling over the attention mask.
type TextEmbedder struct {
	mu            sync.Mutex
	config        *ai.Config
	seqLen        int
	dim           int
	session       *ort.AdvancedSession
	tokenizer     *tokenizer
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
	closeOnce     sync.Once
}

var _ ai.TextEmbedder = (*TextEmbedder)(nil)

// NewTextEmbedder loads the model and tokenizer named by config.
func NewTextEmbedder(config *ai.Config) (*TextEmbedder, error) {
	dim := config.Dimensions
	if dim == 0 {
		dim = defaultTextDim
	}
	seqLen := defaultSeqLen

	if err := acquireRuntime(config.RuntimeLibraryPath); err != nil {
		return nil, err
	}

	e := &TextEmbedder{config: config, seqLen: seqLen, dim: dim}
	if err := e.init(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *TextEmbedder) init() error {
	var err error
	if e.inputIDs, err = ort.NewTensor(ort.NewShape(1, int64(e.seqLen)), make([]int64, e.seqLen)); err != nil {
		return fmt.Errorf("create input tensor: %w", err)
	}
	if e.attentionMask, err = ort.NewTensor(ort.NewShape(1, int64(e.seqLen)), make([]int64, e.seqLen)); err != nil {
		return fmt.Errorf("create attention tensor: %w", err)
	}
	if e.tokenTypeIDs, err = ort.NewTensor(ort.NewShape(1, int64(e.seqLen)), make([]int64, e.seqLen)); err != nil {
		return fmt.Errorf("create token type tensor: %w", err)
	}
	if e.output, err = ort.NewTensor(ort.NewShape(1, int64(e.seqLen), int64(e.dim)), make([]float32, e.seqLen*e.dim)); err != nil {
		return fmt.Errorf("create output tensor: %w", err)
	}

	e.session, err = ort.NewAdvancedSession(
		e.config.TextModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		[]ort.ArbitraryTensor{e.inputIDs, e.attentionMask, e.tokenTypeIDs},
		[]ort.ArbitraryTensor{e.output},
		nil,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	if e.tokenizer, err = newTokenizer(e.config.TokenizerPath); err != nil {
		return fmt.Errorf("load tokenizer: %w", err)
	}
	return nil
}

// EmbedDocument embeds clipboard text with the document prefix.
func (e *TextEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, e.config.Document(text))
}

// EmbedQuery embeds a search query with the query prefix.
func (e *TextEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, e.config.Query(text))
}

// EmbedDocuments embeds texts one at a time through the fixed-shape session.
func (e *TextEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.EmbedDocument(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *TextEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	inputIDs, mask := e.tokenizer.encode(text, e.seqLen)
	copy(e.inputIDs.GetData(), inputIDs)
	copy(e.attentionMask.GetData(), mask)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	return ai.NormalizeVector(meanPooling(e.output.GetData(), mask, e.seqLen, e.dim)), nil
}

// Close destroys the session and tensors.
func (e *TextEmbedder) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.session != nil {
			err = e.session.Destroy()
		}
		destroyTensor(e.inputIDs)
		destroyTensor(e.attentionMask)
		destroyTensor(e.tokenTypeIDs)
		if e.output != nil {
			e.output.Destroy()
		}
		if e.tokenizer != nil {
			e.tokenizer.close()
		}
		releaseRuntime()
	})
	return err
}

func destroyTensor(t *ort.Tensor[int64]) {
	if t != nil {
		t.Destroy()
	}
}

// meanPooling averages token embeddings where the mask is set.
func meanPooling(output []float32, mask []int64, seqLen, dim int) []float32 {
	embedding := make([]float32, dim)
	count := float32(0)

	for i := 0; i < seqLen; i++ {
		if mask[i] == 0 {
			continue
		}
		count++
		for j := 0; j < dim; j++ {
			embedding[j] += output[i*dim+j]
		}
	}
	if count == 0 {
		return embedding
	}

	for j := range embedding {
		embedding[j] /= count
	}
	return embedding
}
