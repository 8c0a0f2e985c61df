package onnx

import (
	"github.com/daulet/tokenizers"
)

type tokenizer struct {
	tk *tokenizers.Tokenizer
}

func newTokenizer(path string) (*tokenizer, error) {
	tk, err := tokenizers.FromFile(path)
	if err != nil {
		return nil, err
	}
	return &tokenizer{tk: tk}, nil
}

// encode tokenizes text with special tokens and pads or truncates to maxLen.
func (t *tokenizer) encode(text string, maxLen int) ([]int64, []int64) {
	ids, _ := t.tk.Encode(text, true)
	return padTokens(ids, maxLen)
}

func (t *tokenizer) close() error {
	return t.tk.Close()
}

// padTokens copies ids into fixed-length input and attention mask slices.
func padTokens(ids []uint32, maxLen int) ([]int64, []int64) {
	inputIDs := make([]int64, maxLen)
	mask := make([]int64, maxLen)

	for i := 0; i < len(ids) && i < maxLen; i++ {
		inputIDs[i] = int64(ids[i])
		mask[i] = 1
	}
	return inputIDs, mask
}
