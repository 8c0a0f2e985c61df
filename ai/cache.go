package ai

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
	lru "github.com/hashicorp/golang-lru/v2"
)

// purpose separates cache entries that share a payload, e.g. the same text
// embedded as a document and as a query.
type purpose byte

const (
	purposeDocument purpose = iota + 1
	purposeQuery
	purposeImage
)

// vectorCache memoises vectors by a BLAKE2b digest of purpose and payload.
// A nil *vectorCache is a valid, always-missing cache.
type vectorCache struct {
	lru *lru.Cache[uint64, []float32]
}

func newVectorCache(size int) (*vectorCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[uint64, []float32](size)
	if err != nil {
		return nil, err
	}
	return &vectorCache{lru: c}, nil
}

func cacheKey(p purpose, payload string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte{byte(p)})
	h.Write([]byte(payload))
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

func (c *vectorCache) get(key uint64) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(key)
}

func (c *vectorCache) add(key uint64, vec []float32) {
	if c == nil {
		return
	}
	c.lru.Add(key, vec)
}

func (c *vectorCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
