package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorCache(t *testing.T) {
	c, err := newVectorCache(2)
	require.NoError(t, err)

	k1 := cacheKey(purposeDocument, "a")
	k2 := cacheKey(purposeDocument, "b")
	k3 := cacheKey(purposeDocument, "c")

	c.add(k1, []float32{1})
	c.add(k2, []float32{2})
	c.add(k3, []float32{3})

	_, ok := c.get(k1)
	assert.False(t, ok, "oldest entry should be evicted")
	v, ok := c.get(k3)
	require.True(t, ok)
	assert.Equal(t, []float32{3}, v)
	assert.Equal(t, 2, c.len())
}

func TestVectorCache_Disabled(t *testing.T) {
	c, err := newVectorCache(0)
	require.NoError(t, err)
	assert.Nil(t, c)

	c.add(1, []float32{1})
	_, ok := c.get(1)
	assert.False(t, ok)
	assert.Zero(t, c.len())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey(purposeQuery, "x"), cacheKey(purposeQuery, "x"))
	assert.NotEqual(t, cacheKey(purposeQuery, "x"), cacheKey(purposeDocument, "x"))
	assert.NotEqual(t, cacheKey(purposeQuery, "x"), cacheKey(purposeQuery, "y"))
}
