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

// Package storagetest holds the behaviour every storage.HistoryRepository
// implementation must share. Backend tests call Run with their own factory.
package storagetest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory opens a fresh, empty repository. The suite closes it.
type Factory func(t *testing.T) storage.HistoryRepository

// Run executes the shared repository tests.
func Run(t *testing.T, open Factory) {
	t.Run("insert then load round trip", func(t *testing.T) {
		testRoundTrip(t, open(t))
	})
	t.Run("ids are unique and non-zero", func(t *testing.T) {
		testIDs(t, open(t))
	})
	t.Run("load orders by capture time", func(t *testing.T) {
		testOrdering(t, open(t))
	})
	t.Run("delete", func(t *testing.T) {
		testDelete(t, open(t))
	})
	t.Run("update embedding", func(t *testing.T) {
		testUpdateEmbedding(t, open(t))
	})
	t.Run("invalid entry rejected", func(t *testing.T) {
		testInvalid(t, open(t))
	})
	t.Run("closed repository", func(t *testing.T) {
		testClosed(t, open(t))
	})
}

func testRoundTrip(t *testing.T, repo storage.HistoryRepository) {
	defer repo.Close()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 123456000, time.UTC)

	entries := []*core.Entry{
		{Content: core.Text("hello world"), CapturedAt: base, Embedding: []float32{0.25, -1.5, float32(math.Inf(1))}},
		{Content: core.Image("data:image/png;base64,iVBORw0KGgo="), CapturedAt: base.Add(time.Second), Embedding: []float32{1, 2, 3, 4}},
		{Content: core.Empty{}, CapturedAt: base.Add(2 * time.Second)},
		{Content: core.Text("no vector"), CapturedAt: base.Add(3 * time.Second)},
	}
	for _, e := range entries {
		id, err := repo.Insert(ctx, e)
		require.NoError(t, err)
		e.ID = id
	}

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, len(entries))

	for i, want := range entries {
		got := loaded[i]
		assert.Equal(t, want.ID, got.ID)
		assert.True(t, core.Equal(want.Content, got.Content), "content %d", i)
		assert.True(t, want.CapturedAt.Equal(got.CapturedAt), "timestamp %d", i)
		if want.Embedding == nil {
			assert.Nil(t, got.Embedding)
			continue
		}
		require.Len(t, got.Embedding, len(want.Embedding))
		for j := range want.Embedding {
			assert.Equal(t, math.Float32bits(want.Embedding[j]), math.Float32bits(got.Embedding[j]))
		}
	}
}

func testIDs(t *testing.T, repo storage.HistoryRepository) {
	defer repo.Close()
	ctx := context.Background()

	seen := make(map[core.ID]bool)
	for i := 0; i < 20; i++ {
		id, err := repo.Insert(ctx, &core.Entry{Content: core.Text("x"), CapturedAt: time.Now()})
		require.NoError(t, err)
		assert.NotZero(t, id)
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}

func testOrdering(t *testing.T, repo storage.HistoryRepository) {
	defer repo.Close()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Inserted out of chronological order.
	offsets := []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour, 0}
	for i, off := range offsets {
		_, err := repo.Insert(ctx, &core.Entry{
			Content:    core.Text(string(rune('a' + i))),
			CapturedAt: base.Add(off),
		})
		require.NoError(t, err)
	}

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 4)
	for i := 1; i < len(loaded); i++ {
		assert.False(t, loaded[i].CapturedAt.Before(loaded[i-1].CapturedAt))
	}
	assert.Equal(t, core.Text("d"), loaded[0].Content)
	assert.Equal(t, core.Text("a"), loaded[3].Content)
}

func testDelete(t *testing.T, repo storage.HistoryRepository) {
	defer repo.Close()
	ctx := context.Background()

	keep, err := repo.Insert(ctx, &core.Entry{Content: core.Text("keep"), CapturedAt: time.Now()})
	require.NoError(t, err)
	drop, err := repo.Insert(ctx, &core.Entry{Content: core.Text("drop"), CapturedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, drop))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, keep, loaded[0].ID)

	t.Run("missing id is a no-op", func(t *testing.T) {
		require.NoError(t, repo.DeleteByID(ctx, drop))
		require.NoError(t, repo.DeleteByID(ctx, core.ID(987654)))

		loaded, err := repo.LoadAll(ctx)
		require.NoError(t, err)
		assert.Len(t, loaded, 1)
	})
}

func testUpdateEmbedding(t *testing.T, repo storage.HistoryRepository) {
	defer repo.Close()
	ctx := context.Background()

	id, err := repo.Insert(ctx, &core.Entry{Content: core.Text("later"), CapturedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateEmbedding(ctx, id, []float32{0.5, 0.5}))
	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, []float32{0.5, 0.5}, loaded[0].Embedding)

	require.NoError(t, repo.UpdateEmbedding(ctx, id, nil))
	loaded, err = repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded[0].Embedding)
}

func testInvalid(t *testing.T, repo storage.HistoryRepository) {
	defer repo.Close()

	_, err := repo.Insert(context.Background(), &core.Entry{Content: core.Text("no time")})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrInvalidEntry)
	assert.True(t, storage.IsStorageError(err))
}

func testClosed(t *testing.T, repo storage.HistoryRepository) {
	require.NoError(t, repo.Close())

	_, err := repo.LoadAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrClosed)
	assert.True(t, storage.IsStorageError(err))
}
