package badger

import (
	"testing"
	"time"

	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 10, time.UTC)

	tests := []struct {
		name  string
		entry *core.Entry
	}{
		{"text with vector", &core.Entry{Content: core.Text("héllo"), CapturedAt: now, Embedding: []float32{1, -2, 3.5}}},
		{"image without vector", &core.Entry{Content: core.Image("data:image/png;base64,AAAA"), CapturedAt: now}},
		{"empty", &core.Entry{Content: core.Empty{}, CapturedAt: now}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := recordFromEntry(42, tt.entry)
			decoded, err := unmarshalRecord(marshalRecord(rec))
			require.NoError(t, err)
			assert.Equal(t, rec, decoded)

			got := decoded.entry()
			assert.Equal(t, core.ID(42), got.ID)
			assert.True(t, core.Equal(tt.entry.Content, got.Content))
			assert.True(t, now.Equal(got.CapturedAt))
			assert.Equal(t, tt.entry.Embedding, got.Embedding)
		})
	}
}

func TestUnmarshalRecord_Invalid(t *testing.T) {
	_, err := unmarshalRecord(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrSerializationFailed)

	data := marshalRecord(recordFromEntry(1, &core.Entry{Content: core.Text("abcdef"), CapturedAt: time.Now()}))
	_, err = unmarshalRecord(data[:len(data)/2])
	assert.Error(t, err)
}

func TestDateKeyOrdering(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := makeEntryDateKey(base, 9)
	later := makeEntryDateKey(base.Add(time.Microsecond), 1)
	assert.Less(t, string(earlier), string(later))

	sameTimeLowID := makeEntryDateKey(base, 1)
	sameTimeHighID := makeEntryDateKey(base, 2)
	assert.Less(t, string(sameTimeLowID), string(sameTimeHighID))

	id, ok := idFromDateKey(sameTimeHighID)
	require.True(t, ok)
	assert.Equal(t, core.ID(2), id)

	_, ok = idFromDateKey([]byte("short"))
	assert.False(t, ok)
}
