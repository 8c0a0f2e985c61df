package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/shadowpaste/core"
)

// Key prefixes for different data types
const (
	entryPrefix     = "clip:"
	entryDatePrefix = "clipdate:"
	entryIDSeq      = "clipseq"
)

// makeEntryKey generates a key for an entry by ID.
// Format: prefix + big endian id
func makeEntryKey(id core.ID) []byte {
	buf := make([]byte, len(entryPrefix)+8)
	offset := copy(buf, entryPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeEntryDateKey generates a composite key for the capture-time index.
// Format: prefix + big endian unix micro + big endian id
func makeEntryDateKey(capturedAt time.Time, id core.ID) []byte {
	buf := make([]byte, len(entryDatePrefix)+16)
	offset := copy(buf, entryDatePrefix)
	// BigEndian so lexicographic key order matches chronological order
	binary.BigEndian.PutUint64(buf[offset:], uint64(capturedAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// idFromDateKey extracts the entry id from a date index key.
func idFromDateKey(key []byte) (core.ID, bool) {
	if len(key) != len(entryDatePrefix)+16 {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(entryDatePrefix)+8:])), true
}
