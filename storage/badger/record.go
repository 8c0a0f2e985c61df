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

package badger

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/storage"
)

// record is the stored form of an entry. The layout mirrors the sqlite row:
// id, content tag, payload, capture time (fixed-width UTC string) and the
// little-endian embedding bytes.
type record struct {
	ID        uint64
	Tag       string
	Payload   string
	CopiedAt  string
	Embedding string
}

func recordFromEntry(id core.ID, e *core.Entry) record {
	tag, payload := storage.ContentTag(e.Content)
	return record{
		ID:        uint64(id),
		Tag:       tag,
		Payload:   payload,
		CopiedAt:  storage.FormatTime(e.CapturedAt),
		Embedding: string(storage.EncodeEmbedding(e.Embedding)),
	}
}

func (r record) entry() *core.Entry {
	return &core.Entry{
		ID:         core.ID(r.ID),
		Content:    storage.ContentFromTag(r.Tag, r.Payload),
		CapturedAt: storage.ParseTime(r.CopiedAt),
		Embedding:  storage.DecodeEmbedding([]byte(r.Embedding)),
	}
}

// marshalRecord serializes a record with MUS.
func marshalRecord(r record) []byte {
	size := varint.Uint64.Size(r.ID) +
		ord.String.Size(r.Tag) +
		ord.String.Size(r.Payload) +
		ord.String.Size(r.CopiedAt) +
		ord.String.Size(r.Embedding)
	buf := make([]byte, size)
	n := varint.Uint64.Marshal(r.ID, buf)
	n += ord.String.Marshal(r.Tag, buf[n:])
	n += ord.String.Marshal(r.Payload, buf[n:])
	n += ord.String.Marshal(r.CopiedAt, buf[n:])
	ord.String.Marshal(r.Embedding, buf[n:])
	return buf
}

// unmarshalRecord deserializes a record written by marshalRecord.
func unmarshalRecord(data []byte) (r record, err error) {
	var n, read int
	if r.ID, read, err = varint.Uint64.Unmarshal(data); err != nil {
		return r, fmt.Errorf("%w: id: %w", storage.ErrSerializationFailed, err)
	}
	n += read
	fields := []*string{&r.Tag, &r.Payload, &r.CopiedAt, &r.Embedding}
	for _, field := range fields {
		if n > len(data) {
			return r, storage.ErrTruncatedData
		}
		if *field, read, err = ord.String.Unmarshal(data[n:]); err != nil {
			return r, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
		n += read
	}
	return r, nil
}
