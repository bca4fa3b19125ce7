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

package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/memora/core"
)

// Times are stored as Unix microseconds, matching the precision the rest of
// the system uses for timestamps.

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// MarshalMemoryRecord serializes a MemoryRecord to bytes.
func MarshalMemoryRecord(record *core.MemoryRecord) []byte {
	buf := make([]byte, sizeMemoryRecord(record))
	n := varint.Uint64.Marshal(uint64(record.Id), buf)
	n += ord.String.Marshal(record.Title, buf[n:])
	n += ord.String.Marshal(record.Summary, buf[n:])
	n += ord.String.Marshal(record.OriginalText, buf[n:])
	n += ord.String.Marshal(record.MaskedText, buf[n:])
	n += ord.String.Marshal(string(record.Category), buf[n:])
	n += varint.Int.Marshal(record.Importance, buf[n:])
	n += marshalEntities(record.Entities, buf[n:])
	n += marshalStrings(record.PrivacyAlerts, buf[n:])
	n += ord.String.Marshal(record.ImageURL, buf[n:])
	n += marshalTime(record.Timestamp, buf[n:])
	n += marshalTime(record.InsertedAt, buf[n:])
	n += marshalTime(record.UpdatedAt, buf[n:])
	marshalVector(record.Embedding, buf[n:])
	return buf
}

// UnmarshalMemoryRecord deserializes a MemoryRecord from bytes.
func UnmarshalMemoryRecord(data []byte) (record *core.MemoryRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
	}()

	record = &core.MemoryRecord{}
	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	record.Id = core.ID(id)

	for _, field := range []*string{&record.Title, &record.Summary, &record.OriginalText, &record.MaskedText} {
		var m int
		*field, m, err = ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, err
		}
		n += m
	}

	category, m, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}
	record.Category = core.Category(category)
	n += m

	record.Importance, m, err = varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}
	n += m

	record.Entities, m, err = unmarshalEntities(data[n:])
	if err != nil {
		return nil, err
	}
	n += m

	record.PrivacyAlerts, m, err = unmarshalStrings(data[n:])
	if err != nil {
		return nil, err
	}
	n += m

	record.ImageURL, m, err = ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}
	n += m

	for _, field := range []*time.Time{&record.Timestamp, &record.InsertedAt, &record.UpdatedAt} {
		*field, m, err = unmarshalTime(data[n:])
		if err != nil {
			return nil, err
		}
		n += m
	}

	record.Embedding, _, err = unmarshalVector(data[n:])
	if err != nil {
		return nil, err
	}
	return record, nil
}

func sizeMemoryRecord(record *core.MemoryRecord) int {
	size := varint.Uint64.Size(uint64(record.Id))
	size += ord.String.Size(record.Title)
	size += ord.String.Size(record.Summary)
	size += ord.String.Size(record.OriginalText)
	size += ord.String.Size(record.MaskedText)
	size += ord.String.Size(string(record.Category))
	size += varint.Int.Size(record.Importance)
	size += sizeEntities(record.Entities)
	size += sizeStrings(record.PrivacyAlerts)
	size += ord.String.Size(record.ImageURL)
	size += sizeTime(record.Timestamp) + sizeTime(record.InsertedAt) + sizeTime(record.UpdatedAt)
	size += sizeVector(record.Embedding)
	return size
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalTime(t time.Time, buf []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), buf)
}

func unmarshalTime(data []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(data)
	if err != nil {
		return time.Time{}, 0, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeVector(vector []float32) int {
	size := varint.Int.Size(len(vector))
	for _, v := range vector {
		size += varint.Uint32.Size(math.Float32bits(v))
	}
	return size
}

func marshalVector(vector []float32, buf []byte) int {
	n := varint.Int.Marshal(len(vector), buf)
	for _, v := range vector {
		n += varint.Uint32.Marshal(math.Float32bits(v), buf[n:])
	}
	return n
}

func unmarshalVector(data []byte) ([]float32, int, error) {
	count, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, 0, err
	}
	if count < 0 || count > len(data)-n {
		return nil, 0, ErrTruncatedData
	}
	if count == 0 {
		return nil, n, nil
	}
	vector := make([]float32, count)
	for i := range vector {
		bits, m, err := varint.Uint32.Unmarshal(data[n:])
		if err != nil {
			return nil, 0, err
		}
		vector[i] = math.Float32frombits(bits)
		n += m
	}
	return vector, n, nil
}

func sizeStrings(values []string) int {
	size := varint.Int.Size(len(values))
	for _, v := range values {
		size += ord.String.Size(v)
	}
	return size
}

func marshalStrings(values []string, buf []byte) int {
	n := varint.Int.Marshal(len(values), buf)
	for _, v := range values {
		n += ord.String.Marshal(v, buf[n:])
	}
	return n
}

func unmarshalStrings(data []byte) ([]string, int, error) {
	count, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, 0, err
	}
	if count < 0 || count > len(data)-n {
		return nil, 0, ErrTruncatedData
	}
	if count == 0 {
		return nil, n, nil
	}
	values := make([]string, count)
	for i := range values {
		v, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, 0, err
		}
		values[i] = v
		n += m
	}
	return values, n, nil
}

func sizeEntities(entities []core.Entity) int {
	size := varint.Int.Size(len(entities))
	for _, e := range entities {
		size += ord.String.Size(e.Name) + ord.String.Size(e.Kind)
	}
	return size
}

func marshalEntities(entities []core.Entity, buf []byte) int {
	n := varint.Int.Marshal(len(entities), buf)
	for _, e := range entities {
		n += ord.String.Marshal(e.Name, buf[n:])
		n += ord.String.Marshal(e.Kind, buf[n:])
	}
	return n
}

func unmarshalEntities(data []byte) ([]core.Entity, int, error) {
	count, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, 0, err
	}
	if count < 0 || count > len(data)-n {
		return nil, 0, ErrTruncatedData
	}
	if count == 0 {
		return nil, n, nil
	}
	entities := make([]core.Entity, count)
	for i := range entities {
		name, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, 0, err
		}
		n += m
		kind, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, 0, err
		}
		n += m
		entities[i] = core.Entity{Name: name, Kind: kind}
	}
	return entities, n, nil
}
