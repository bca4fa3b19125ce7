package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/memora/core"
)

// Key prefixes for different data types
const (
	memRecordPrefix         = "memrec"
	memRecordDatePrefix     = "memrecd"
	memRecordCategoryPrefix = "memrecc"
)

// makeMemoryKey generates a key for a memory record by ID.
func makeMemoryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", memRecordPrefix, id))
}

// makeMemoryDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeMemoryDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := memRecordDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialMemoryDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialMemoryDateKey(timestamp time.Time) []byte {
	prefix := memRecordDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for timestamp
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeMemoryCategoryKey generates a composite key for the category index.
// Format: prefix:category:timestamp:id
func makeMemoryCategoryKey(category core.Category, timestamp time.Time, id core.ID) []byte {
	prefix := memRecordCategoryPrefix + ":" + string(category) + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialMemoryCategoryKey generates a partial key for category queries.
// Format: prefix:category:
func makePartialMemoryCategoryKey(category core.Category) []byte {
	return []byte(memRecordCategoryPrefix + ":" + string(category) + ":")
}
