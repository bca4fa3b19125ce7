package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/memora/core"
	"github.com/poiesic/memora/storage"
)

// MemoryRepository implements storage.MemoryRepository for BadgerDB.
type MemoryRepository struct {
	backend     *Backend
	ownsBackend bool
}

var _ storage.MemoryRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a new MemoryRepository on an existing backend.
func NewMemoryRepository(backend *Backend) (storage.MemoryRepository, error) {
	return &MemoryRepository{backend: backend}, nil
}

// NewRepository opens a BadgerDB database at path and returns a repository
// that owns the backend. Closing the repository closes the database.
func NewRepository(path string) (storage.MemoryRepository, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return &MemoryRepository{backend: backend, ownsBackend: true}, nil
}

// Close closes the owned backend, if any.
func (r *MemoryRepository) Close() error {
	if r.ownsBackend {
		return r.backend.Close()
	}
	return nil
}

// WithTransaction delegates to the backend.
func (r *MemoryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddMemories adds one or more memory records to storage.
// Records with Id=0 get a content-based ID from the masked text, so
// resubmitting the same text overwrites the earlier record instead of
// duplicating it.
func (r *MemoryRepository) AddMemories(ctx context.Context, records ...*core.MemoryRecord) ([]*core.MemoryRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record.Id == 0 {
				record.Id = contentID(record)
			}

			now := time.Now().UTC()
			if record.Timestamp.IsZero() {
				record.Timestamp = now
			}
			if record.InsertedAt.IsZero() {
				record.InsertedAt = now
			}
			record.UpdatedAt = now

			key := makeMemoryKey(record.Id)

			// Resubmission of the same content replaces the record, so the
			// old index entries have to go first.
			old, err := r.readMemoryRecord(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				if err := r.deleteIndexes(tx, old); err != nil {
					return err
				}
			}

			if err := tx.Set(key, storage.MarshalMemoryRecord(record)); err != nil {
				return err
			}
			if err := r.writeIndexes(tx, record); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// UpdateMemories updates existing memory records.
func (r *MemoryRepository) UpdateMemories(ctx context.Context, records ...*core.MemoryRecord) ([]*core.MemoryRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeMemoryKey(record.Id)

			old, err := r.readMemoryRecord(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			record.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, storage.MarshalMemoryRecord(record)); err != nil {
				return err
			}

			// Indexes key on timestamp and category, so rewrite them when
			// either changed.
			if !old.Timestamp.Equal(record.Timestamp) || old.Category != record.Category {
				if err := r.deleteIndexes(tx, old); err != nil {
					return err
				}
				if err := r.writeIndexes(tx, record); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// DeleteMemories removes memory records by their IDs.
func (r *MemoryRepository) DeleteMemories(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeMemoryKey(id)

			record, err := r.readMemoryRecord(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return storage.ErrNotFound
			}

			if err := r.deleteIndexes(tx, record); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetMemory retrieves a single memory record by ID.
func (r *MemoryRepository) GetMemory(ctx context.Context, id core.ID) (*core.MemoryRecord, error) {
	var result *core.MemoryRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMemoryKey(id)
		var err error
		result, err = r.readMemoryRecord(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetMemories retrieves multiple memory records by their IDs.
func (r *MemoryRepository) GetMemories(ctx context.Context, ids ...core.ID) ([]*core.MemoryRecord, error) {
	var result []*core.MemoryRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeMemoryKey(id)
			record, err := r.readMemoryRecord(tx, key)
			if err != nil {
				return err
			}
			if record != nil {
				result = append(result, record)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetMemoriesByDateRange retrieves memory records within a time range.
func (r *MemoryRepository) GetMemoriesByDateRange(ctx context.Context, start, end time.Time) ([]*core.MemoryRecord, error) {
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.MemoryRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialMemoryDateKey(start)
		endKey := makePartialMemoryDateKey(end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) > 0 {
				break
			}

			record, err := r.readIndexedRecord(tx, iter.Item())
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)

	return results, err
}

// ListMemories retrieves all memory records ordered by timestamp descending.
func (r *MemoryRepository) ListMemories(ctx context.Context) ([]*core.MemoryRecord, error) {
	var results []*core.MemoryRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible date index key, then walk backwards.
		startKey := makePartialMemoryDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(memRecordDatePrefix + ":")

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			record, err := r.readIndexedRecord(tx, iter.Item())
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)

	return results, err
}

// ListMemoriesByCategory retrieves all records in a category,
// ordered by timestamp descending.
func (r *MemoryRepository) ListMemoriesByCategory(ctx context.Context, category core.Category) ([]*core.MemoryRecord, error) {
	var results []*core.MemoryRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialMemoryCategoryKey(category)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			record, err := r.readIndexedRecord(tx, iter.Item())
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// The category index sorts ascending by timestamp.
	slices.Reverse(results)
	return results, nil
}

// Helper methods

// readMemoryRecord reads a memory record from the transaction.
func (r *MemoryRepository) readMemoryRecord(tx *badger.Txn, key []byte) (*core.MemoryRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.MemoryRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalMemoryRecord(val)
		return unmarshalErr
	})
	return record, err
}

// readIndexedRecord resolves an index entry to the full record it points at.
func (r *MemoryRepository) readIndexedRecord(tx *badger.Txn, item *badger.Item) (*core.MemoryRecord, error) {
	var recordID core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		recordID, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return nil, err
	}
	return r.readMemoryRecord(tx, makeMemoryKey(recordID))
}

// writeIndexes adds date and category index entries for a record.
func (r *MemoryRepository) writeIndexes(tx *badger.Txn, record *core.MemoryRecord) error {
	idBytes := storage.MarshalID(record.Id)
	dateKey := makeMemoryDateKey(record.Timestamp, record.Id)
	if err := tx.Set(dateKey, idBytes); err != nil {
		return err
	}
	categoryKey := makeMemoryCategoryKey(record.Category, record.Timestamp, record.Id)
	return tx.Set(categoryKey, idBytes)
}

// deleteIndexes removes date and category index entries for a record.
func (r *MemoryRepository) deleteIndexes(tx *badger.Txn, record *core.MemoryRecord) error {
	dateKey := makeMemoryDateKey(record.Timestamp, record.Id)
	if err := tx.Delete(dateKey); err != nil {
		return err
	}
	categoryKey := makeMemoryCategoryKey(record.Category, record.Timestamp, record.Id)
	return tx.Delete(categoryKey)
}

// contentID derives the record ID from its text content.
func contentID(record *core.MemoryRecord) core.ID {
	text := record.MaskedText
	if text == "" {
		text = record.OriginalText
	}
	return core.IDFromContent(text)
}
