package storage

import (
	"context"
	"time"

	"github.com/poiesic/memora/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// MemoryRepository provides operations for managing memory records.
type MemoryRepository interface {
	Repository
	// AddMemories adds one or more memory records to storage.
	// For records with Id=0, derives the content ID from the masked text.
	// Sets InsertedAt timestamp if not already set.
	// Returns the records with IDs and timestamps populated.
	AddMemories(ctx context.Context, records ...*core.MemoryRecord) ([]*core.MemoryRecord, error)

	// UpdateMemories updates existing memory records.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any record doesn't exist.
	UpdateMemories(ctx context.Context, records ...*core.MemoryRecord) ([]*core.MemoryRecord, error)

	// DeleteMemories removes memory records by their IDs.
	// Also removes associated indices.
	// Returns ErrNotFound if any record doesn't exist.
	DeleteMemories(ctx context.Context, ids ...core.ID) error

	// GetMemory retrieves a single memory record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetMemory(ctx context.Context, id core.ID) (*core.MemoryRecord, error)

	// GetMemories retrieves multiple memory records by their IDs.
	// Returns only the records that exist (no error for missing records).
	GetMemories(ctx context.Context, ids ...core.ID) ([]*core.MemoryRecord, error)

	// GetMemoriesByDateRange retrieves memory records within a time range.
	// Returns records where start <= Timestamp < end, ordered by timestamp.
	GetMemoriesByDateRange(ctx context.Context, start, end time.Time) ([]*core.MemoryRecord, error)

	// ListMemories retrieves all memory records ordered by timestamp descending.
	// Retrieval scores every stored record, so a full scan is the common path.
	ListMemories(ctx context.Context) ([]*core.MemoryRecord, error)

	// ListMemoriesByCategory retrieves all records in a category,
	// ordered by timestamp descending.
	ListMemoriesByCategory(ctx context.Context, category core.Category) ([]*core.MemoryRecord, error)
}
