package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/memora/core"
	"github.com/poiesic/memora/storage"
)

func newTestRecord(text string, ts time.Time) *core.MemoryRecord {
	return &core.MemoryRecord{
		Title:        text,
		Summary:      text,
		OriginalText: text,
		MaskedText:   text,
		Category:     core.CategoryOther,
		Importance:   5,
		Timestamp:    ts,
	}
}

func TestMemoryRecordBasics(t *testing.T) {
	repo, backend, err := NewTestRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	record := newTestRecord("Dentist appointment on Friday", time.Now().UTC())

	added, err := repo.AddMemories(ctx, record)
	if err != nil {
		t.Fatalf("Failed to add memory record: %v", err)
	}

	if len(added) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(added))
	}

	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	if added[0].InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	retrieved, err := repo.GetMemory(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get memory record: %v", err)
	}

	if retrieved.OriginalText != "Dentist appointment on Friday" {
		t.Fatalf("Unexpected text: %q", retrieved.OriginalText)
	}
}

func TestContentIDIdempotency(t *testing.T) {
	repo, backend, err := NewTestRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()

	first, err := repo.AddMemories(ctx, newTestRecord("Same content twice", now))
	if err != nil {
		t.Fatalf("Failed to add first record: %v", err)
	}

	second, err := repo.AddMemories(ctx, newTestRecord("Same content twice", now.Add(time.Minute)))
	if err != nil {
		t.Fatalf("Failed to add second record: %v", err)
	}

	if first[0].Id != second[0].Id {
		t.Fatalf("Expected same ID for same content, got %d and %d", first[0].Id, second[0].Id)
	}

	all, err := repo.ListMemories(ctx)
	if err != nil {
		t.Fatalf("Failed to list memories: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Expected 1 record after resubmission, got %d", len(all))
	}
}

func TestMemoryRecordNotFound(t *testing.T) {
	repo, backend, err := NewTestRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = repo.GetMemory(ctx, core.ID(12345))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	err = repo.DeleteMemories(ctx, core.ID(12345))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on delete, got %v", err)
	}

	_, err = repo.UpdateMemories(ctx, &core.MemoryRecord{Id: core.ID(12345)})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on update, got %v", err)
	}
}

func TestMemoryDateRange(t *testing.T) {
	repo, backend, err := NewTestRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()

	records := []*core.MemoryRecord{
		newTestRecord("Memory 1", now.Add(-2*time.Hour)),
		newTestRecord("Memory 2", now.Add(-1*time.Hour)),
		newTestRecord("Memory 3", now),
	}

	if _, err := repo.AddMemories(ctx, records...); err != nil {
		t.Fatalf("Failed to add memory records: %v", err)
	}

	start := now.Add(-90 * time.Minute)
	end := now.Add(1 * time.Minute)

	results, err := repo.GetMemoriesByDateRange(ctx, start, end)
	if err != nil {
		t.Fatalf("Failed to get records by date range: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(results))
	}
}

func TestListMemoriesNewestFirst(t *testing.T) {
	repo, backend, err := NewTestRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()

	records := []*core.MemoryRecord{
		newTestRecord("Oldest", now.Add(-3*time.Hour)),
		newTestRecord("Middle", now.Add(-2*time.Hour)),
		newTestRecord("Newest", now.Add(-1*time.Hour)),
	}

	if _, err := repo.AddMemories(ctx, records...); err != nil {
		t.Fatalf("Failed to add memory records: %v", err)
	}

	results, err := repo.ListMemories(ctx)
	if err != nil {
		t.Fatalf("Failed to list memories: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(results))
	}
	if results[0].OriginalText != "Newest" {
		t.Fatalf("Expected newest record first, got %q", results[0].OriginalText)
	}
	if results[2].OriginalText != "Oldest" {
		t.Fatalf("Expected oldest record last, got %q", results[2].OriginalText)
	}
}

func TestListMemoriesByCategory(t *testing.T) {
	repo, backend, err := NewTestRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()

	health := newTestRecord("Dentist on Friday", now.Add(-2*time.Hour))
	health.Category = core.CategoryHealth
	finance := newTestRecord("Paid the electric bill", now.Add(-1*time.Hour))
	finance.Category = core.CategoryFinance
	health2 := newTestRecord("Refill prescription", now)
	health2.Category = core.CategoryHealth

	if _, err := repo.AddMemories(ctx, health, finance, health2); err != nil {
		t.Fatalf("Failed to add memory records: %v", err)
	}

	results, err := repo.ListMemoriesByCategory(ctx, core.CategoryHealth)
	if err != nil {
		t.Fatalf("Failed to list by category: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 health records, got %d", len(results))
	}
	if results[0].OriginalText != "Refill prescription" {
		t.Fatalf("Expected newest health record first, got %q", results[0].OriginalText)
	}
}

func TestUpdateMemoryReindexes(t *testing.T) {
	repo, backend, err := NewTestRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()

	added, err := repo.AddMemories(ctx, newTestRecord("Move me", now))
	if err != nil {
		t.Fatalf("Failed to add record: %v", err)
	}

	record := added[0]
	record.Category = core.CategoryPersonal
	record.Timestamp = now.Add(-24 * time.Hour)

	if _, err := repo.UpdateMemories(ctx, record); err != nil {
		t.Fatalf("Failed to update record: %v", err)
	}

	other, err := repo.ListMemoriesByCategory(ctx, core.CategoryOther)
	if err != nil {
		t.Fatalf("Failed to list old category: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("Expected old category index to be empty, got %d records", len(other))
	}

	personal, err := repo.ListMemoriesByCategory(ctx, core.CategoryPersonal)
	if err != nil {
		t.Fatalf("Failed to list new category: %v", err)
	}
	if len(personal) != 1 {
		t.Fatalf("Expected 1 record in new category, got %d", len(personal))
	}
}

func TestDeleteMemoryCleansIndexes(t *testing.T) {
	repo, backend, err := NewTestRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := repo.AddMemories(ctx, newTestRecord("Delete me", time.Now().UTC()))
	if err != nil {
		t.Fatalf("Failed to add record: %v", err)
	}

	if err := repo.DeleteMemories(ctx, added[0].Id); err != nil {
		t.Fatalf("Failed to delete record: %v", err)
	}

	all, err := repo.ListMemories(ctx)
	if err != nil {
		t.Fatalf("Failed to list memories: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("Expected no records after delete, got %d", len(all))
	}
}

func TestEmbeddingPersistence(t *testing.T) {
	repo, backend, err := NewTestRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	record := newTestRecord("Has an embedding", time.Now().UTC())
	record.Embedding = []float32{0.5, -0.25, 0.125}

	added, err := repo.AddMemories(ctx, record)
	if err != nil {
		t.Fatalf("Failed to add record: %v", err)
	}

	retrieved, err := repo.GetMemory(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}

	if len(retrieved.Embedding) != 3 {
		t.Fatalf("Expected embedding of length 3, got %d", len(retrieved.Embedding))
	}
	if retrieved.Embedding[0] != 0.5 {
		t.Fatalf("Unexpected embedding value: %v", retrieved.Embedding[0])
	}
}
