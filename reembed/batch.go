package reembed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/memora/ai"
	"github.com/poiesic/memora/core"
	"github.com/poiesic/memora/storage"
)

// BatchProcessor regenerates embeddings for batches of memory records.
type BatchProcessor struct {
	repo           storage.MemoryRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.MemoryRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process regenerates embeddings for a batch of records and updates them in
// the database. Vectors are normalized after embedding so cosine similarity
// degenerates to a dot product. A record whose embedding comes back empty
// keeps its previous vector.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.MemoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	updated := make([]*core.MemoryRecord, 0, len(records))
	for _, record := range records {
		text := strings.TrimSpace(record.Title + " " + record.Summary)

		var vector []float32
		err := RetryWithBackoff(ctx, func() error {
			var embedErr error
			vector, embedErr = bp.embedder.EmbedText(ctx, text, ai.TaskDocument)
			return embedErr
		}, bp.maxRetries, bp.retryBaseDelay)
		if err != nil {
			return fmt.Errorf("failed to embed record %d after %d attempts: %w", record.Id, bp.maxRetries, err)
		}

		if len(vector) == 0 {
			continue
		}

		record.Embedding = NormalizeVector(vector)
		updated = append(updated, record)
	}

	if len(updated) == 0 {
		return nil
	}

	if _, err := bp.repo.UpdateMemories(ctx, updated...); err != nil {
		return fmt.Errorf("failed to update records: %w", err)
	}

	return nil
}
