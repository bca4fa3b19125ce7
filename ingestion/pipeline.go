package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/memora/ai"
	"github.com/poiesic/memora/core"
	"github.com/poiesic/memora/privacy"
	"github.com/poiesic/memora/storage"
)

// Pipeline orchestrates the ingestion of memories: PII masking,
// classification, document embedding, and persistence.
type Pipeline struct {
	repository storage.MemoryRepository
	classifier ai.Classifier
	embedder   ai.Embedder
	pool       *ants.Pool
	monitor    IngestMonitor
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for batch ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMonitor sets an ingest monitor receiving callbacks at each stage.
func WithMonitor(monitor IngestMonitor) Option {
	return func(p *Pipeline) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		p.monitor = monitor
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.MemoryRepository,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrMemoryRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		classifier: provider.Classifier(),
		embedder:   provider.Embedder(),
		pool:       pool,
		monitor:    &noopMonitor{},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	ImageB64  string    // Optional base64 image passed to the classifier
	ImageURL  string    // Optional image reference stored on the record
	Timestamp time.Time // Optional timestamp (uses current time if zero)
}

// Ingest masks, classifies, embeds and stores a single memory.
// A failed embedding is logged and the record is stored without a vector;
// retrieval computes one on demand. A failed classification fails the call.
func (p *Pipeline) Ingest(ctx context.Context, text string, opts *IngestOptions) (*core.MemoryRecord, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}
	if strings.TrimSpace(text) == "" && opts.ImageB64 == "" {
		return nil, ErrEmptyInput
	}

	p.monitor.Start(text)

	masked := privacy.MaskPII(text)
	p.monitor.AfterMasking(masked)

	analysis, err := p.classifier.Classify(ctx, masked, opts.ImageB64)
	if err != nil {
		return nil, err
	}
	p.monitor.AfterAnalysis(analysis)

	embedding, err := p.embedder.EmbedText(ctx, analysis.Title+" "+analysis.Summary, ai.TaskDocument)
	if err != nil {
		p.logger.Warn("embedding failed during ingestion, storing without vector", "err", err)
		embedding = nil
	}
	p.monitor.AfterEmbedding(len(embedding))

	timestamp := opts.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	record := &core.MemoryRecord{
		Title:         analysis.Title,
		Summary:       analysis.Summary,
		OriginalText:  text,
		MaskedText:    masked,
		Category:      analysis.Category,
		Importance:    analysis.Importance,
		Entities:      analysis.Entities,
		PrivacyAlerts: analysis.PrivacyRisks,
		ImageURL:      opts.ImageURL,
		Timestamp:     timestamp,
		Embedding:     embedding,
	}

	if err := core.ValidateMemoryRecord(record); err != nil {
		return nil, err
	}

	added, err := p.repository.AddMemories(ctx, record)
	if err != nil {
		return nil, err
	}

	p.monitor.Finish(added[0])
	return added[0], nil
}

// IngestBatch ingests a batch of texts concurrently over the worker pool.
// Failed items are logged and skipped; the successfully stored records are
// returned in input order.
func (p *Pipeline) IngestBatch(ctx context.Context, texts []string, opts *IngestOptions) ([]*core.MemoryRecord, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	records := make([]*core.MemoryRecord, len(texts))

	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			record, err := p.Ingest(ctx, text, opts)
			if err != nil {
				p.logger.Error("error ingesting memory", "index", i, "err", err)
				return
			}
			records[i] = record
		}
		if err := p.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	stored := make([]*core.MemoryRecord, 0, len(records))
	for _, record := range records {
		if record != nil {
			stored = append(stored, record)
		}
	}
	return stored, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
