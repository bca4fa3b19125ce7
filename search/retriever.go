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

package search

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/memora/ai"
	"github.com/poiesic/memora/core"
	"github.com/poiesic/memora/storage"
)

const (
	// DefaultDebounceDelay is the quiet period after the last query change
	// before a retrieval cycle starts.
	DefaultDebounceDelay = 500 * time.Millisecond

	// scoreThreshold is deliberately low so weak conceptual matches survive
	// the filter. Tunable, not load-bearing.
	scoreThreshold = 0.08

	maxResults = 6

	vectorWeight  = 0.3
	conceptWeight = 0.5
	keywordWeight = 0.2

	defaultCacheBytes = 32 << 20
)

const (
	noMatchMessage = "I've analyzed your question against all stored concepts, but I couldn't find a memory that bridges to this intent."
	failureMessage = "The memory retrieval pipeline encountered an error during reasoning."
)

// Retriever runs the retrieval-ranking pipeline over the stored memory
// collection. One cycle expands the query, embeds it, scores every record
// concurrently, keeps the ranked survivors and synthesizes an answer.
//
// SetQuery drives the debounced, asynchronous mode used by interactive
// callers; Retrieve runs one cycle synchronously.
type Retriever struct {
	repository  storage.MemoryRepository
	expander    ai.QueryExpander
	embedder    ai.Embedder
	synthesizer ai.Synthesizer

	cache      EmbeddingCache
	pool       *ants.Pool
	debounce   *debouncer
	generation atomic.Uint64

	onResponse func(*core.QueryResponse)
	monitor    CycleMonitor
	logger     *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithMonitor sets a cycle monitor receiving callbacks at each stage.
func WithMonitor(monitor CycleMonitor) Option {
	return func(r *Retriever) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		r.monitor = monitor
		return nil
	}
}

// WithPoolSize sets the worker pool size for per-record scoring.
// Default is runtime.NumCPU().
func WithPoolSize(size int) Option {
	return func(r *Retriever) error {
		if size < 1 {
			size = 1
		}
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithDebounceDelay overrides the quiet period before a cycle starts.
func WithDebounceDelay(delay time.Duration) Option {
	return func(r *Retriever) error {
		if delay <= 0 {
			delay = DefaultDebounceDelay
		}
		r.debounce = newDebouncer(delay)
		return nil
	}
}

// WithResponseHandler sets the callback that receives responses from the
// debounced SetQuery mode. Each cycle publishes a thinking response first,
// then the final response, unless a newer query superseded the cycle.
func WithResponseHandler(fn func(*core.QueryResponse)) Option {
	return func(r *Retriever) error {
		r.onResponse = fn
		return nil
	}
}

// WithEmbeddingCache replaces the default document-embedding cache.
func WithEmbeddingCache(cache EmbeddingCache) Option {
	return func(r *Retriever) error {
		if r.cache != nil {
			r.cache.Close()
		}
		r.cache = cache
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(
	repository storage.MemoryRepository,
	provider ai.Provider,
	opts ...Option,
) (*Retriever, error) {
	if repository == nil {
		return nil, ErrMemoryRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	pool, err := ants.NewPool(runtime.NumCPU())
	if err != nil {
		return nil, err
	}

	cache, err := NewEmbeddingCache(defaultCacheBytes)
	if err != nil {
		pool.Release()
		return nil, err
	}

	r := &Retriever{
		repository:  repository,
		expander:    provider.QueryExpander(),
		embedder:    provider.Embedder(),
		synthesizer: provider.Synthesizer(),
		cache:       cache,
		pool:        pool,
		debounce:    newDebouncer(DefaultDebounceDelay),
		monitor:     &noopMonitor{},
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			r.Close()
			return nil, err
		}
	}

	return r, nil
}

// Close releases the worker pool and embedding cache.
// The retriever should not be used after calling Close.
func (r *Retriever) Close() {
	r.debounce.Cancel()
	if r.pool != nil {
		r.pool.Release()
	}
	if r.cache != nil {
		r.cache.Close()
	}
}

// SetQuery registers a query change. The cycle starts after the quiet
// period; further changes during the wait restart it. A blank query skips
// the wait entirely: any pending cycle is cancelled and browse mode is
// published right away. Results are delivered to the response handler, and
// a cycle whose query was superseded while it ran publishes nothing.
func (r *Retriever) SetQuery(query string) {
	if strings.TrimSpace(query) == "" {
		r.debounce.Cancel()
		gen := r.generation.Add(1)
		r.publish(gen, r.runCycle(context.Background(), query))
		return
	}

	r.debounce.Trigger(func() {
		gen := r.generation.Add(1)
		r.publish(gen, &core.QueryResponse{IsThinking: true})

		response := r.runCycle(context.Background(), query)
		r.publish(gen, response)
	})
}

// Retrieve runs one retrieval cycle synchronously. The returned response is
// always complete and well-formed; pipeline failures surface as a fixed
// failure answer, never as an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) *core.QueryResponse {
	r.generation.Add(1)
	return r.runCycle(ctx, query)
}

// publish delivers a response unless a newer query has started since gen.
func (r *Retriever) publish(gen uint64, response *core.QueryResponse) {
	if response == nil || r.onResponse == nil {
		return
	}
	if gen != r.generation.Load() {
		r.logger.Debug("discarding stale retrieval result", "generation", gen)
		return
	}
	r.onResponse(response)
}

func (r *Retriever) runCycle(ctx context.Context, query string) (response *core.QueryResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("retrieval cycle panic: %v", rec)
			r.logger.Error("retrieval cycle failed", "err", err)
			r.monitor.Failed(err)
			response = failedResponse()
		}
	}()

	r.monitor.Start(query)

	records, err := r.repository.ListMemories(ctx)
	if err != nil {
		r.logger.Error("error loading memory records", "err", err)
		r.monitor.Failed(err)
		return failedResponse()
	}

	// A blank query is browse mode: the full collection, unscored.
	if strings.TrimSpace(query) == "" {
		sources := make([]*core.ScoredRecord, len(records))
		for i, record := range records {
			sources[i] = &core.ScoredRecord{Record: record}
		}
		response = &core.QueryResponse{Sources: sources, Confidence: 1}
		r.monitor.Finish(response)
		return response
	}

	expansion, err := r.expander.Expand(ctx, query)
	if err != nil || expansion == nil {
		// Expansion is a degraded signal, never fatal.
		expansion = &core.ExpansionResult{ExpandedQuery: query}
	}
	r.monitor.AfterExpansion(expansion)

	queryVector, err := r.embedder.EmbedText(ctx, expansion.ExpandedQuery, ai.TaskQuery)
	if err != nil {
		queryVector = nil
	}
	r.monitor.AfterQueryEmbedding(len(queryVector))

	scores := r.scoreAll(ctx, query, expansion.Concepts, queryVector, records)
	kept := keepRanked(records, scores)
	r.monitor.AfterScoring(kept)

	answer := noMatchMessage
	var confidence float32
	if len(kept) > 0 {
		answer, err = r.synthesizer.Synthesize(ctx, query, kept)
		if err != nil {
			r.logger.Error("error synthesizing answer", "query", query, "err", err)
			r.monitor.Failed(err)
			return failedResponse()
		}
		confidence = kept[0].Score
	}

	response = &core.QueryResponse{
		Answer:     answer,
		Sources:    kept,
		Confidence: confidence,
	}
	r.monitor.Finish(response)
	return response
}

// scoreAll fans per-record scoring out over the worker pool. Each worker
// writes only its own index, so no lock is needed; completion order is
// irrelevant because ranking happens after the join.
func (r *Retriever) scoreAll(ctx context.Context, query string, concepts []string, queryVector []float32, records []*core.MemoryRecord) []float32 {
	scores := make([]float32, len(records))

	var wg sync.WaitGroup
	for i, record := range records {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			scores[i] = r.scoreRecord(ctx, query, concepts, queryVector, record)
			r.monitor.RecordScored(record, scores[i])
		}
		if err := r.pool.Submit(task); err != nil {
			// Pool unavailable (e.g. released); score inline.
			task()
		}
	}
	wg.Wait()

	return scores
}

// keepRanked filters records strictly above the score threshold, ranks the
// survivors best first (stable for equal scores) and caps the list.
func keepRanked(records []*core.MemoryRecord, scores []float32) []*core.ScoredRecord {
	kept := make([]*core.ScoredRecord, 0, maxResults)
	for i, record := range records {
		if scores[i] > scoreThreshold {
			kept = append(kept, &core.ScoredRecord{Record: record, Score: scores[i]})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}
	return kept
}

func (r *Retriever) scoreRecord(ctx context.Context, query string, concepts []string, queryVector []float32, record *core.MemoryRecord) float32 {
	var vectorScore float32
	if len(queryVector) > 0 {
		vectorScore = clamp01(CosineSimilarity(queryVector, r.recordEmbedding(ctx, record)))
	}

	signals := ScoreLexical(query, concepts, record)

	final := vectorScore*vectorWeight +
		signals.Concept*conceptWeight +
		signals.Keyword*keywordWeight +
		signals.TitleBoost
	return clamp01(final)
}

// recordEmbedding returns the record's document embedding, computing and
// caching it when absent. The attach races with concurrent cycles over the
// same collection, which is safe: vectors are immutable for a given text,
// so last-write-wins only wastes work.
func (r *Retriever) recordEmbedding(ctx context.Context, record *core.MemoryRecord) []float32 {
	if len(record.Embedding) > 0 {
		return record.Embedding
	}
	if vector, found := r.cache.Get(record.Id); found {
		return vector
	}

	text := strings.TrimSpace(record.Title + " " + record.Summary)
	vector, err := r.embedder.EmbedText(ctx, text, ai.TaskDocument)
	if err != nil || len(vector) == 0 {
		return nil
	}

	record.Embedding = vector
	r.cache.Set(record.Id, vector)
	return vector
}

func failedResponse() *core.QueryResponse {
	return &core.QueryResponse{
		Answer:  failureMessage,
		Sources: []*core.ScoredRecord{},
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
