package ai

import (
	"context"

	"github.com/poiesic/memora/core"
)

// EmbedTask selects the provider-side weighting for an embedding request.
// Queries and documents are embedded differently by most embedding models;
// the caller's logic is otherwise identical.
type EmbedTask int

const (
	// TaskQuery embeds text that will be used to search.
	TaskQuery EmbedTask = iota + 1
	// TaskDocument embeds text that will be stored and searched against.
	TaskDocument
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
//
// Embedding is a degraded-signal dependency: production implementations catch
// their own transport failures, try one fallback path, and return an empty
// vector with a nil error rather than failing the retrieval pipeline.
// Callers treat an empty vector as "no vector signal".
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Input is truncated to a bounded length before submission and blank
	// input is replaced with a single space, never submitted empty.
	EmbedText(ctx context.Context, text string, task EmbedTask) ([]float32, error)
}

// QueryExpander maps a raw query onto an expanded query string and a list of
// bridging concepts (e.g. "cut cake" -> "birthday").
// Implementations must degrade gracefully: on any failure they return the
// original query unchanged and an empty concept list, never an error that
// would fail the pipeline.
type QueryExpander interface {
	Expand(ctx context.Context, query string) (*core.ExpansionResult, error)
}

// Classifier analyzes masked memory text (and an optional base64 JPEG image)
// and extracts title, summary, importance, category, entities and privacy
// risks. Unlike the retrieval-side services, classification errors propagate:
// a memory that cannot be classified is not stored.
type Classifier interface {
	Classify(ctx context.Context, text string, imageB64 string) (*core.Analysis, error)
}

// Synthesizer turns a query plus ranked records into a natural-language
// answer. Implementations must be thread-safe for concurrent use.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, records []*core.ScoredRecord) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages service instances, ensuring they
// share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// QueryExpander returns the query expansion service.
	QueryExpander() QueryExpander

	// Classifier returns the memory classification service.
	Classifier() Classifier

	// Synthesizer returns the answer synthesis service.
	Synthesizer() Synthesizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
