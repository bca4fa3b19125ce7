package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/ristretto"
	"github.com/poiesic/memora/core"
)

// CachingEmbedder wraps an Embedder with a content-addressed cache.
// Entries are keyed by a BLAKE2b hash of the submitted text plus the task
// mode, so identical text embedded for the same purpose is computed once.
// Vectors are immutable for a given text, which makes cache races a
// wasted-work problem rather than a correctness one.
type CachingEmbedder struct {
	inner  Embedder
	cache  *ristretto.Cache
	logger *slog.Logger
}

var _ Embedder = (*CachingEmbedder)(nil)

// NewCachingEmbedder wraps inner with an in-process embedding cache.
// maxBytes bounds the approximate memory held by cached vectors.
func NewCachingEmbedder(inner Embedder, maxBytes int64) (*CachingEmbedder, error) {
	if inner == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &CachingEmbedder{
		inner:  inner,
		cache:  cache,
		logger: slog.Default().With("component", "caching-embedder"),
	}, nil
}

// EmbedText returns a cached vector when available, otherwise delegates to
// the wrapped embedder and caches the result. Empty vectors (the degraded
// "no signal" result) are never cached, so a transient embedding outage does
// not pin failures in memory.
func (c *CachingEmbedder) EmbedText(ctx context.Context, text string, task EmbedTask) ([]float32, error) {
	key := embedCacheKey(text, task)

	if value, found := c.cache.Get(key); found {
		if vec, ok := value.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := c.inner.EmbedText(ctx, text, task)
	if err != nil {
		return vec, err
	}

	if len(vec) > 0 {
		c.cache.Set(key, vec, int64(len(vec)*4))
	}
	return vec, nil
}

// Wait blocks until pending cache writes are applied. Intended for tests.
func (c *CachingEmbedder) Wait() {
	c.cache.Wait()
}

// Close releases the cache.
func (c *CachingEmbedder) Close() {
	c.cache.Close()
}

func embedCacheKey(text string, task EmbedTask) string {
	return fmt.Sprintf("%d:%d", task, core.IDFromContent(text))
}
