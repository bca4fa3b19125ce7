package search

import (
	"github.com/dgraph-io/ristretto"
	"github.com/poiesic/memora/core"
)

// EmbeddingCache holds computed document embeddings keyed by record ID,
// so repeated retrieval cycles do not re-embed unchanged records.
type EmbeddingCache interface {
	Get(id core.ID) ([]float32, bool)
	Set(id core.ID, vector []float32)
	Close()
}

type ristrettoCache struct {
	cache *ristretto.Cache
}

var _ EmbeddingCache = (*ristrettoCache)(nil)

// NewEmbeddingCache creates an embedding cache bounded to roughly maxBytes
// of vector data.
func NewEmbeddingCache(maxBytes int64) (EmbeddingCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &ristrettoCache{cache: cache}, nil
}

func (c *ristrettoCache) Get(id core.ID) ([]float32, bool) {
	value, found := c.cache.Get(uint64(id))
	if !found {
		return nil, false
	}
	vector, ok := value.([]float32)
	return vector, ok
}

func (c *ristrettoCache) Set(id core.ID, vector []float32) {
	if len(vector) == 0 {
		return
	}
	c.cache.Set(uint64(id), vector, int64(len(vector)*4))
}

func (c *ristrettoCache) Close() {
	c.cache.Close()
}
