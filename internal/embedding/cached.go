package embedding

import (
	"context"
	"encoding/json"
	"time"

	"github.com/inboxpulse/insight-engine/internal/cache"
)

// CachedEmbedder wraps an Embedder with a cache keyed on model and text.
// Repeated anchor texts skip the API round trip; cache failures fall
// through to the underlying embedder.
type CachedEmbedder struct {
	inner Embedder
	cache cache.Client
	ttl   time.Duration
}

// NewCachedEmbedder wraps inner with the given cache.
func NewCachedEmbedder(inner Embedder, c cache.Client, ttl time.Duration) *CachedEmbedder {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedEmbedder{inner: inner, cache: c, ttl: ttl}
}

// EmbedSingle returns the cached embedding for text, or embeds and caches it.
func (c *CachedEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	key := cache.EmbeddingCacheKey(c.inner.Model(), text)

	if data, err := c.cache.Get(ctx, key); err == nil {
		var vec []float32
		if err := json.Unmarshal(data, &vec); err == nil && len(vec) > 0 {
			return vec, nil
		}
	}

	vec, err := c.inner.EmbedSingle(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vec); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}

	return vec, nil
}

// Embed delegates to the underlying embedder; batch calls are not cached.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return c.inner.Embed(ctx, texts)
}

// Model returns the underlying model name.
func (c *CachedEmbedder) Model() string {
	return c.inner.Model()
}

// Dimension returns the underlying embedding dimension.
func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}

var _ Embedder = (*CachedEmbedder)(nil)
