package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClientGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(100)
	defer c.Close()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), time.Minute))

	val, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)

	require.NoError(t, c.Delete(ctx, "k1"))
	_, err = c.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClientExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(100)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 10*time.Millisecond))

	val, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	time.Sleep(20 * time.Millisecond)

	_, err = c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClientDeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(100)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "emb:model:a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "emb:model:b", []byte("2"), time.Minute))
	require.NoError(t, c.Set(ctx, "search:10:q", []byte("3"), time.Minute))

	require.NoError(t, c.DeleteByPrefix(ctx, "emb:"))

	_, err := c.Get(ctx, "emb:model:a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "emb:model:b")
	assert.ErrorIs(t, err, ErrCacheMiss)

	val, err := c.Get(ctx, "search:10:q")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)
}

func TestMemoryClientEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(3)
	defer c.Close()

	// Earlier expirations are evicted first when the cache is full.
	require.NoError(t, c.Set(ctx, "old", []byte("v"), time.Minute))
	require.NoError(t, c.Set(ctx, "mid", []byte("v"), 2*time.Minute))
	require.NoError(t, c.Set(ctx, "new", []byte("v"), 3*time.Minute))
	require.NoError(t, c.Set(ctx, "extra", []byte("v"), 4*time.Minute))

	_, err := c.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrCacheMiss)

	for _, key := range []string{"mid", "new", "extra"} {
		_, err := c.Get(ctx, key)
		assert.NoError(t, err, "key %s should survive eviction", key)
	}
}

func TestMemoryClientConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(1000)
	defer c.Close()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				key := CacheKey("worker", fmt.Sprint(n), fmt.Sprint(j))
				_ = c.Set(ctx, key, []byte("v"), time.Minute)
				_, _ = c.Get(ctx, key)
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "search:10:spring sale", CacheKey("search", "10", "spring sale"))
	assert.Equal(t, "emb:text-embedding-3-small:hello", EmbeddingCacheKey("text-embedding-3-small", "hello"))
}
