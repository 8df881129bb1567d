package catalog

import (
	"context"
	"sync"
	"time"
)

// CacheOption is a functional option for configuring a Cache.
type CacheOption func(*Cache)

// WithTTL sets how long a fetched library stays fresh. Zero (the default)
// means entries never expire and the cache is refreshed only via Invalidate.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// Cache is a Store that keeps the last successful fetch from an underlying
// source in memory. A lookup hits the source only when the cache is empty or
// stale, so dispatching a voice command is normally free of network traffic.
//
// Cache is safe for concurrent use.
type Cache struct {
	source Store
	ttl    time.Duration

	mu        sync.RWMutex
	songs     []Song
	fetchedAt time.Time
}

var _ Store = (*Cache)(nil)

// NewCache wraps source in a caching layer.
func NewCache(source Store, opts ...CacheOption) *Cache {
	c := &Cache{source: source}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Songs returns the cached library, fetching from the source when the cache
// is empty or past its TTL. A fetch failure with a warm cache falls back to
// the stale copy; with a cold cache the source error is returned as is.
func (c *Cache) Songs(ctx context.Context) ([]Song, error) {
	c.mu.RLock()
	songs, fresh := c.songs, c.fresh()
	c.mu.RUnlock()

	if songs != nil && fresh {
		return songs, nil
	}

	fetched, err := c.source.Songs(ctx)
	if err != nil {
		if songs != nil {
			return songs, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.songs = fetched
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return fetched, nil
}

// Invalidate drops the cached library so the next lookup refetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.songs = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// fresh reports whether the cached copy is within its TTL. Caller holds c.mu.
func (c *Cache) fresh() bool {
	if c.ttl == 0 {
		return true
	}
	return time.Since(c.fetchedAt) < c.ttl
}
