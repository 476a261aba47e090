// Package gocache adapts github.com/patrickmn/go-cache to cache.Cache.
package gocache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/asakaida/monban/pkg/cache"
	gc "github.com/patrickmn/go-cache"
)

// Config holds configuration for the go-cache backend.
type Config struct {
	// DefaultTTL is used by Set when ttl is zero.
	DefaultTTL time.Duration

	// CleanupInterval is how often expired items are purged in the
	// background. Zero disables the janitor.
	CleanupInterval time.Duration

	EnableMetrics bool
}

// Cache is a cache.Cache backed by go-cache. Expiry uses the wall clock.
type Cache struct {
	c       *gc.Cache
	metrics bool

	hits        atomic.Uint64
	misses      atomic.Uint64
	keysAdded   atomic.Uint64
	keysEvicted atomic.Uint64
}

var _ cache.Cache = (*Cache)(nil)

// New creates a new go-cache backed cache.
func New(config *Config) *Cache {
	c := &Cache{
		c:       gc.New(config.DefaultTTL, config.CleanupInterval),
		metrics: config.EnableMetrics,
	}
	if c.metrics {
		c.c.OnEvicted(func(string, interface{}) {
			c.keysEvicted.Add(1)
		})
	}
	return c
}

// Get retrieves a value from cache.
func (c *Cache) Get(ctx context.Context, key string) (any, bool) {
	value, found := c.c.Get(key)
	if c.metrics {
		if found {
			c.hits.Add(1)
		} else {
			c.misses.Add(1)
		}
	}
	return value, found
}

// Set stores a value in cache with the specified TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gc.DefaultExpiration
	}
	if c.metrics {
		if _, found := c.c.Get(key); !found {
			c.keysAdded.Add(1)
		}
	}
	c.c.Set(key, value, ttl)
	return nil
}

// Delete removes a value from cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.c.Delete(key)
	return nil
}

// Clear removes all entries from cache.
func (c *Cache) Clear(ctx context.Context) error {
	c.c.Flush()
	return nil
}

// Close releases resources. The janitor goroutine stops once the cache is
// garbage collected.
func (c *Cache) Close() error {
	c.c.Flush()
	return nil
}

// Metrics returns cache statistics.
func (c *Cache) Metrics() *cache.Metrics {
	return &cache.Metrics{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		KeysAdded:   c.keysAdded.Load(),
		KeysEvicted: c.keysEvicted.Load(),
	}
}

// Len returns the number of items in cache, including expired items that
// have not been cleaned up yet.
func (c *Cache) Len() int {
	return c.c.ItemCount()
}
