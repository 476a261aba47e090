package memorycache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/asakaida/monban/pkg/cache"
)

// entrySize approximates the per-entry overhead in bytes, excluding the key
const entrySize = 100

type entry struct {
	key       string
	value     any
	expiresAt time.Time
	size      int64
}

// Cache implements an LRU cache with lookup-time TTL expiry.
// A zero MaxSizeBytes disables size-based eviction.
type Cache struct {
	mu sync.Mutex

	items     map[string]*list.Element
	evictList *list.List // front = most recently used

	maxSize     int64
	ttl         time.Duration
	currentSize int64
	now         func() time.Time

	metrics *cache.Metrics
}

// Config holds configuration for the memory cache.
type Config struct {
	// MaxSizeBytes is the maximum approximate size of cached items in bytes.
	// Least recently used items are evicted beyond it.
	MaxSizeBytes int64

	// DefaultTTL is used by Set when ttl is zero.
	DefaultTTL time.Duration

	// EnableMetrics enables collection of cache metrics.
	EnableMetrics bool

	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

var _ cache.Cache = (*Cache)(nil)

// New creates a new memory cache with the given configuration.
func New(config *Config) (*Cache, error) {
	c := &Cache{
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		maxSize:   config.MaxSizeBytes,
		ttl:       config.DefaultTTL,
		now:       config.Now,
	}
	if c.now == nil {
		c.now = time.Now
	}

	if config.EnableMetrics {
		c.metrics = &cache.Metrics{}
	}

	return c, nil
}

// Get retrieves a value from cache. Expired entries are removed on access.
func (c *Cache) Get(ctx context.Context, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		c.miss()
		return nil, false
	}

	ent := elem.Value.(*entry)
	if !c.now().Before(ent.expiresAt) {
		c.removeElement(elem)
		c.miss()
		return nil, false
	}

	c.evictList.MoveToFront(elem)
	if c.metrics != nil {
		c.metrics.Hits++
	}

	return ent.value, true
}

func (c *Cache) miss() {
	if c.metrics != nil {
		c.metrics.Misses++
	}
}

// Set stores a value in cache with the specified TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(entrySize + len(key))
	expiresAt := c.now().Add(ttl)

	if elem, exists := c.items[key]; exists {
		ent := elem.Value.(*entry)
		c.currentSize += size - ent.size
		ent.value = value
		ent.expiresAt = expiresAt
		ent.size = size
		c.evictList.MoveToFront(elem)
		return nil
	}

	elem := c.evictList.PushFront(&entry{key: key, value: value, expiresAt: expiresAt, size: size})
	c.items[key] = elem
	c.currentSize += size

	if c.metrics != nil {
		c.metrics.KeysAdded++
	}

	for c.maxSize > 0 && c.currentSize > c.maxSize && c.evictList.Len() > 1 {
		c.removeElement(c.evictList.Back())
		if c.metrics != nil {
			c.metrics.KeysEvicted++
		}
	}

	return nil
}

// Delete removes a value from cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}

	return nil
}

// Clear removes all entries from cache.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
	c.currentSize = 0

	return nil
}

// Close releases resources (no-op for memory cache).
func (c *Cache) Close() error {
	return nil
}

// Metrics returns a snapshot of cache statistics.
func (c *Cache) Metrics() *cache.Metrics {
	if c.metrics == nil {
		return &cache.Metrics{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := *c.metrics
	return &snapshot
}

// must be called with lock held
func (c *Cache) removeElement(elem *list.Element) {
	c.evictList.Remove(elem)
	ent := elem.Value.(*entry)
	delete(c.items, ent.key)
	c.currentSize -= ent.size
}

// Len returns the current number of items in cache, including expired ones
// that have not been looked up yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Size returns the current approximate size in bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}
