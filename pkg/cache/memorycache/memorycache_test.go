package memorycache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T, maxSize int64, clock *fakeClock) *Cache {
	t.Helper()
	c, err := New(&Config{
		MaxSizeBytes:  maxSize,
		DefaultTTL:    time.Minute,
		EnableMetrics: true,
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return c
}

func TestCache_SetAndGet(t *testing.T) {
	cache := newTestCache(t, 1024*1024, newFakeClock())
	ctx := context.Background()

	if err := cache.Set(ctx, "key1", "value1", time.Minute); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}

	value, found := cache.Get(ctx, "key1")
	if !found {
		t.Error("expected to find key1")
	}
	if value != "value1" {
		t.Errorf("expected value1, got %v", value)
	}

	if _, found = cache.Get(ctx, "nonexistent"); found {
		t.Error("expected not to find nonexistent key")
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(t, 1024*1024, clock)
	ctx := context.Background()

	if err := cache.Set(ctx, "key1", "value1", 120*time.Second); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}

	clock.Advance(119 * time.Second)
	if _, found := cache.Get(ctx, "key1"); !found {
		t.Error("expected to find key1 before expiration")
	}

	clock.Advance(time.Second)
	if _, found := cache.Get(ctx, "key1"); found {
		t.Error("expected key1 to expire at exactly its TTL")
	}
	if cache.Len() != 0 {
		t.Errorf("expected expired entry to be removed, len = %d", cache.Len())
	}
}

func TestCache_DefaultTTL(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(t, 0, clock)
	ctx := context.Background()

	if err := cache.Set(ctx, "key1", "value1", 0); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}

	clock.Advance(59 * time.Second)
	if _, found := cache.Get(ctx, "key1"); !found {
		t.Error("expected default TTL to apply")
	}
	clock.Advance(time.Second)
	if _, found := cache.Get(ctx, "key1"); found {
		t.Error("expected key1 to expire after the default TTL")
	}
}

func TestCache_LRUEviction(t *testing.T) {
	// room for two entries with short keys
	cache := newTestCache(t, 2*(entrySize+4), newFakeClock())
	ctx := context.Background()

	for _, key := range []string{"key1", "key2"} {
		if err := cache.Set(ctx, key, key, time.Minute); err != nil {
			t.Fatalf("failed to set %s: %v", key, err)
		}
	}

	// key1 becomes most recently used
	if _, found := cache.Get(ctx, "key1"); !found {
		t.Fatal("expected to find key1")
	}

	if err := cache.Set(ctx, "key3", "key3", time.Minute); err != nil {
		t.Fatalf("failed to set key3: %v", err)
	}

	if _, found := cache.Get(ctx, "key2"); found {
		t.Error("expected key2 to be evicted")
	}
	for _, key := range []string{"key1", "key3"} {
		if _, found := cache.Get(ctx, key); !found {
			t.Errorf("expected %s to survive eviction", key)
		}
	}

	if m := cache.Metrics(); m.KeysEvicted != 1 {
		t.Errorf("expected 1 eviction, got %d", m.KeysEvicted)
	}
}

func TestCache_Overwrite(t *testing.T) {
	cache := newTestCache(t, 1024, newFakeClock())
	ctx := context.Background()

	_ = cache.Set(ctx, "key1", "old", time.Minute)
	size := cache.Size()
	_ = cache.Set(ctx, "key1", "new", time.Minute)

	if value, _ := cache.Get(ctx, "key1"); value != "new" {
		t.Errorf("expected new, got %v", value)
	}
	if cache.Size() != size || cache.Len() != 1 {
		t.Errorf("overwrite changed size: %d -> %d, len %d", size, cache.Size(), cache.Len())
	}
	if m := cache.Metrics(); m.KeysAdded != 1 {
		t.Errorf("expected 1 key added, got %d", m.KeysAdded)
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	cache := newTestCache(t, 1024*1024, newFakeClock())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cache.Set(ctx, fmt.Sprintf("key%d", i), i, time.Minute)
	}

	if err := cache.Delete(ctx, "key0"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, found := cache.Get(ctx, "key0"); found {
		t.Error("expected key0 to be deleted")
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("failed to clear: %v", err)
	}
	if cache.Len() != 0 || cache.Size() != 0 {
		t.Errorf("expected empty cache, len %d size %d", cache.Len(), cache.Size())
	}
}

func TestCache_Metrics(t *testing.T) {
	cache := newTestCache(t, 1024*1024, newFakeClock())
	ctx := context.Background()

	_ = cache.Set(ctx, "key1", "value1", time.Minute)
	cache.Get(ctx, "key1")
	cache.Get(ctx, "key1")
	cache.Get(ctx, "missing")

	m := cache.Metrics()
	if m.Hits != 2 || m.Misses != 1 {
		t.Errorf("expected 2 hits and 1 miss, got %d and %d", m.Hits, m.Misses)
	}

	// snapshot is not affected by later lookups
	cache.Get(ctx, "key1")
	if m.Hits != 2 {
		t.Errorf("metrics snapshot changed: %d", m.Hits)
	}
}

func TestCache_MetricsDisabled(t *testing.T) {
	cache, err := New(&Config{DefaultTTL: time.Minute})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	ctx := context.Background()

	_ = cache.Set(ctx, "key1", "value1", 0)
	cache.Get(ctx, "key1")

	if m := cache.Metrics(); m.Hits != 0 {
		t.Errorf("expected zero metrics, got %+v", m)
	}
}

func TestCache_Concurrent(t *testing.T) {
	cache := newTestCache(t, 1024*1024, newFakeClock())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key%d", j%10)
				_ = cache.Set(ctx, key, n, time.Minute)
				cache.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() != 10 {
		t.Errorf("expected 10 keys, got %d", cache.Len())
	}
}
