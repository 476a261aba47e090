package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/asakaida/monban/pkg/cache"
)

// Collector collects and aggregates metrics for the application.
type Collector struct {
	// API metrics
	apiRequests sync.Map // map[string]*uint64 - method -> count
	apiErrors   sync.Map // map[string]*uint64 - method -> error count
	apiDuration sync.Map // map[string]*durationValue - method -> total duration in seconds

	// ACL decisions
	decisions sync.Map // map[decisionKey]*uint64

	// Cache reference (optional, for querying cache-specific metrics)
	cache cache.Cache
}

type decisionKey struct {
	model   string
	outcome string
}

// durationValue holds duration with mutex for thread-safe updates.
type durationValue struct {
	mu           sync.Mutex
	totalSeconds float64
}

// CacheMetrics holds identity cache metrics.
type CacheMetrics struct {
	Hits        uint64
	Misses      uint64
	HitRate     float64
	KeysCurrent int64
	MemoryBytes int64
	Evictions   uint64
}

// APIMetrics holds API request metrics.
type APIMetrics struct {
	RequestCounts        map[string]uint64
	ErrorCounts          map[string]uint64
	TotalDurationSeconds map[string]float64
}

// DecisionMetrics holds resolution counts per model and outcome.
// Counts["leveled"]["deny_user"] is the number of user-override denials.
type DecisionMetrics struct {
	Counts map[string]map[string]uint64
}

// Total returns the number of decisions recorded for a model
func (d *DecisionMetrics) Total(model string) uint64 {
	var total uint64
	for _, n := range d.Counts[model] {
		total += n
	}
	return total
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// SetCache sets the cache instance for collecting cache metrics.
func (c *Collector) SetCache(cache cache.Cache) {
	c.cache = cache
}

// RecordRequest records an API request.
func (c *Collector) RecordRequest(method string) {
	counter := getOrCreateCounter(&c.apiRequests, method)
	atomic.AddUint64(counter, 1)
}

// RecordError records an API error.
func (c *Collector) RecordError(method string) {
	counter := getOrCreateCounter(&c.apiErrors, method)
	atomic.AddUint64(counter, 1)
}

// RecordDuration records the duration of an API call in seconds.
func (c *Collector) RecordDuration(method string, durationSeconds float64) {
	val, _ := c.apiDuration.LoadOrStore(method, &durationValue{})
	dv := val.(*durationValue)

	dv.mu.Lock()
	dv.totalSeconds += durationSeconds
	dv.mu.Unlock()
}

// RecordDecision records one resolution outcome.
func (c *Collector) RecordDecision(model, outcome string) {
	counter := getOrCreateCounter(&c.decisions, decisionKey{model: model, outcome: outcome})
	atomic.AddUint64(counter, 1)
}

// GetCacheMetrics returns current cache metrics.
func (c *Collector) GetCacheMetrics() *CacheMetrics {
	if c.cache == nil {
		return &CacheMetrics{}
	}

	metrics := c.cache.Metrics()
	if metrics == nil {
		return &CacheMetrics{}
	}

	result := &CacheMetrics{
		Hits:      metrics.Hits,
		Misses:    metrics.Misses,
		HitRate:   metrics.HitRate(),
		Evictions: metrics.KeysEvicted,
	}

	// Backends expose what they can
	if l, ok := c.cache.(interface{ Len() int }); ok {
		result.KeysCurrent = int64(l.Len())
	}
	if s, ok := c.cache.(interface{ Size() int64 }); ok {
		result.MemoryBytes = s.Size()
	}

	return result
}

// GetAPIMetrics returns current API metrics.
func (c *Collector) GetAPIMetrics() *APIMetrics {
	result := &APIMetrics{
		RequestCounts:        make(map[string]uint64),
		ErrorCounts:          make(map[string]uint64),
		TotalDurationSeconds: make(map[string]float64),
	}

	c.apiRequests.Range(func(key, value any) bool {
		result.RequestCounts[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})

	c.apiErrors.Range(func(key, value any) bool {
		result.ErrorCounts[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})

	c.apiDuration.Range(func(key, value any) bool {
		dv := value.(*durationValue)
		dv.mu.Lock()
		result.TotalDurationSeconds[key.(string)] = dv.totalSeconds
		dv.mu.Unlock()
		return true
	})

	return result
}

// GetDecisionMetrics returns resolution counts.
func (c *Collector) GetDecisionMetrics() *DecisionMetrics {
	result := &DecisionMetrics{Counts: make(map[string]map[string]uint64)}

	c.decisions.Range(func(key, value any) bool {
		k := key.(decisionKey)
		if result.Counts[k.model] == nil {
			result.Counts[k.model] = make(map[string]uint64)
		}
		result.Counts[k.model][k.outcome] = atomic.LoadUint64(value.(*uint64))
		return true
	})

	return result
}

func getOrCreateCounter(m *sync.Map, key any) *uint64 {
	val, _ := m.LoadOrStore(key, new(uint64))
	return val.(*uint64)
}
