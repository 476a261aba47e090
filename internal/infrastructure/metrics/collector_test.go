package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/asakaida/monban/pkg/cache/memorycache"
)

func TestCollector_RecordDecision(t *testing.T) {
	c := NewCollector()

	c.RecordDecision("leveled", "allow")
	c.RecordDecision("leveled", "allow")
	c.RecordDecision("leveled", "deny_user")
	c.RecordDecision("legacy", "deny_rule")

	m := c.GetDecisionMetrics()
	if got := m.Counts["leveled"]["allow"]; got != 2 {
		t.Errorf("leveled/allow = %d, want 2", got)
	}
	if got := m.Total("leveled"); got != 3 {
		t.Errorf("Total(leveled) = %d, want 3", got)
	}
	if got := m.Total("legacy"); got != 1 {
		t.Errorf("Total(legacy) = %d, want 1", got)
	}
	if got := m.Total("unknown"); got != 0 {
		t.Errorf("Total(unknown) = %d, want 0", got)
	}
}

func TestCollector_RecordDecision_Concurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordDecision("leveled", "allow")
		}()
	}
	wg.Wait()

	if got := c.GetDecisionMetrics().Counts["leveled"]["allow"]; got != 50 {
		t.Errorf("leveled/allow = %d, want 50", got)
	}
}

func TestCollector_GetCacheMetrics(t *testing.T) {
	c := NewCollector()
	if m := c.GetCacheMetrics(); m.Hits != 0 || m.KeysCurrent != 0 {
		t.Errorf("expected zero metrics without cache, got %+v", m)
	}

	mc, err := memorycache.New(&memorycache.Config{DefaultTTL: time.Minute, EnableMetrics: true})
	if err != nil {
		t.Fatalf("memorycache.New() error = %v", err)
	}
	defer mc.Close()
	c.SetCache(mc)

	ctx := context.Background()
	_ = mc.Set(ctx, "identity:1:1:42", 3, 0)
	mc.Get(ctx, "identity:1:1:42")
	mc.Get(ctx, "identity:1:1:43")

	m := c.GetCacheMetrics()
	if m.Hits != 1 || m.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", m.Hits, m.Misses)
	}
	if m.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", m.HitRate)
	}
	if m.KeysCurrent != 1 {
		t.Errorf("KeysCurrent = %d, want 1", m.KeysCurrent)
	}
	if m.MemoryBytes <= 0 {
		t.Errorf("MemoryBytes = %d, want > 0", m.MemoryBytes)
	}
}
