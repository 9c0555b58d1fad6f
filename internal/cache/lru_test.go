package cache

import (
	"testing"
	"time"
)

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a")
	}
	c.Set("c", 3) // evicts b, the least recently used

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Second)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("k2", "v2")
	now = now.Add(2 * time.Second)
	c.Set("fresh", "v3")

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected k to be expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 cleaned entry, got %d", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCacheStatsAndPurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Get("a")
	c.Get("missing")
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Fatalf("expected overwritten value, got %d", v)
	}

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Size != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if n := c.Purge(); n != 1 || c.Size() != 0 {
		t.Fatalf("purge removed %d, size %d", n, c.Size())
	}
	c.Delete("nothing")
}

func TestManagerPurgeAll(t *testing.T) {
	a := NewLRUCache[int](10, time.Minute)
	b := NewLRUCache[string](10, time.Minute)
	a.Set("x", 1)
	b.Set("y", "z")
	b.Set("w", "z")

	m := NewManager()
	m.Register("a", a)
	m.Register("b", b)
	if st := m.Stats(); st["a"].Size != 1 || st["b"].Size != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if n := m.PurgeAll(); n != 3 {
		t.Fatalf("expected 3 purged entries, got %d", n)
	}

	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
}
