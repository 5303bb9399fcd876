package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(maxSize int, ttl time.Duration) (*TTLCache[string, int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTLCache[string, int](maxSize, ttl)
	c.now = clock.now
	return c, clock
}

func TestTTLCacheSetGet(t *testing.T) {
	c, _ := newTestCache(2, time.Second)
	c.Set("a", 1)
	c.Set("a", 2)

	if value, ok := c.Get("a"); !ok || value != 2 {
		t.Fatalf("expected 2, got %d (%v)", value, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("expected one entry, got %d", c.Len())
	}
}

func TestTTLCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected key 'b' to be evicted")
	}
	for key, want := range map[string]int{"a": 1, "c": 3} {
		if value, ok := c.Get(key); !ok || value != want {
			t.Fatalf("expected key %q to remain", key)
		}
	}
}

func TestTTLCacheExpires(t *testing.T) {
	c, clock := newTestCache(2, time.Second)
	c.Set("a", 1)
	clock.advance(time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("entry must live until its deadline")
	}

	clock.advance(time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected key 'a' to expire")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry must be removed on access")
	}
}

func TestTTLCacheDelete(t *testing.T) {
	c, _ := newTestCache(3, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Delete("b")
	c.Delete("missing")

	if _, ok := c.Get("b"); ok || c.Len() != 2 {
		t.Fatalf("expected 'b' to be deleted")
	}
	c.Set("d", 4)
	c.Set("e", 5)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected 'a' to be evicted after delete relinked the list")
	}
}

func TestTTLCacheModifyCounts(t *testing.T) {
	c, clock := newTestCache(4, time.Minute)
	increment := func(current int, _ bool) int { return current + 1 }

	if got := c.Modify("k", increment); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	clock.advance(50 * time.Second)
	if got := c.Modify("k", increment); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}

	// 갱신은 만료 시각을 늘리지 않는다.
	clock.advance(11 * time.Second)
	got := c.Modify("k", func(current int, exists bool) int {
		if exists {
			t.Fatalf("expired entry must not be reported as existing")
		}
		return current + 1
	})
	if got != 1 {
		t.Fatalf("expected counter reset, got %d", got)
	}
}
