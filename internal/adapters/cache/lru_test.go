package cache

import (
	"testing"
	"time"
)

func TestCacheTTLExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := New[string](5*time.Minute, 10)
	c.nowFn = func() time.Time { return now }

	c.Set("k", "v")
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("expected fresh entry, got %q ok=%v", v, ok)
	}

	now = now.Add(5*time.Minute + time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("stale entry must read as absent")
	}
	if c.Len() != 0 {
		t.Fatalf("stale read must evict; size = %d", c.Len())
	}
}

func TestCacheLRUEviction(t *testing.T) {
	t.Parallel()

	c := New[int](time.Hour, 3)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch a so b becomes least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should be present")
	}

	c.Set("d", 4)
	if c.Len() != 3 {
		t.Fatalf("size = %d, want 3", c.Len())
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted as least recently used")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should survive eviction", key)
		}
	}
}

func TestCacheAddIsFirstUseOnly(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := New[bool](time.Minute, 10)
	c.nowFn = func() time.Time { return now }

	if !c.Add("nonce", true) {
		t.Fatalf("first Add must insert")
	}
	if c.Add("nonce", true) {
		t.Fatalf("second Add must report already present")
	}

	now = now.Add(time.Minute + time.Second)
	if !c.Add("nonce", true) {
		t.Fatalf("Add after expiry must insert again")
	}
}

func TestCacheCleanup(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := New[int](time.Minute, 10)
	c.nowFn = func() time.Time { return now }

	c.Set("old1", 1)
	c.Set("old2", 2)
	now = now.Add(2 * time.Minute)
	c.Set("fresh", 3)

	if removed := c.Cleanup(); removed != 2 {
		t.Fatalf("Cleanup removed %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Fatalf("size after cleanup = %d, want 1", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatalf("fresh entry must survive cleanup")
	}
}

func TestCacheSetOverwriteRefreshes(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := New[int](time.Minute, 10)
	c.nowFn = func() time.Time { return now }

	c.Set("k", 1)
	now = now.Add(45 * time.Second)
	c.Set("k", 2)
	now = now.Add(45 * time.Second)

	// 90s since first write, 45s since last: still live.
	if v, ok := c.Get("k"); !ok || v != 2 {
		t.Fatalf("overwrite must refresh TTL, got %d ok=%v", v, ok)
	}
}
