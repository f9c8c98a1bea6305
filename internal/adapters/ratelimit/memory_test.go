package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestFixedWindowCeiling(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := NewMemoryStore(time.Minute, 100, 5*time.Minute)
	s.nowFn = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := s.Check(ctx, "ip:1.2.3.4", 3)
		if err != nil || !d.Allowed {
			t.Fatalf("call %d: allowed=%v err=%v", i+1, d.Allowed, err)
		}
		if d.Remaining != 3-(i+1) {
			t.Fatalf("call %d: remaining=%d", i+1, d.Remaining)
		}
	}

	d, err := s.Check(ctx, "ip:1.2.3.4", 3)
	if err != nil || d.Allowed {
		t.Fatalf("over-ceiling call must be rejected: allowed=%v err=%v", d.Allowed, err)
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Fatalf("retry hint out of range: %v", d.RetryAfter)
	}

	// Rejections must not advance the counter: after the window lapses the
	// caller starts a fresh count even though extra rejected calls landed.
	for i := 0; i < 5; i++ {
		if d, _ := s.Check(ctx, "ip:1.2.3.4", 3); d.Allowed {
			t.Fatalf("still inside window, call must be rejected")
		}
	}

	now = now.Add(time.Minute + time.Second)
	d, err = s.Check(ctx, "ip:1.2.3.4", 3)
	if err != nil || !d.Allowed || d.Remaining != 2 {
		t.Fatalf("post-window call: allowed=%v remaining=%d err=%v", d.Allowed, d.Remaining, err)
	}
}

func TestWindowResetPerKey(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := NewMemoryStore(time.Minute, 100, 5*time.Minute)
	s.nowFn = func() time.Time { return now }
	ctx := context.Background()

	if d, _ := s.Check(ctx, "addr:0xaaa", 1); !d.Allowed {
		t.Fatalf("first call for key must pass")
	}
	if d, _ := s.Check(ctx, "addr:0xbbb", 1); !d.Allowed {
		t.Fatalf("other keys are independent")
	}
	if d, _ := s.Check(ctx, "addr:0xaaa", 1); d.Allowed {
		t.Fatalf("second call for key must be rejected")
	}
}

func TestBulkEvictionAtCapacity(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := NewMemoryStore(time.Minute, 20, 5*time.Minute)
	s.nowFn = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		if _, err := s.Check(ctx, fmt.Sprintf("ip:10.0.0.%d", i), 60); err != nil {
			t.Fatalf("seed key %d: %v", i, err)
		}
	}
	if s.Len() != 20 {
		t.Fatalf("seeded %d keys, want 20", s.Len())
	}

	if _, err := s.Check(ctx, "ip:new", 60); err != nil {
		t.Fatalf("insert at capacity: %v", err)
	}
	// Oldest 10% (2 keys) evicted before the insert.
	if s.Len() != 19 {
		t.Fatalf("size after eviction = %d, want 19", s.Len())
	}
}

func TestSweepPurgesExpiredWindows(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := NewMemoryStore(time.Minute, 100, 5*time.Minute)
	s.nowFn = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = s.Check(ctx, fmt.Sprintf("ip:%d", i), 60)
	}
	now = now.Add(2 * time.Minute)

	if removed := s.Sweep(); removed != 4 {
		t.Fatalf("Sweep removed %d, want 4", removed)
	}
	if s.Len() != 0 {
		t.Fatalf("size after sweep = %d, want 0", s.Len())
	}
}
