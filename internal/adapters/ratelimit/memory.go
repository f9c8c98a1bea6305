// Package ratelimit implements fixed-window request throttling keyed by
// caller identity (ip:…, addr:…, combo:…).
package ratelimit

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/ethosgate/reputation-gate/internal/ports"
)

const evictFraction = 10 // evict oldest 1/10 of keys when full

type windowEntry struct {
	key     string
	count   int
	resetAt time.Time
}

// MemoryStore tracks one window counter per key under a single mutex, so the
// check-then-increment sequence for a key is linearizable. Insertion order is
// kept in a list to support bulk eviction of the oldest keys.
type MemoryStore struct {
	mu         sync.Mutex
	window     time.Duration
	maxKeys    int
	sweepEvery time.Duration
	lastSweep  time.Time
	items      map[string]*list.Element
	order      *list.List // front = oldest inserted
	nowFn      func() time.Time
}

// NewMemoryStore builds a store with 60s windows unless configured otherwise.
// The expired-window sweep runs opportunistically, at most every sweepEvery.
func NewMemoryStore(window time.Duration, maxKeys int, sweepEvery time.Duration) *MemoryStore {
	if window <= 0 {
		window = time.Minute
	}
	if maxKeys < 1 {
		maxKeys = 1
	}
	if sweepEvery <= 0 {
		sweepEvery = 5 * time.Minute
	}
	return &MemoryStore{
		window:     window,
		maxKeys:    maxKeys,
		sweepEvery: sweepEvery,
		items:      make(map[string]*list.Element),
		order:      list.New(),
		nowFn:      time.Now,
	}
}

// Check counts a call against key. Calls above the ceiling are rejected
// without advancing the counter and carry the time until the window resets.
func (s *MemoryStore) Check(_ context.Context, key string, ceiling int) (ports.RateDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	s.sweepLocked(now)

	el, ok := s.items[key]
	if !ok {
		if len(s.items) >= s.maxKeys {
			s.evictOldestLocked()
		}
		el = s.order.PushBack(&windowEntry{key: key, count: 1, resetAt: now.Add(s.window)})
		s.items[key] = el
		return ports.RateDecision{Allowed: true, Remaining: ceiling - 1}, nil
	}

	ent := el.Value.(*windowEntry)
	if now.After(ent.resetAt) {
		ent.count = 1
		ent.resetAt = now.Add(s.window)
		return ports.RateDecision{Allowed: true, Remaining: ceiling - 1}, nil
	}
	if ent.count >= ceiling {
		return ports.RateDecision{Allowed: false, RetryAfter: ent.resetAt.Sub(now)}, nil
	}
	ent.count++
	return ports.RateDecision{Allowed: true, Remaining: ceiling - ent.count}, nil
}

// Sweep purges entries whose window already elapsed and returns the number
// removed. Exposed for the bootstrap background loop.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSweep = time.Time{} // force
	return s.sweepLocked(s.nowFn())
}

// Len reports tracked key count.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	if now.Sub(s.lastSweep) < s.sweepEvery && !s.lastSweep.IsZero() {
		return 0
	}
	s.lastSweep = now
	removed := 0
	for el := s.order.Front(); el != nil; {
		next := el.Next()
		if now.After(el.Value.(*windowEntry).resetAt) {
			s.removeLocked(el)
			removed++
		}
		el = next
	}
	return removed
}

func (s *MemoryStore) evictOldestLocked() {
	count := len(s.items) / evictFraction
	if count < 1 {
		count = 1
	}
	for i := 0; i < count; i++ {
		el := s.order.Front()
		if el == nil {
			return
		}
		s.removeLocked(el)
	}
}

func (s *MemoryStore) removeLocked(el *list.Element) {
	ent := el.Value.(*windowEntry)
	s.order.Remove(el)
	delete(s.items, ent.key)
}
