// Package cache provides the bounded expiring LRU store backing reputation
// memoization and the in-memory nonce ledger.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[V any] struct {
	key      string
	value    V
	storedAt time.Time
}

// Stats is a point-in-time occupancy report, used by the periodic cleanup log.
type Stats struct {
	Size    int
	MaxSize int
	TTL     time.Duration
}

// Cache is a mutex-guarded key→value store with a per-entry TTL and a maximum
// occupancy. Reads refresh recency; writes evict the least-recently-used entry
// once the cache is full. No entry survives past TTL from its last write.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	items   map[string]*list.Element
	order   *list.List // front = most recently used
	nowFn   func() time.Time
}

// New builds a cache with the given TTL and maximum entry count.
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache[V]{
		ttl:     ttl,
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		nowFn:   time.Now,
	}
}

// Get returns the live value for key and refreshes its recency. A stale entry
// is evicted on the spot and reported as absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	ent := el.Value.(*entry[V])
	if c.nowFn().Sub(ent.storedAt) > c.ttl {
		c.removeLocked(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return ent.value, true
}

// Set inserts or overwrites key, evicting the least-recently-used entry when
// the cache would otherwise exceed its maximum size.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

// Add inserts key only if no live entry exists. It reports whether this call
// performed the insert, making check-and-set atomic for ledger callers.
func (c *Cache[V]) Add(key string, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry[V])
		if c.nowFn().Sub(ent.storedAt) <= c.ttl {
			return false
		}
		c.removeLocked(el)
	}
	c.setLocked(key, value)
	return true
}

func (c *Cache[V]) setLocked(key string, value V) {
	now := c.nowFn()
	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry[V])
		ent.value = value
		ent.storedAt = now
		c.order.MoveToFront(el)
		return
	}
	for len(c.items) >= c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
	}
	el := c.order.PushFront(&entry[V]{key: key, value: value, storedAt: now})
	c.items[key] = el
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeLocked(el)
	return true
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Len reports current occupancy, stale entries included until they are read
// or swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Cleanup purges every expired entry and returns the number removed. Intended
// for a periodic background sweep, not the request path.
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.Sub(el.Value.(*entry[V]).storedAt) > c.ttl {
			c.removeLocked(el)
			removed++
		}
		el = prev
	}
	return removed
}

// Stats reports occupancy and configuration.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: len(c.items), MaxSize: c.maxSize, TTL: c.ttl}
}

func (c *Cache[V]) removeLocked(el *list.Element) {
	ent := el.Value.(*entry[V])
	c.order.Remove(el)
	delete(c.items, ent.key)
}
