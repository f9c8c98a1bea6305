package cache

import (
	"context"
	"strings"
	"time"
)

// MemoryNonceLedger is the single-process fallback when no redis is
// configured. Multi-instance deployments need the redis ledger instead; see
// the deployment note in bootstrap.
type MemoryNonceLedger struct {
	used *Cache[bool]
}

// NewMemoryNonceLedger builds a ledger whose entries expire after ttl, which
// should be at least the signature freshness window.
func NewMemoryNonceLedger(ttl time.Duration, maxSize int) *MemoryNonceLedger {
	return &MemoryNonceLedger{used: New[bool](ttl, maxSize)}
}

func (l *MemoryNonceLedger) IsUsed(_ context.Context, address, nonce string) (bool, error) {
	used, ok := l.used.Get(nonceKey(address, nonce))
	return ok && used, nil
}

func (l *MemoryNonceLedger) MarkUsed(_ context.Context, address, nonce string) (bool, error) {
	return l.used.Add(nonceKey(address, nonce), true), nil
}

// Cleanup purges expired markers; wired into the bootstrap sweep loop.
func (l *MemoryNonceLedger) Cleanup() int {
	return l.used.Cleanup()
}

func nonceKey(address, nonce string) string {
	return strings.ToLower(address) + ":" + nonce
}
