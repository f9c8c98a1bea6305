package ports

import (
	"context"
	"time"
)

// NonceLedger records consumed (address, nonce) pairs for the signature
// freshness window.
type NonceLedger interface {
	// IsUsed reports whether the pair was already consumed.
	IsUsed(ctx context.Context, address, nonce string) (bool, error)
	// MarkUsed consumes the pair. It reports whether this call was the first
	// use; a false return means a concurrent or earlier request already
	// consumed the nonce. The check-and-set is atomic per key.
	MarkUsed(ctx context.Context, address, nonce string) (bool, error)
}

// RateDecision is the outcome of a single rate-limit check.
type RateDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimitStore tracks fixed-window call counts per key. A rejected call must
// not advance the counter.
type RateLimitStore interface {
	Check(ctx context.Context, key string, ceiling int) (RateDecision, error)
}
