package ports

import "context"

// ReputationSnapshot is the immutable view of an address as reported by the
// upstream provider at fetch time.
type ReputationSnapshot struct {
	Address             string
	Score               int
	VouchCount          int
	ReviewCount         int
	PositiveReviewCount int
	NegativeReviewCount int
	// Registered is false when the provider answered 404 for the address.
	// Distinct from a degraded fetch, which also yields a zero snapshot but is
	// not cached.
	Registered bool
}

// ReputationProvider fetches score and profile counters for an address.
// Implementations never surface upstream failures: a degraded upstream yields
// a zero-value snapshot so callers are never blocked by provider outages.
type ReputationProvider interface {
	Fetch(ctx context.Context, address string) ReputationSnapshot
}
