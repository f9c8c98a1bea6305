// Package observability exposes the gate's prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gate_access_decisions_total",
		Help: "Access decisions rendered, by outcome (granted, denied, rejected).",
	}, []string{"outcome"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gate_rate_limited_total",
		Help: "Requests rejected by the rate limiter, by key class.",
	}, []string{"class"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gate_cache_hits_total",
		Help: "Reputation cache hits, by cache.",
	}, []string{"cache"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gate_cache_misses_total",
		Help: "Reputation cache misses, by cache.",
	}, []string{"cache"})

	UpstreamFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gate_upstream_failures_total",
		Help: "Degraded upstream reputation fetches (network error or bad status).",
	})

	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gate_tokens_issued_total",
		Help: "Access tokens minted.",
	})
)
