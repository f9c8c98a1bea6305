// Package ethos is the HTTP adapter for the upstream reputation provider.
package ethos

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ethosgate/reputation-gate/internal/adapters/cache"
	"github.com/ethosgate/reputation-gate/internal/domain"
	"github.com/ethosgate/reputation-gate/internal/observability"
	"github.com/ethosgate/reputation-gate/internal/ports"
)

const clientID = "ethos-reputation-gate"

type scoreRecord struct {
	Score int
	// Registered is false when the score endpoint answered 404.
	Registered bool
}

type profileRecord struct {
	ID                  int  `json:"id"`
	VouchCount          int  `json:"vouchCount"`
	ReviewCount         int  `json:"reviewCount"`
	PositiveReviewCount int  `json:"positiveReviewCount"`
	NegativeReviewCount int  `json:"negativeReviewCount"`
	Registered          bool `json:"-"`
}

// Config carries the client's tunables; zero values fall back to defaults.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	CacheTTL     time.Duration
	CacheMaxSize int
}

// Client fetches score and profile counters through bounded expiring caches.
// Upstream failures degrade to zero-value results instead of propagating:
// callers must not be blocked because the provider is down.
type Client struct {
	baseURL    string
	httpClient *http.Client
	scores     *cache.Cache[scoreRecord]
	profiles   *cache.Cache[profileRecord]
}

// New builds a client. Defaults: 8s timeout, 5 minute cache TTL, 1000 entries
// per cache.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.CacheMaxSize <= 0 {
		cfg.CacheMaxSize = 1000
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		scores:     cache.New[scoreRecord](cfg.CacheTTL, cfg.CacheMaxSize),
		profiles:   cache.New[profileRecord](cfg.CacheTTL, cfg.CacheMaxSize),
	}
}

// Fetch assembles the snapshot for address, hitting score and profile
// endpoints concurrently on cache miss.
func (c *Client) Fetch(ctx context.Context, address string) ports.ReputationSnapshot {
	var (
		wg      sync.WaitGroup
		score   scoreRecord
		profile profileRecord
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		score = c.fetchScore(ctx, address)
	}()
	go func() {
		defer wg.Done()
		profile = c.fetchProfile(ctx, address)
	}()
	wg.Wait()

	return ports.ReputationSnapshot{
		Address:             address,
		Score:               score.Score,
		VouchCount:          profile.VouchCount,
		ReviewCount:         profile.ReviewCount,
		PositiveReviewCount: profile.PositiveReviewCount,
		NegativeReviewCount: profile.NegativeReviewCount,
		Registered:          score.Registered || profile.Registered,
	}
}

func (c *Client) fetchScore(ctx context.Context, address string) scoreRecord {
	if cached, ok := c.scores.Get(address); ok {
		observability.CacheHits.WithLabelValues("score").Inc()
		return cached
	}
	observability.CacheMisses.WithLabelValues("score").Inc()

	target := fmt.Sprintf("%s/score/address?%s", c.baseURL, url.Values{"address": {address}}.Encode())
	var payload struct {
		Score int `json:"score"`
	}
	status, err := c.getJSON(ctx, target, &payload)
	if err != nil {
		c.logDegraded(ctx, "score", address, err)
		return scoreRecord{}
	}
	switch {
	case status == http.StatusNotFound:
		// A definitive answer: the address is unregistered. Cache it.
		rec := scoreRecord{Score: 0, Registered: false}
		c.scores.Set(address, rec)
		return rec
	case status < 200 || status >= 300:
		c.logDegraded(ctx, "score", address, fmt.Errorf("status %d", status))
		return scoreRecord{}
	}

	rec := scoreRecord{Score: payload.Score, Registered: true}
	c.scores.Set(address, rec)
	c.logger().InfoContext(ctx, "score fetched",
		"operation", "fetch_score",
		"outcome", "success",
		"address", domain.MaskAddress(address),
		"score", rec.Score,
	)
	return rec
}

func (c *Client) fetchProfile(ctx context.Context, address string) profileRecord {
	if cached, ok := c.profiles.Get(address); ok {
		observability.CacheHits.WithLabelValues("profile").Inc()
		return cached
	}
	observability.CacheMisses.WithLabelValues("profile").Inc()

	target := fmt.Sprintf("%s/user/by/address/%s", c.baseURL, url.PathEscape(address))
	var payload profileRecord
	status, err := c.getJSON(ctx, target, &payload)
	if err != nil {
		c.logDegraded(ctx, "profile", address, err)
		return profileRecord{}
	}
	switch {
	case status == http.StatusNotFound:
		rec := profileRecord{Registered: false}
		c.profiles.Set(address, rec)
		return rec
	case status < 200 || status >= 300:
		c.logDegraded(ctx, "profile", address, fmt.Errorf("status %d", status))
		return profileRecord{}
	}

	payload.Registered = true
	c.profiles.Set(address, payload)
	return payload
}

// getJSON performs the GET and decodes a 2xx body into dst. Non-2xx statuses
// are returned to the caller undecoded so 404 can be told apart from outage.
func (c *Client) getJSON(ctx context.Context, target string, dst any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-Ethos-Client", clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

// Cleanup sweeps both caches; wired into the bootstrap maintenance loop.
func (c *Client) Cleanup() (scores, profiles cache.Stats) {
	c.scores.Cleanup()
	c.profiles.Cleanup()
	return c.scores.Stats(), c.profiles.Stats()
}

func (c *Client) logDegraded(ctx context.Context, endpoint, address string, err error) {
	observability.UpstreamFailures.Inc()
	c.logger().WarnContext(ctx, "upstream fetch degraded to zero snapshot",
		"operation", "fetch_"+endpoint,
		"outcome", "degraded",
		"address", domain.MaskAddress(address),
		"error", err.Error(),
	)
}

func (c *Client) logger() *slog.Logger {
	return slog.Default().With(
		"service", "reputation-gate",
		"module", "ethos",
		"layer", "adapter",
	)
}
