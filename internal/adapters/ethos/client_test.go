package ethos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const testAddress = "0xab5801a7d398351b8be11c439e05c5b3259aec9b"

func newUpstream(t *testing.T, scoreStatus, profileStatus int, score int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/score/address", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("X-Ethos-Client") == "" {
			t.Errorf("missing client header")
		}
		if scoreStatus != http.StatusOK {
			w.WriteHeader(scoreStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"score": score})
	})
	mux.HandleFunc("/user/by/address/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !strings.HasSuffix(r.URL.Path, testAddress) {
			t.Errorf("unexpected profile path %s", r.URL.Path)
		}
		if profileStatus != http.StatusOK {
			w.WriteHeader(profileStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int{
			"id":                  7,
			"vouchCount":          3,
			"reviewCount":         12,
			"positiveReviewCount": 10,
			"negativeReviewCount": 2,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFetchAssemblesSnapshot(t *testing.T) {
	t.Parallel()

	srv, hits := newUpstream(t, http.StatusOK, http.StatusOK, 1850)
	client := New(Config{BaseURL: srv.URL})

	snap := client.Fetch(context.Background(), testAddress)
	if snap.Score != 1850 || snap.VouchCount != 3 || snap.ReviewCount != 12 ||
		snap.PositiveReviewCount != 10 || snap.NegativeReviewCount != 2 || !snap.Registered {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", hits.Load())
	}

	// Second fetch is served from cache.
	_ = client.Fetch(context.Background(), testAddress)
	if hits.Load() != 2 {
		t.Fatalf("cached fetch must not hit upstream, got %d calls", hits.Load())
	}
}

func TestFetchNotFoundIsUnregisteredAndCached(t *testing.T) {
	t.Parallel()

	srv, hits := newUpstream(t, http.StatusNotFound, http.StatusNotFound, 0)
	client := New(Config{BaseURL: srv.URL})

	snap := client.Fetch(context.Background(), testAddress)
	if snap.Score != 0 || snap.Registered {
		t.Fatalf("404 must yield an unregistered zero snapshot: %+v", snap)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", hits.Load())
	}

	// A definitive 404 is cached like any other answer.
	_ = client.Fetch(context.Background(), testAddress)
	if hits.Load() != 2 {
		t.Fatalf("404 result must be cached, got %d calls", hits.Load())
	}
}

func TestFetchDegradedIsNotCached(t *testing.T) {
	t.Parallel()

	srv, hits := newUpstream(t, http.StatusInternalServerError, http.StatusInternalServerError, 0)
	client := New(Config{BaseURL: srv.URL})

	snap := client.Fetch(context.Background(), testAddress)
	if snap.Score != 0 || snap.Registered {
		t.Fatalf("degraded fetch must yield zero snapshot: %+v", snap)
	}
	first := hits.Load()

	// A degraded answer is not cached: the next request retries upstream.
	_ = client.Fetch(context.Background(), testAddress)
	if hits.Load() == first {
		t.Fatalf("degraded result must not be cached")
	}
}

func TestFetchUnreachableUpstream(t *testing.T) {
	t.Parallel()

	client := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 500 * time.Millisecond})
	snap := client.Fetch(context.Background(), testAddress)
	if snap.Score != 0 || snap.Registered {
		t.Fatalf("network failure must degrade to zero snapshot: %+v", snap)
	}
}
