package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ethosgate/reputation-gate/internal/domain"
	"github.com/ethosgate/reputation-gate/internal/observability"
	"github.com/ethosgate/reputation-gate/internal/ports"
)

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

// maxBodyPeek bounds how much of a request body the rate limiter will read to
// extract an address.
const maxBodyPeek = 1 << 20

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpLogger().ErrorContext(r.Context(), "panic recovered",
					"operation", "http_panic_recovery",
					"outcome", "failure",
					"request_id", requestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeGateError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimSpace(origin)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

// loggingMiddleware logs method, path and status only. Query strings are
// deliberately excluded: they can carry addresses.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		outcome := "success"
		if statusCode >= 400 {
			outcome = "failure"
		}

		fields := []any{
			"operation", "http_request",
			"outcome", outcome,
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", statusCode,
			"bytes", recorder.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		}
		switch {
		case statusCode >= 500:
			httpLogger().ErrorContext(r.Context(), "http request completed", fields...)
		case statusCode >= 400:
			httpLogger().WarnContext(r.Context(), "http request completed", fields...)
		default:
			httpLogger().InfoContext(r.Context(), "http request completed", fields...)
		}
	})
}

// RateLimitCeilings carries the per-key-class ceilings for one 60s window.
type RateLimitCeilings struct {
	IP      int
	Address int
	Combo   int
}

// rateLimitMiddleware gates every request by caller IP, and the sensitive
// check-access endpoint additionally by wallet address and by the ip:address
// composite. Store errors fail open: degraded throttling is preferred over a
// hard outage.
func rateLimitMiddleware(store ports.RateLimitStore, ceilings RateLimitCeilings) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := readIP(r)

			decision, err := store.Check(r.Context(), "ip:"+ip, ceilings.IP)
			if err != nil {
				logRateLimitUnavailable(r.Context(), err)
			} else if !decision.Allowed {
				observability.RateLimited.WithLabelValues("ip").Inc()
				writeRateLimited(w, domain.ErrRateLimited.Error(), decision.RetryAfter)
				return
			}

			if r.Method == http.MethodPost && r.URL.Path == "/api/check-access" {
				if address, ok := peekAddress(r); ok {
					for _, check := range []struct {
						class   string
						key     string
						ceiling int
					}{
						{"address", "addr:" + address, ceilings.Address},
						{"combo", "combo:" + ip + ":" + address, ceilings.Combo},
					} {
						decision, err := store.Check(r.Context(), check.key, check.ceiling)
						if err != nil {
							logRateLimitUnavailable(r.Context(), err)
							continue
						}
						if !decision.Allowed {
							observability.RateLimited.WithLabelValues(check.class).Inc()
							writeRateLimited(w, "Rate limit exceeded for this address. Please try again later.", decision.RetryAfter)
							return
						}
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// peekAddress reads the request body to extract a well-formed address for
// rate-limit keying, then restores the body for the handler. A malformed body
// is not an error here; the handler rejects it with a proper response.
func peekAddress(r *http.Request) (string, bool) {
	if r.Body == nil {
		return "", false
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyPeek))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return "", false
	}

	var body struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", false
	}
	address, err := domain.NormalizeAddress(body.Address)
	if err != nil {
		return "", false
	}
	return address, true
}

func logRateLimitUnavailable(ctx context.Context, err error) {
	httpLogger().WarnContext(ctx, "rate-limit state unavailable",
		"operation", "rate_limit",
		"outcome", "warning",
		"request_id", requestIDFromContext(ctx),
		"error", err.Error(),
	)
}

func requestIDFromContext(ctx context.Context) string {
	v := ctx.Value(ctxKeyRequestID)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func readIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host := strings.TrimSpace(r.RemoteAddr)
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	if host == "" {
		return "unknown"
	}
	return host
}

// mapGateError converts domain sentinels into the wire taxonomy. Auth
// failures reveal the taxonomy item only; anything unrecognized becomes an
// opaque 500.
func mapGateError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrAddressRequired),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrNonceRequired),
		errors.Is(err, domain.ErrIssuedAtRequired),
		errors.Is(err, domain.ErrInvalidIssuedAt),
		errors.Is(err, domain.ErrTokenAddressMismatch):
		return http.StatusBadRequest, sentinelMessage(err)
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrSignatureRequired),
		errors.Is(err, domain.ErrSignatureExpired),
		errors.Is(err, domain.ErrNonceUsed),
		errors.Is(err, domain.ErrSignatureMismatch),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrProofRequired):
		return http.StatusUnauthorized, sentinelMessage(err)
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, domain.ErrRateLimited.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// sentinelMessage strips wrapping detail so responses carry only the
// taxonomy item's canonical text.
func sentinelMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrAddressRequired,
		domain.ErrInvalidAddress,
		domain.ErrSignatureRequired,
		domain.ErrNonceRequired,
		domain.ErrIssuedAtRequired,
		domain.ErrInvalidIssuedAt,
		domain.ErrSignatureExpired,
		domain.ErrNonceUsed,
		domain.ErrSignatureMismatch,
		domain.ErrInvalidToken,
		domain.ErrTokenAddressMismatch,
		domain.ErrProofRequired,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
