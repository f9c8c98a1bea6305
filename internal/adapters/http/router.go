package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ethosgate/reputation-gate/internal/ports"
)

// RouterConfig wires transport-level concerns that sit in front of the
// decision engine.
type RouterConfig struct {
	AllowedOrigins []string
	RateLimits     RateLimitCeilings
	RateStore      ports.RateLimitStore
	Metrics        http.Handler
}

// NewRouter registers the gate's routes behind the middleware chain. Ordering
// matters: the rate limiter runs before any body reaches a handler, and the
// security headers apply to rejections too.
func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(corsMiddleware(cfg.AllowedOrigins))
	r.Use(loggingMiddleware)
	r.Use(rateLimitMiddleware(cfg.RateStore, cfg.RateLimits))

	r.Get("/health", handler.health)
	r.Get("/", handler.index)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/check-access", handler.checkAccess)
		r.Post("/access-token", handler.accessToken)
		r.Post("/verify-token", handler.verifyToken)
	})

	return r
}
