package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/ethosgate/reputation-gate/internal/adapters/cache"
	"github.com/ethosgate/reputation-gate/internal/adapters/ethos"
	grpcadapter "github.com/ethosgate/reputation-gate/internal/adapters/grpc"
	httpadapter "github.com/ethosgate/reputation-gate/internal/adapters/http"
	"github.com/ethosgate/reputation-gate/internal/adapters/ratelimit"
	"github.com/ethosgate/reputation-gate/internal/adapters/security"
	"github.com/ethosgate/reputation-gate/internal/application"
	"github.com/ethosgate/reputation-gate/internal/ports"
)

// Runtime owns the wired process: servers, stores and the maintenance loop.
type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	upstream   *ethos.Client
	sweepFns   []func() int
	cleanupFn  func()
}

// NewRuntime loads configuration and wires every adapter. When no redis URL
// is configured the nonce ledger and rate-limit store fall back to process
// memory; see the Config.RedisURL note for the multi-instance caveat.
func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping reputation gate", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	rt := &Runtime{cfg: cfg, logger: logger, cleanupFn: func() {}}

	var (
		nonces    ports.NonceLedger
		rateStore ports.RateLimitStore
	)
	if cfg.RedisURL != "" {
		redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		nonces = cacheadapter.NewRedisNonceLedger(redisClient, cfg.NonceTTL)
		rateStore = ratelimit.NewRedisStore(redisClient, cfg.RateWindow)
		rt.cleanupFn = func() { _ = redisClient.Close() }
		logger.Info("using redis-backed nonce ledger and rate limiter")
	} else {
		memNonces := cacheadapter.NewMemoryNonceLedger(cfg.NonceTTL, cfg.NonceMaxSize)
		memRates := ratelimit.NewMemoryStore(cfg.RateWindow, cfg.RateMaxKeys, cfg.RateSweepEvery)
		nonces = memNonces
		rateStore = memRates
		rt.sweepFns = append(rt.sweepFns, memNonces.Cleanup, memRates.Sweep)
		logger.Warn("no redis configured; nonce and rate-limit state is per-instance only")
	}

	signer, err := security.NewHMACSigner(cfg.SigningSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token signer: %w", err)
	}

	rt.upstream = ethos.New(ethos.Config{
		BaseURL:      cfg.EthosBaseURL,
		Timeout:      cfg.EthosTimeout,
		CacheTTL:     cfg.CacheTTL,
		CacheMaxSize: cfg.CacheMaxSize,
	})

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			FreshnessWindow: cfg.FreshnessWindow,
		},
		Reputation: rt.upstream,
		Nonces:     nonces,
		Signer:     signer,
		Recoverer:  security.PersonalSignRecoverer{},
	})

	handler := httpadapter.NewHandler(svc)
	router := httpadapter.NewRouter(handler, httpadapter.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		RateStore:      rateStore,
		RateLimits: httpadapter.RateLimitCeilings{
			IP:      cfg.IPCeiling,
			Address: cfg.AddressCeiling,
			Combo:   cfg.ComboCeiling,
		},
		Metrics: promhttp.Handler(),
	})

	rt.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcLis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return nil, fmt.Errorf("listen grpc: %w", err)
	}
	rt.grpcLis = grpcLis
	rt.grpcServer = grpc.NewServer()
	grpcadapter.Register(rt.grpcServer, grpcadapter.NewGateInternalServer(svc))
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(rt.grpcServer, healthSrv)

	return rt, nil
}

// Run serves HTTP and gRPC until the context is cancelled or a signal
// arrives, then shuts down gracefully.
func (rt *Runtime) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer rt.cleanupFn()

	errCh := make(chan error, 2)
	go func() {
		rt.logger.Info("http server listening", "addr", rt.httpServer.Addr)
		if err := rt.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		rt.logger.Info("grpc server listening", "addr", rt.grpcLis.Addr().String())
		if err := rt.grpcServer.Serve(rt.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	go rt.maintenanceLoop(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rt.grpcServer.GracefulStop()
	if err := rt.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	rt.logger.Info("shutdown complete")
	return nil
}

// maintenanceLoop periodically purges expired cache, nonce and rate-window
// entries so the request path never pays for bulk expiry scans.
func (rt *Runtime) maintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(rt.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := 0
			for _, sweep := range rt.sweepFns {
				removed += sweep()
			}
			scores, profiles := rt.upstream.Cleanup()
			rt.logger.Info("cache cleanup",
				"operation", "cache_cleanup",
				"removed", removed,
				"score_entries", scores.Size,
				"profile_entries", profiles.Size,
			)
		}
	}
}
