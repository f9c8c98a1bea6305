package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the gate.
// It merges file defaults and environment overrides to support both local and
// deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	// SigningSecret signs access credentials. Required: starting without it is
	// a configuration error, never a silent default key.
	SigningSecret string
	TokenTTL      time.Duration

	// RedisURL is optional. When empty the nonce ledger and rate-limit store
	// run in process memory, which is only safe for single-instance
	// deployments: without a shared redis, replay and throttle protection are
	// per-instance, not global.
	RedisURL string

	EthosBaseURL string
	EthosTimeout time.Duration
	CacheTTL     time.Duration
	CacheMaxSize int

	NonceTTL     time.Duration
	NonceMaxSize int

	FreshnessWindow time.Duration

	RateWindow     time.Duration
	RateMaxKeys    int
	RateSweepEvery time.Duration
	IPCeiling      int
	AddressCeiling int
	ComboCeiling   int

	AllowedOrigins  []string
	CleanupInterval time.Duration
}

// configFile mirrors the YAML schema used by configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		RedisURL     string `yaml:"redis_url"`
		EthosBaseURL string `yaml:"ethos_base_url"`
	} `yaml:"dependencies"`
	Cors struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimits struct {
		IP      int `yaml:"ip_per_minute"`
		Address int `yaml:"address_per_minute"`
		Combo   int `yaml:"combo_per_minute"`
	} `yaml:"rate_limits"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:       "reputation-gate",
		HTTPPort:        8000,
		GRPCPort:        9000,
		TokenTTL:        5 * time.Minute,
		EthosBaseURL:    "https://api.ethos.network/api/v2",
		EthosTimeout:    8 * time.Second,
		CacheTTL:        5 * time.Minute,
		CacheMaxSize:    1000,
		NonceTTL:        5 * time.Minute,
		NonceMaxSize:    100000,
		FreshnessWindow: 60 * time.Second,
		RateWindow:      time.Minute,
		RateMaxKeys:     10000,
		RateSweepEvery:  5 * time.Minute,
		IPCeiling:       60,
		AddressCeiling:  30,
		ComboCeiling:    30,
		AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
		CleanupInterval: 10 * time.Minute,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.EthosBaseURL != "" {
			cfg.EthosBaseURL = f.Dependencies.EthosBaseURL
		}
		if len(f.Cors.AllowedOrigins) > 0 {
			cfg.AllowedOrigins = f.Cors.AllowedOrigins
		}
		if f.RateLimits.IP > 0 {
			cfg.IPCeiling = f.RateLimits.IP
		}
		if f.RateLimits.Address > 0 {
			cfg.AddressCeiling = f.RateLimits.Address
		}
		if f.RateLimits.Combo > 0 {
			cfg.ComboCeiling = f.RateLimits.Combo
		}
	}

	applyEnv(&cfg)

	if strings.TrimSpace(cfg.SigningSecret) == "" {
		return Config{}, errors.New("GATE_SIGNING_SECRET is required; generate one with: openssl rand -base64 32")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GATE_SERVICE_ID"); v != "" {
		cfg.ServiceID = v
	}
	cfg.HTTPPort = envInt("GATE_HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GATE_GRPC_PORT", cfg.GRPCPort)
	if v := os.Getenv("GATE_SIGNING_SECRET"); v != "" {
		cfg.SigningSecret = v
	}
	cfg.TokenTTL = envDuration("GATE_TOKEN_TTL", cfg.TokenTTL)
	if v := os.Getenv("GATE_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("GATE_ETHOS_BASE_URL"); v != "" {
		cfg.EthosBaseURL = v
	}
	cfg.EthosTimeout = envDuration("GATE_ETHOS_TIMEOUT", cfg.EthosTimeout)
	cfg.CacheTTL = envDuration("GATE_CACHE_TTL", cfg.CacheTTL)
	cfg.CacheMaxSize = envInt("GATE_CACHE_MAX_SIZE", cfg.CacheMaxSize)
	cfg.NonceTTL = envDuration("GATE_NONCE_TTL", cfg.NonceTTL)
	cfg.FreshnessWindow = envDuration("GATE_FRESHNESS_WINDOW", cfg.FreshnessWindow)
	cfg.IPCeiling = envInt("GATE_RATE_LIMIT_IP", cfg.IPCeiling)
	cfg.AddressCeiling = envInt("GATE_RATE_LIMIT_ADDRESS", cfg.AddressCeiling)
	cfg.ComboCeiling = envInt("GATE_RATE_LIMIT_COMBO", cfg.ComboCeiling)
	if v := os.Getenv("GATE_ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
		cfg.AllowedOrigins = origins
	}
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
