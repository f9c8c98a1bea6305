package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ethosgate/reputation-gate/internal/ports"
)

// RedisStore shares rate windows across gate instances. The key expiry is set
// when a window opens and never extended, so a rejected caller is unblocked as
// soon as the original window lapses.
type RedisStore struct {
	client *redis.Client
	window time.Duration
}

func NewRedisStore(client *redis.Client, window time.Duration) *RedisStore {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisStore{client: client, window: window}
}

func (s *RedisStore) Check(ctx context.Context, key string, ceiling int) (ports.RateDecision, error) {
	redisKey := "gate:rate:" + key

	raw, err := s.client.Get(ctx, redisKey).Result()
	if err != nil && err != redis.Nil {
		return ports.RateDecision{}, err
	}
	if err == nil {
		count, convErr := strconv.Atoi(raw)
		if convErr == nil && count >= ceiling {
			retry, ttlErr := s.client.TTL(ctx, redisKey).Result()
			if ttlErr != nil || retry <= 0 {
				retry = s.window
			}
			return ports.RateDecision{Allowed: false, RetryAfter: retry}, nil
		}
	}

	n, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return ports.RateDecision{}, err
	}
	if n == 1 {
		_ = s.client.Expire(ctx, redisKey, s.window).Err()
	}
	remaining := ceiling - int(n)
	if remaining < 0 {
		remaining = 0
	}
	return ports.RateDecision{Allowed: int(n) <= ceiling, Remaining: remaining}, nil
}
