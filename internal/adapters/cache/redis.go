package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect opens a redis client from either a redis:// URL or a bare host:port.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisNonceLedger is the durable anti-replay ledger. SetNX gives atomic
// first-use across every gate instance sharing the redis.
type RedisNonceLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisNonceLedger(client *redis.Client, ttl time.Duration) *RedisNonceLedger {
	return &RedisNonceLedger{client: client, ttl: ttl}
}

func (l *RedisNonceLedger) IsUsed(ctx context.Context, address, nonce string) (bool, error) {
	n, err := l.client.Exists(ctx, "gate:nonce:"+nonceKey(address, nonce)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *RedisNonceLedger) MarkUsed(ctx context.Context, address, nonce string) (bool, error) {
	return l.client.SetNX(ctx, "gate:nonce:"+nonceKey(address, nonce), "1", l.ttl).Result()
}
