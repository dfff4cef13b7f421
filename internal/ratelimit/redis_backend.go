package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisBackend shares buckets across a horizontally-scaled deployment via
// INCR+EXPIRE, matching the ping-on-construct / typed-wrapper lifecycle the
// rest of this codebase uses for its Redis clients.
type RedisBackend struct {
	rdb *goredis.Client
}

func NewRedisBackend(addr string) (*RedisBackend, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisBackend{rdb: rdb}, nil
}

func (b *RedisBackend) Close() error { return b.rdb.Close() }

func (b *RedisBackend) Increment(ctx context.Context, scope, identity string, window time.Duration) (int64, time.Duration, error) {
	key := "ratelimit:" + scope + ":" + identity

	count, err := b.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := b.rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		return count, window, nil
	}
	ttl, err := b.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		ttl = window
	}
	return count, ttl, nil
}
