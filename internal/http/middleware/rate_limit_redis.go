package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Atomic fixed-window counter: first hit in a window sets the expiry, so
// a crashed client cannot leave an immortal key.
var redisFixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

type redisFixedWindowLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisFixedWindowLimiter(client redis.UniversalClient, prefix string) Limiter {
	if prefix == "" {
		prefix = "rate"
	}
	return &redisFixedWindowLimiter{client: client, prefix: prefix}
}

func (rl *redisFixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	res, err := redisFixedWindowScript.Run(ctx, rl.client,
		[]string{rl.prefix + ":" + key},
		window.Milliseconds(),
	).Slice()
	if err != nil {
		return false, 0, err
	}

	count, _ := res[0].(int64)
	ttlMs, _ := res[1].(int64)
	if ttlMs < 0 {
		ttlMs = window.Milliseconds()
	}
	retryAfter := time.Duration(ttlMs) * time.Millisecond

	if count > int64(limit) {
		return false, retryAfter, nil
	}
	return true, 0, nil
}
