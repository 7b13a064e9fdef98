package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements a sliding-window limiter over a Redis sorted set,
// used by the ingress API to bound upload and analyze-trigger rates per
// client. The algorithm is unchanged from the reference rate limiter this
// is adapted from; only the key naming (no tenant prefix — this spec has
// no multi-tenancy concept) and call site differ.
type RateLimiter struct {
	client *redis.Client
	script *redis.Script
}

// NewRateLimiter wraps an already-connected Redis client.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{
		client: client,
		script: redis.NewScript(rateLimitScript),
	}
}

const rateLimitScript = `
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, now .. '-' .. math.random(1000000))
		redis.call('PEXPIRE', key, ttl)
		return 1
	else
		redis.call('PEXPIRE', key, ttl)
		return 0
	end
`

// Allow reports whether a request identified by key is within limit
// requests per window. A Redis error is returned alongside false; the
// caller logs it and fails open (lets the request through) so rate
// limiting can never itself take the ingress API down.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	result, err := r.script.Run(ctx, r.client, []string{"ratelimit:" + key},
		float64(windowStart.UnixMilli()),
		float64(now.UnixMilli()),
		limit,
		window.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("coordinator: rate limit check: %w", err)
	}
	return result == 1, nil
}
