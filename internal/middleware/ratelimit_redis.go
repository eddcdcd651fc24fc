package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// DefaultRateLimitPrefix namespaces limiter keys in a shared Redis
const DefaultRateLimitPrefix = "lending:rate_limit"

// RedisLimiter is a fixed-window limiter shared by every API instance
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter creates a Redis-backed limiter allowing Rate+Burst requests per Window
func NewRedisLimiter(client redis.UniversalClient, prefix string, cfg RateLimitConfig) *RedisLimiter {
	cfg = cfg.withDefaults()

	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultRateLimitPrefix
	}

	window := cfg.Window
	if window < time.Second {
		window = time.Second
	}

	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  cfg.Rate + cfg.Burst,
		window: window,
		now:    time.Now,
	}
}

// Allow increments key's counter for the current window
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	raw, err := fixedWindowScript.Run(ctx, l.client, []string{l.key(key)}, l.window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}

	count, ttl, err := parseWindowResult(raw, l.window)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: int(max(int64(l.limit)-count, 0)),
		ResetAt:   l.now().Add(ttl),
	}, nil
}

func (l *RedisLimiter) key(subject string) string {
	return l.prefix + ":" + subject
}

func parseWindowResult(raw interface{}, window time.Duration) (int64, time.Duration, error) {
	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit response shape: %T", raw)
	}

	count, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected rate limit count type: %T", values[0])
	}

	ttlMs, ok := values[1].(int64)
	if !ok {
		return count, 0, fmt.Errorf("unexpected rate limit ttl type: %T", values[1])
	}
	if ttlMs < 0 {
		return count, window, nil
	}

	return count, time.Duration(ttlMs) * time.Millisecond, nil
}
