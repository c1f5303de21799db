package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares windows between processes through Redis INCR.
type RedisLimiter struct {
	client *redis.Client
	rule   Rule
	prefix string
	logger *slog.Logger
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(log *slog.Logger, client *redis.Client, rule Rule) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &RedisLimiter{
		client: client,
		rule:   rule.normalized(),
		prefix: "beybot:ratelimit:",
		logger: log.With(slog.String("component", "ratelimit"), slog.String("backend", "redis")),
	}
}

// NewRedisClient parses url and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// fixedWindowScript increments the counter and starts the window on the
// first hit. A key left without a ttl gets one again.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.rule.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}
	count := int(res[0])
	ttl := time.Duration(res[1]) * time.Millisecond
	return Decision{
		Allowed:   count <= l.rule.Max,
		Limit:     l.rule.Max,
		Remaining: max(l.rule.Max-count, 0),
		ResetAt:   time.Now().Add(ttl),
	}, nil
}
