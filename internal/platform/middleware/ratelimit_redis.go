package middleware

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "claimease:rl:"

// RedisLimiter is a fixed-window counter shared by every server instance.
// Each window allows BurstSize + RequestsPerSecond*window requests.
type RedisLimiter struct {
	client redis.Cmdable
	window time.Duration
	limit  int64
	now    func() time.Time
}

func NewRedisLimiter(client redis.Cmdable, cfg RateLimitConfig, window time.Duration) *RedisLimiter {
	if window <= 0 {
		window = time.Second
	}
	limit := int64(cfg.BurstSize) + int64(math.Ceil(cfg.RequestsPerSecond*window.Seconds()))
	return &RedisLimiter{client: client, window: window, limit: limit, now: time.Now}
}

// Allow increments the counter for key in the current window. INCR and
// EXPIRE run in one pipeline so a new window key never lives forever.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := r.now()
	windowStart := now.Truncate(r.window)
	redisKey := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, key, windowStart.Unix())

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, r.window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit counter: %w", err)
	}

	count := incr.Val()
	d := Decision{Limit: int(r.limit)}
	if count > r.limit {
		d.RetryAfter = windowStart.Add(r.window).Sub(now)
		return d, nil
	}
	d.Allowed = true
	d.Remaining = int(r.limit - count)
	return d, nil
}

// FallbackLimiter uses primary and switches to fallback when primary errors.
type FallbackLimiter struct {
	Primary  Limiter
	Fallback Limiter
}

func (f FallbackLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	d, err := f.Primary.Allow(ctx, key)
	if err == nil || f.Fallback == nil {
		return d, err
	}
	return f.Fallback.Allow(ctx, key)
}
