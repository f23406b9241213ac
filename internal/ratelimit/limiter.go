// Package ratelimit bounds how often a session may attempt to place an order.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/dine-in-preorder/internal/cache"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/config"
	"github.com/redis/go-redis/v9"
)

const OrderAttemptsPrefix = "order_attempts"

// Decision is the outcome of one attempt. RetryAfter is set only when denied.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// redisLimiter keeps one sorted set per key: scores are attempt times in
// milliseconds, members are unique per attempt.
type redisLimiter struct {
	client *redis.Client
	cfg    *config.RateConfig
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, cfg *config.RateConfig) Limiter {
	return &redisLimiter{client: client, cfg: cfg, now: time.Now}
}

// Key shares the cache namespace so one redis can serve both.
func Key(sessionID string) string {
	return cache.Key(OrderAttemptsPrefix, sessionID)
}

// Allow records an attempt and reports whether it fits in the window.
func (r *redisLimiter) Allow(ctx context.Context, key string) (Decision, error) {

	now := r.now()
	nowMs := now.UnixMilli()
	windowStart := nowMs - r.cfg.WindowSize.Milliseconds()

	pipe := r.client.Pipeline()

	// drop attempts that left the window
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMs), Member: strconv.FormatInt(now.UnixNano(), 10)})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, r.cfg.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()

	if attempts <= r.cfg.MaxAttempts {
		return Decision{Allowed: true, Remaining: r.cfg.MaxAttempts - attempts}, nil
	}

	scores, err := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{Key: key, Start: 0, Stop: 0}).Result()
	if err != nil {
		return Decision{RetryAfter: r.cfg.WindowSize}, fmt.Errorf("failed to get oldest attempt time: %w", err)
	}

	if len(scores) == 0 {
		return Decision{RetryAfter: r.cfg.WindowSize}, nil
	}

	oldestMs := int64(scores[0].Score)
	retryAfter := max(time.Duration(oldestMs+r.cfg.WindowSize.Milliseconds()-nowMs)*time.Millisecond, 0)

	return Decision{RetryAfter: retryAfter}, nil
}
