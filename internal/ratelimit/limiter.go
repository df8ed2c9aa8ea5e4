package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a Redis-backed sliding window rate limiter keyed by caller.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewLimiter constructs a limiter allowing limit events per window.
func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window}
}

// Allow records an event for key and reports whether it fits in the window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.client == nil || l.limit <= 0 {
		return true, nil
	}

	now := time.Now()
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, int64(l.window.Seconds()))
	windowStart := now.Add(-l.window).UnixNano()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart))
	zcard := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	pipe.Expire(ctx, redisKey, l.window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	return zcard.Val() < int64(l.limit), nil
}
