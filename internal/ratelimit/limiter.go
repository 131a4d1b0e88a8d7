package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Limiter provides Redis-backed per-client rate limiting over fixed minute
// windows. It is shared across instances, so horizontally scaled deployments
// enforce one global limit per client.
type Limiter struct {
	redis *redis.Client
	rpm   int
}

// NewLimiter connects to Redis and returns a limiter allowing rpm requests
// per client per minute.
func NewLimiter(redisURL string, rpm int) (*Limiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Limiter{redis: client, rpm: rpm}, nil
}

// Close closes the Redis connection.
func (l *Limiter) Close() error { return l.redis.Close() }

// Allow reports whether the client may proceed, with the seconds remaining
// until the current window resets when it may not.
func (l *Limiter) Allow(ctx context.Context, clientID string) (allowed bool, resetSec int, err error) {
	now := time.Now().UTC()
	window := now.Unix() / 60
	key := fmt.Sprintf("rl:%s:%d", clientID, window)

	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	if int(incr.Val()) > l.rpm {
		return false, 60 - int(now.Unix()%60), nil
	}
	return true, 0, nil
}
