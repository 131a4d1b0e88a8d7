package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/rajasatyajit/TravelAdvisor/internal/logger"
	"github.com/rajasatyajit/TravelAdvisor/internal/metrics"
	"github.com/rajasatyajit/TravelAdvisor/internal/models"
)

// InsightCache caches computed country insights in Redis. A nil *InsightCache
// is valid and behaves as a permanent miss, so callers never have to check
// whether caching is configured.
type InsightCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and returns the cache. An empty URL yields a nil
// cache rather than an error.
func New(redisURL string, ttl time.Duration) (*InsightCache, error) {
	if redisURL == "" {
		logger.Info("REDIS_URL not set; insight caching disabled")
		return nil, nil
	}

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

	logger.Info("Insight cache enabled", "ttl", ttl)
	return &InsightCache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *InsightCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// GetInsight returns the cached insight for a country, or (nil, false) on a
// miss. Redis errors are treated as misses so the caller recomputes.
func (c *InsightCache) GetInsight(ctx context.Context, country string) (*models.CountryInsight, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, insightKey(country)).Bytes()
	if err == redis.Nil {
		metrics.RecordInsightCacheLookup("miss")
		return nil, false
	}
	if err != nil {
		metrics.RecordInsightCacheLookup("error")
		logger.Warn("Insight cache read failed", "country", country, "error", err)
		return nil, false
	}

	var insight models.CountryInsight
	if err := json.Unmarshal(raw, &insight); err != nil {
		metrics.RecordInsightCacheLookup("error")
		logger.Warn("Insight cache decode failed", "country", country, "error", err)
		return nil, false
	}

	metrics.RecordInsightCacheLookup("hit")
	return &insight, true
}

// SetInsight stores an insight with the configured TTL. Failures are logged
// and swallowed; the cache is best effort.
func (c *InsightCache) SetInsight(ctx context.Context, country string, insight *models.CountryInsight) {
	if c == nil || insight == nil {
		return
	}

	raw, err := json.Marshal(insight)
	if err != nil {
		logger.Warn("Insight cache encode failed", "country", country, "error", err)
		return
	}
	if err := c.client.Set(ctx, insightKey(country), raw, c.ttl).Err(); err != nil {
		logger.Warn("Insight cache write failed", "country", country, "error", err)
	}
}

// Invalidate drops all cached insights. Called after a pipeline run lands
// fresh advisories.
func (c *InsightCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, "insight:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn("Insight cache scan failed", "error", err)
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			logger.Warn("Insight cache invalidation failed", "error", err)
		}
	}
}

func insightKey(country string) string {
	return "insight:" + strings.ToLower(strings.TrimSpace(country))
}
