package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.StatsCache = (*StatsCache)(nil)

const (
	statsPrefix = "medivault:stats:"

	// DefaultStatsTTL bounds how stale a cached window can get when no new
	// query invalidates it
	DefaultStatsTTL = 5 * time.Minute
)

// StatsCache implements driven.StatsCache using Redis.
// Each user has one hash; every stats window is a field of it, so a single
// DEL invalidates all windows at once.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a new Redis-backed StatsCache.
// A non-positive ttl selects DefaultStatsTTL.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(userID string) string {
	return statsPrefix + userID
}

// Get returns the cached stats for the window, or nil, nil on a miss
func (c *StatsCache) Get(ctx context.Context, userID string, days int) (*domain.QueryStatsSummary, error) {
	data, err := c.client.HGet(ctx, statsKey(userID), strconv.Itoa(days)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached stats: %w", err)
	}

	var stats domain.QueryStatsSummary
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached stats: %w", err)
	}
	return &stats, nil
}

// Set caches the stats for the window
func (c *StatsCache) Set(ctx context.Context, userID string, days int, stats *domain.QueryStatsSummary) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	key := statsKey(userID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, strconv.Itoa(days), data)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache stats: %w", err)
	}
	return nil
}

// Invalidate drops every cached window of the user
func (c *StatsCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, statsKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stats: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (c *StatsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
