package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/placechase/placechase-api/internal/models"
)

const cacheKeyPrefix = "placechase:highscores:"

// Cache is a short-lived Redis read cache for ranked views. It is strictly
// best-effort: any Redis error degrades to a cache miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewCache wraps a Redis client. A ttl <= 0 defaults to 30 seconds.
func NewCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{client: client, ttl: ttl, logger: logger.Sugar()}
}

func cacheKey(limit int) string {
	return fmt.Sprintf("%s%d", cacheKeyPrefix, limit)
}

// GetRanked returns a cached ranked view, if present.
func (c *Cache) GetRanked(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool) {
	raw, err := c.client.Get(ctx, cacheKey(limit)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debugw("Leaderboard cache read failed", "error", err)
		}
		return nil, false
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// SetRanked stores a ranked view under the limit it was fetched with.
func (c *Cache) SetRanked(ctx context.Context, limit int, entries []models.LeaderboardEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(limit), raw, c.ttl).Err(); err != nil {
		c.logger.Debugw("Leaderboard cache write failed", "error", err)
	}
}

// Invalidate drops every cached view. Views are keyed by limit, so the keys
// are scanned by prefix.
func (c *Cache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Debugw("Leaderboard cache scan failed", "error", err)
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.logger.Debugw("Leaderboard cache invalidation failed", "error", err)
		}
	}
}
