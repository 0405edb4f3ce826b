// internal/cache/rankings_cache.go
// TTL-bounded read-through cache for per-group rankings

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"matchcore/internal/models"
)

// RankingsCache wraps a Redis client with the one read path this core
// specifies: a group's players ordered by rating, refreshed on a TTL and
// invalidated immediately after any write on the group.
type RankingsCache struct {
	client *redis.Client
	logger *logrus.Entry
	ttl    time.Duration
}

func NewRankingsCache(client *redis.Client, logger *logrus.Entry, ttl time.Duration) *RankingsCache {
	return &RankingsCache{client: client, logger: logger, ttl: ttl}
}

func rankingsKey(groupID string) string {
	return fmt.Sprintf("rankings:%s", groupID)
}

// Get runs authorize, then — only if it succeeds — consults the cache.
// Authorization MUST precede any cache lookup per the concurrency model;
// this signature makes that ordering impossible to get backwards. A nil
// backing client (cache not configured) is treated as a permanent miss.
func (c *RankingsCache) Get(ctx context.Context, groupID string, authorize func() error) ([]models.Player, bool, error) {
	if err := authorize(); err != nil {
		return nil, false, err
	}
	if c.client == nil {
		return nil, false, nil
	}

	data, err := c.client.Get(ctx, rankingsKey(groupID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		c.logger.WithError(err).WithField("group_id", groupID).Warn("rankings cache get failed")
		return nil, false, nil
	}

	var players []models.Player
	if err := json.Unmarshal(data, &players); err != nil {
		c.logger.WithError(err).WithField("group_id", groupID).Warn("rankings cache unmarshal failed")
		return nil, false, nil
	}
	return players, true, nil
}

// Set populates the cache with the group's current rankings. A nil backing
// client (cache not configured) is a silent no-op.
func (c *RankingsCache) Set(ctx context.Context, groupID string, players []models.Player) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(players)
	if err != nil {
		c.logger.WithError(err).WithField("group_id", groupID).Warn("rankings cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, rankingsKey(groupID), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("group_id", groupID).Warn("rankings cache set failed")
	}
}

// Invalidate drops the cached rankings for a group. Called by the
// Lifecycle Controller after its write operations. A nil
// backing client (cache not configured) is a silent no-op.
func (c *RankingsCache) Invalidate(ctx context.Context, groupID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, rankingsKey(groupID)).Err(); err != nil {
		c.logger.WithError(err).WithField("group_id", groupID).Warn("rankings cache invalidate failed")
	}
}
