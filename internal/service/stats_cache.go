package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tradejournal/internal/engine"
)

// ErrStatsNotCached is returned when no stats document exists for the user
var ErrStatsNotCached = errors.New("no cached stats for user")

// StatsCache keeps each user's latest aggregate stats in redis under a
// per-user key with a TTL. The document is stored as rendered JSON so the
// Infinity profit-factor encoding survives the round trip untouched.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStatsCache creates a new StatsCache
func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{rdb: rdb, ttl: ttl}
}

func statsKey(userID uint) string {
	return fmt.Sprintf("tradejournal:stats:%d", userID)
}

// Put stores the user's latest stats, replacing any previous document
func (c *StatsCache) Put(ctx context.Context, userID uint, stats *engine.Stats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, statsKey(userID), payload, c.ttl).Err()
}

// Get retrieves the user's latest stats as rendered JSON
func (c *StatsCache) Get(ctx context.Context, userID uint) (json.RawMessage, error) {
	payload, err := c.rdb.Get(ctx, statsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStatsNotCached
		}
		return nil, err
	}
	return json.RawMessage(payload), nil
}
