package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/dealrank/internal/deal"
	"github.com/onnwee/dealrank/internal/reputation"
)

// DefaultCacheTTL bounds staleness of cached leaderboard snapshots.
const DefaultCacheTTL = 30 * time.Second

// Key prefixes for cached snapshots, suffixed with the page limit so
// different page sizes do not alias.
const (
	keyTopDeals = "leaderboard:deals"
	keyTopUsers = "leaderboard:users"
)

// Cache stores CBOR-encoded leaderboard snapshots in Redis. Snapshots
// are keyed by page limit and expire after TTL. All read failures are
// treated as misses; write failures are returned for the caller to log.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache creates a leaderboard snapshot cache. A zero ttl uses
// DefaultCacheTTL.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func dealsKey(limit int) string {
	return fmt.Sprintf("%s:%d", keyTopDeals, limit)
}

func usersKey(limit int) string {
	return fmt.Sprintf("%s:%d", keyTopUsers, limit)
}

// GetTopDeals returns a cached deals snapshot for the given limit.
// The second return is false on a miss, a Redis error, or a decode
// failure.
func (c *Cache) GetTopDeals(ctx context.Context, limit int) ([]deal.Ranked, bool) {
	data, err := c.client.Get(ctx, dealsKey(limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("leaderboard cache read failed", "key", dealsKey(limit), "error", err)
		}
		return nil, false
	}

	var ranked []deal.Ranked
	if err := cbor.Unmarshal(data, &ranked); err != nil {
		c.logger.Warn("leaderboard cache entry corrupt, discarding",
			"key", dealsKey(limit), "error", err)
		c.client.Del(ctx, dealsKey(limit))
		return nil, false
	}
	return ranked, true
}

// SetTopDeals stores a deals snapshot for the given limit.
func (c *Cache) SetTopDeals(ctx context.Context, limit int, ranked []deal.Ranked) error {
	data, err := cbor.Marshal(ranked)
	if err != nil {
		return fmt.Errorf("failed to encode deals snapshot: %w", err)
	}
	if err := c.client.Set(ctx, dealsKey(limit), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store deals snapshot: %w", err)
	}
	return nil
}

// GetTopUsers returns a cached user-rating snapshot for the given limit.
func (c *Cache) GetTopUsers(ctx context.Context, limit int) ([]reputation.UserRating, bool) {
	data, err := c.client.Get(ctx, usersKey(limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("leaderboard cache read failed", "key", usersKey(limit), "error", err)
		}
		return nil, false
	}

	var ratings []reputation.UserRating
	if err := cbor.Unmarshal(data, &ratings); err != nil {
		c.logger.Warn("leaderboard cache entry corrupt, discarding",
			"key", usersKey(limit), "error", err)
		c.client.Del(ctx, usersKey(limit))
		return nil, false
	}
	return ratings, true
}

// SetTopUsers stores a user-rating snapshot for the given limit.
func (c *Cache) SetTopUsers(ctx context.Context, limit int, ratings []reputation.UserRating) error {
	data, err := cbor.Marshal(ratings)
	if err != nil {
		return fmt.Errorf("failed to encode users snapshot: %w", err)
	}
	if err := c.client.Set(ctx, usersKey(limit), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store users snapshot: %w", err)
	}
	return nil
}

// Invalidate removes all cached snapshots.
func (c *Cache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, "leaderboard:*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan leaderboard keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete leaderboard keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
