// Package leaderboard serves ranked read views over deals and user
// reputations, with an optional Redis-backed snapshot cache in front of
// the stores.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/onnwee/dealrank/internal/deal"
	"github.com/onnwee/dealrank/internal/reputation"
)

// ErrInvalidLimit is returned when a leaderboard query asks for a
// non-positive number of entries.
var ErrInvalidLimit = errors.New("leaderboard limit must be positive")

// DefaultLimit is used when callers pass a limit of zero.
const DefaultLimit = 25

// MaxLimit caps a single leaderboard page.
const MaxLimit = 100

// Service answers leaderboard queries. When a cache is configured,
// reads go through it first and fall back to the stores on a miss or a
// cache error; cache failures never fail the query.
type Service struct {
	deals   deal.Store
	ratings reputation.UserRatingStore
	cache   *Cache
	logger  *slog.Logger
}

// Config configures a leaderboard Service. Cache and Logger are
// optional.
type Config struct {
	Cache  *Cache
	Logger *slog.Logger
}

// NewService creates a leaderboard service over the given stores.
func NewService(cfg Config, deals deal.Store, ratings reputation.UserRatingStore) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		deals:   deals,
		ratings: ratings,
		cache:   cfg.Cache,
		logger:  logger,
	}
}

// clampLimit normalizes a requested page size.
func clampLimit(limit int) (int, error) {
	if limit < 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	if limit == 0 {
		return DefaultLimit, nil
	}
	if limit > MaxLimit {
		return MaxLimit, nil
	}
	return limit, nil
}

// TopDeals returns up to limit deals ordered by final rank descending.
// A limit of zero returns DefaultLimit entries; limits above MaxLimit
// are clamped.
func (s *Service) TopDeals(ctx context.Context, limit int) ([]deal.Ranked, error) {
	limit, err := clampLimit(limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, ok := s.cache.GetTopDeals(ctx, limit); ok {
			return cached, nil
		}
	}

	ranked, err := s.deals.ListTopByRank(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top deals: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetTopDeals(ctx, limit, ranked); err != nil {
			s.logger.Warn("failed to cache top deals", "error", err)
		}
	}
	return ranked, nil
}

// TopUsers returns up to limit user ratings ordered by elo descending.
func (s *Service) TopUsers(ctx context.Context, limit int) ([]reputation.UserRating, error) {
	limit, err := clampLimit(limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, ok := s.cache.GetTopUsers(ctx, limit); ok {
			return cached, nil
		}
	}

	ratings, err := s.ratings.ListTopByElo(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top users: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetTopUsers(ctx, limit, ratings); err != nil {
			s.logger.Warn("failed to cache top users", "error", err)
		}
	}
	return ratings, nil
}

// Invalidate drops any cached leaderboard snapshots so the next read
// observes fresh scores. Safe to call with no cache configured.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate leaderboard cache", "error", err)
	}
}
