package reputation

import (
	"context"
	"sort"
	"sync"
)

// UserRatingStore persists user rating records.
type UserRatingStore interface {
	// GetRating retrieves a rating by user ID. Returns (nil, nil) when no
	// record exists; callers substitute DefaultRating.
	GetRating(ctx context.Context, userID string) (*UserRating, error)

	// UpsertRating inserts or fully replaces the rating for its user.
	UpsertRating(ctx context.Context, rating UserRating) error

	// ListTopByElo returns up to limit ratings ordered by elo descending,
	// ties broken by user ID ascending.
	ListTopByElo(ctx context.Context, limit int) ([]UserRating, error)
}

// InMemoryUserRatingStore is an in-memory implementation of
// UserRatingStore for tests and single-process hosts. Thread-safe via
// RWMutex.
type InMemoryUserRatingStore struct {
	mu      sync.RWMutex
	ratings map[string]UserRating
}

// NewInMemoryUserRatingStore creates a new in-memory rating store.
func NewInMemoryUserRatingStore() *InMemoryUserRatingStore {
	return &InMemoryUserRatingStore{
		ratings: make(map[string]UserRating),
	}
}

// GetRating retrieves a rating by user ID, or (nil, nil) when absent.
func (s *InMemoryUserRatingStore) GetRating(_ context.Context, userID string) (*UserRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rating, ok := s.ratings[userID]
	if !ok {
		return nil, nil
	}
	// Return a copy to avoid external modification
	return &rating, nil
}

// UpsertRating inserts or replaces the rating for its user.
func (s *InMemoryUserRatingStore) UpsertRating(_ context.Context, rating UserRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[rating.UserID] = rating
	return nil
}

// ListTopByElo returns up to limit ratings ordered by elo descending,
// ties broken by user ID ascending.
func (s *InMemoryUserRatingStore) ListTopByElo(_ context.Context, limit int) ([]UserRating, error) {
	s.mu.RLock()
	all := make([]UserRating, 0, len(s.ratings))
	for _, r := range s.ratings {
		all = append(all, r)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].EloRating != all[j].EloRating {
			return all[i].EloRating > all[j].EloRating
		}
		return all[i].UserID < all[j].UserID
	})

	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Count returns the number of stored ratings (for testing).
func (s *InMemoryUserRatingStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ratings)
}
