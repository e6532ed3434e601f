package deal

import (
	"context"
	"sort"
	"sync"
)

// Store persists deals and their computed scores.
type Store interface {
	// GetDeal retrieves a deal by ID. Returns ErrDealNotFound when the
	// deal does not exist.
	GetDeal(ctx context.Context, id string) (*Deal, error)

	// UpsertScore inserts or fully replaces the score row for its deal.
	// Reports whether a new row was inserted (false means an existing
	// row was overwritten).
	UpsertScore(ctx context.Context, score Score) (bool, error)

	// GetScore retrieves the score for a deal, or (nil, nil) when the
	// deal has never been scored.
	GetScore(ctx context.Context, dealID string) (*Score, error)

	// ListTopByRank returns up to limit deals ordered by final_rank
	// descending. Deals with no score sort last; ties break by deal ID
	// ascending.
	ListTopByRank(ctx context.Context, limit int) ([]Ranked, error)
}

// InMemoryStore is an in-memory implementation of Store for tests and
// single-process hosts. Thread-safe via RWMutex.
type InMemoryStore struct {
	mu     sync.RWMutex
	deals  map[string]Deal
	scores map[string]Score
}

// NewInMemoryStore creates a new in-memory deal store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		deals:  make(map[string]Deal),
		scores: make(map[string]Score),
	}
}

// AddDeal seeds a deal record.
func (s *InMemoryStore) AddDeal(d Deal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deals[d.ID] = d
}

// GetDeal retrieves a deal by ID or ErrDealNotFound.
func (s *InMemoryStore) GetDeal(_ context.Context, id string) (*Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deals[id]
	if !ok {
		return nil, ErrDealNotFound
	}
	// Return a copy to avoid external modification
	return &d, nil
}

// UpsertScore inserts or fully replaces the score row for its deal.
func (s *InMemoryStore) UpsertScore(_ context.Context, score Score) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.scores[score.DealID]
	s.scores[score.DealID] = score
	return !existed, nil
}

// GetScore retrieves a deal's score, or (nil, nil) when unscored.
func (s *InMemoryStore) GetScore(_ context.Context, dealID string) (*Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[dealID]
	if !ok {
		return nil, nil
	}
	return &score, nil
}

// ListTopByRank returns deals ordered by final_rank descending, unscored
// deals last, ties broken by deal ID ascending.
func (s *InMemoryStore) ListTopByRank(_ context.Context, limit int) ([]Ranked, error) {
	s.mu.RLock()
	all := make([]Ranked, 0, len(s.deals))
	for _, d := range s.deals {
		r := Ranked{Deal: d}
		if score, ok := s.scores[d.ID]; ok {
			sc := score
			r.Score = &sc
		}
		all = append(all, r)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		si, sj := all[i].Score, all[j].Score
		switch {
		case si != nil && sj == nil:
			return true
		case si == nil && sj != nil:
			return false
		case si != nil && sj != nil && si.FinalRank != sj.FinalRank:
			return si.FinalRank > sj.FinalRank
		}
		return all[i].Deal.ID < all[j].Deal.ID
	})

	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
