package vote

import (
	"context"
	"sync"
)

// VoteStore persists vote records with replace-on-conflict semantics for
// the (deal_id, user_id) key.
type VoteStore interface {
	// GetVotes returns all active votes for a deal, one per voter.
	GetVotes(ctx context.Context, dealID string) ([]Vote, error)

	// UpsertVote inserts the vote, replacing any prior vote by the same
	// user on the same deal.
	UpsertVote(ctx context.Context, v Vote) error
}

// InMemoryVoteStore is an in-memory implementation of VoteStore for
// tests and single-process hosts. Thread-safe via RWMutex.
type InMemoryVoteStore struct {
	mu    sync.RWMutex
	votes map[string]map[string]Vote // dealID -> userID -> vote
}

// NewInMemoryVoteStore creates a new in-memory vote store.
func NewInMemoryVoteStore() *InMemoryVoteStore {
	return &InMemoryVoteStore{
		votes: make(map[string]map[string]Vote),
	}
}

// GetVotes returns all active votes for a deal.
func (s *InMemoryVoteStore) GetVotes(_ context.Context, dealID string) ([]Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byUser := s.votes[dealID]
	result := make([]Vote, 0, len(byUser))
	for _, v := range byUser {
		result = append(result, v)
	}
	return result, nil
}

// UpsertVote inserts or replaces the caller's vote on the deal.
func (s *InMemoryVoteStore) UpsertVote(_ context.Context, v Vote) error {
	if err := v.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byUser, ok := s.votes[v.DealID]
	if !ok {
		byUser = make(map[string]Vote)
		s.votes[v.DealID] = byUser
	}
	byUser[v.UserID] = v
	return nil
}

// CountVotes returns the number of active votes on a deal (for testing).
func (s *InMemoryVoteStore) CountVotes(dealID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.votes[dealID])
}
