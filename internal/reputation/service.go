package reputation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/onnwee/dealrank/internal/keylock"
)

// Model applies deal outcomes to user ratings. Updates for a given user
// are serialized through a keyed mutex so concurrent deal postings by
// the same user cannot lose an ELO update.
type Model struct {
	store  UserRatingStore
	locks  *keylock.KeyedMutex
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewModel creates a reputation model backed by the given store.
func NewModel(store UserRatingStore, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{
		store:  store,
		locks:  keylock.New(),
		logger: logger,
		now:    time.Now,
	}
}

// RecordDealOutcome updates a user's rating after a deal outcome.
// performance is the observed deal performance in [0, 1]. The rating is
// lazily created with defaults on the first outcome for a user. This is
// the only path that increments deals_posted.
func (m *Model) RecordDealOutcome(ctx context.Context, userID string, performance float64) (UserRating, error) {
	if userID == "" {
		return UserRating{}, ErrEmptyUserID
	}
	if performance < 0 || performance > 1 {
		return UserRating{}, fmt.Errorf("%w: got %v", ErrInvalidPerformance, performance)
	}

	m.locks.Lock(userID)
	defer m.locks.Unlock(userID)

	current, err := m.store.GetRating(ctx, userID)
	if err != nil {
		return UserRating{}, fmt.Errorf("failed to load rating for %s: %w", userID, err)
	}
	if current == nil {
		created := DefaultRating(userID)
		current = &created
	}

	updated := applyOutcome(*current, performance, m.now())

	if err := m.store.UpsertRating(ctx, updated); err != nil {
		return UserRating{}, fmt.Errorf("failed to persist rating for %s: %w", userID, err)
	}

	m.logger.Debug("deal outcome recorded",
		"user_id", userID,
		"performance", performance,
		"elo", updated.EloRating,
		"reputation", updated.ReputationScore,
		"deals_posted", updated.DealsPosted)

	return updated, nil
}

// RatingOrDefault loads a user's rating, substituting the default record
// when none exists. Missing reputation data never blocks ranking; only
// store I/O failures propagate.
func (m *Model) RatingOrDefault(ctx context.Context, userID string) (UserRating, error) {
	rating, err := m.store.GetRating(ctx, userID)
	if err != nil {
		return UserRating{}, fmt.Errorf("failed to load rating for %s: %w", userID, err)
	}
	if rating == nil {
		return DefaultRating(userID), nil
	}
	return *rating, nil
}
