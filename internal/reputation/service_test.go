package reputation

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

func TestRecordDealOutcomeCreatesLazily(t *testing.T) {
	store := NewInMemoryUserRatingStore()
	model := NewModel(store, nil)
	ctx := context.Background()

	got, err := model.RecordDealOutcome(ctx, "user-1", 1.0)
	if err != nil {
		t.Fatalf("RecordDealOutcome failed: %v", err)
	}

	// Default elo 1200 against community avg 1200 with actual 1.0:
	// expected = 0.5, new elo = 1200 + 32*(1.0 - 0.5) = 1216
	if math.Abs(got.EloRating-1216) > 1e-9 {
		t.Errorf("EloRating = %v, want 1216", got.EloRating)
	}
	// Reputation EMA from 0: 0*0.9 + 1.0*0.1 = 0.1
	if math.Abs(got.ReputationScore-0.1) > 1e-9 {
		t.Errorf("ReputationScore = %v, want 0.1", got.ReputationScore)
	}
	if got.DealsPosted != 1 {
		t.Errorf("DealsPosted = %d, want 1", got.DealsPosted)
	}
	if got.LastUpdated.IsZero() {
		t.Error("LastUpdated should be set on mutation")
	}

	stored, err := store.GetRating(ctx, "user-1")
	if err != nil || stored == nil {
		t.Fatalf("rating was not persisted: %v", err)
	}
	if stored.DealsPosted != 1 {
		t.Errorf("persisted DealsPosted = %d, want 1", stored.DealsPosted)
	}
}

func TestRecordDealOutcomeAccumulates(t *testing.T) {
	store := NewInMemoryUserRatingStore()
	model := NewModel(store, nil)
	ctx := context.Background()

	first, err := model.RecordDealOutcome(ctx, "user-1", 0.5)
	if err != nil {
		t.Fatalf("first outcome failed: %v", err)
	}
	// Expected = 0.5 at equal ratings, so elo is unchanged
	if math.Abs(first.EloRating-1200) > 1e-9 {
		t.Errorf("first EloRating = %v, want 1200", first.EloRating)
	}

	second, err := model.RecordDealOutcome(ctx, "user-1", 1.0)
	if err != nil {
		t.Fatalf("second outcome failed: %v", err)
	}
	if second.DealsPosted != 2 {
		t.Errorf("DealsPosted = %d, want 2", second.DealsPosted)
	}
	// Reputation after 0.5 then 1.0: (0*0.9 + 0.5*0.1)*0.9 + 1.0*0.1 = 0.145
	if math.Abs(second.ReputationScore-0.145) > 1e-9 {
		t.Errorf("ReputationScore = %v, want 0.145", second.ReputationScore)
	}
}

func TestRecordDealOutcomeValidation(t *testing.T) {
	model := NewModel(NewInMemoryUserRatingStore(), nil)
	ctx := context.Background()

	if _, err := model.RecordDealOutcome(ctx, "", 0.5); !errors.Is(err, ErrEmptyUserID) {
		t.Errorf("empty user id: got %v, want ErrEmptyUserID", err)
	}
	if _, err := model.RecordDealOutcome(ctx, "u1", -0.1); !errors.Is(err, ErrInvalidPerformance) {
		t.Errorf("negative performance: got %v, want ErrInvalidPerformance", err)
	}
	if _, err := model.RecordDealOutcome(ctx, "u1", 1.5); !errors.Is(err, ErrInvalidPerformance) {
		t.Errorf("performance above 1: got %v, want ErrInvalidPerformance", err)
	}
}

// TestRecordDealOutcomeConcurrent verifies that concurrent outcomes for
// the same user are serialized: every increment of deals_posted survives.
func TestRecordDealOutcomeConcurrent(t *testing.T) {
	store := NewInMemoryUserRatingStore()
	model := NewModel(store, nil)
	ctx := context.Background()

	const outcomes = 50
	var wg sync.WaitGroup
	for i := 0; i < outcomes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := model.RecordDealOutcome(ctx, "user-1", 0.5); err != nil {
				t.Errorf("RecordDealOutcome failed: %v", err)
			}
		}()
	}
	wg.Wait()

	rating, err := store.GetRating(ctx, "user-1")
	if err != nil || rating == nil {
		t.Fatalf("rating missing after concurrent outcomes: %v", err)
	}
	if rating.DealsPosted != outcomes {
		t.Errorf("DealsPosted = %d, want %d (lost updates)", rating.DealsPosted, outcomes)
	}
}

func TestRatingOrDefault(t *testing.T) {
	store := NewInMemoryUserRatingStore()
	model := NewModel(store, nil)
	ctx := context.Background()

	got, err := model.RatingOrDefault(ctx, "unknown")
	if err != nil {
		t.Fatalf("RatingOrDefault failed: %v", err)
	}
	if got.EloRating != 1200 || got.VoteAccuracy != 0.5 {
		t.Errorf("expected default rating for unknown user, got %+v", got)
	}

	if err := store.UpsertRating(ctx, UserRating{UserID: "known", EloRating: 1900}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	got, err = model.RatingOrDefault(ctx, "known")
	if err != nil {
		t.Fatalf("RatingOrDefault failed: %v", err)
	}
	if got.EloRating != 1900 {
		t.Errorf("EloRating = %v, want 1900", got.EloRating)
	}
}
