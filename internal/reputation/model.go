// Package reputation converts per-user rating records into vote-weight
// multipliers and updates ratings after deal outcomes.
package reputation

import (
	"errors"
	"time"

	"github.com/onnwee/dealrank/internal/scoremath"
)

// ELO thresholds for weight classification, checked in priority order:
// trusted first, spam second, new-user third. An account that is both
// low-ELO and new is classified at spam weight, not new-user weight.
const (
	TrustedThreshold = 1800.0
	SpamThreshold    = 800.0

	// NewUserDealCount is the deals_posted count below which an account
	// still gets new-user dampening.
	NewUserDealCount = 5
)

// Weight multipliers and bounds.
const (
	WeightTrusted = 1.5
	WeightSpam    = 0.3
	WeightNewUser = 0.7
	WeightBase    = 1.0

	AccuracyBonusMultiplier   = 1.2
	AccuracyPenaltyMultiplier = 0.6

	WeightMin = 0.1
	WeightMax = 2.0
)

// Vote accuracy bands for the final weight adjustment.
const (
	HighAccuracyThreshold = 0.8
	LowAccuracyThreshold  = 0.4
)

// CommunityAvgElo is the fixed opponent rating a deal outcome is scored
// against.
const CommunityAvgElo = 1200.0

// ReputationAlpha is the smoothing factor for the reputation score
// exponential moving average.
const ReputationAlpha = 0.1

// Validation errors.
var (
	ErrInvalidPerformance = errors.New("invalid performance: must be between 0.0 and 1.0")
	ErrEmptyUserID        = errors.New("user id must not be empty")
)

// UserRating is the per-user reputation record. One exists per user,
// created lazily on the first scoring event.
type UserRating struct {
	UserID          string    `json:"user_id"`
	EloRating       float64   `json:"elo_rating"`       // Clamped to [100, 3000]
	ReputationScore float64   `json:"reputation_score"` // EMA of deal performance
	DealsPosted     int       `json:"deals_posted"`
	VoteAccuracy    float64   `json:"vote_accuracy"` // Consumed, not computed here
	LastUpdated     time.Time `json:"last_updated"`
}

// DefaultRating returns a fresh rating record with all defaults applied.
// Every call site that needs a missing-user fallback goes through this
// constructor so the defaults cannot drift.
func DefaultRating(userID string) UserRating {
	return UserRating{
		UserID:          userID,
		EloRating:       CommunityAvgElo,
		ReputationScore: 0,
		DealsPosted:     0,
		VoteAccuracy:    0.5,
	}
}

// WeightFor computes the vote-weight multiplier for a rating snapshot.
// Pure; performs no I/O.
//
// Base classification (mutually exclusive, priority order):
//   - elo >= 1800: trusted, 1.5
//   - elo < 800: spam, 0.3
//   - deals_posted < 5: new user, 0.7
//   - otherwise: 1.0
//
// Then adjusted by vote accuracy (x1.2 above 0.8, x0.6 below 0.4) and
// clamped to [0.1, 2.0].
func WeightFor(r UserRating) float64 {
	weight := WeightBase
	switch {
	case r.EloRating >= TrustedThreshold:
		weight = WeightTrusted
	case r.EloRating < SpamThreshold:
		weight = WeightSpam
	case r.DealsPosted < NewUserDealCount:
		weight = WeightNewUser
	}

	if r.VoteAccuracy > HighAccuracyThreshold {
		weight *= AccuracyBonusMultiplier
	} else if r.VoteAccuracy < LowAccuracyThreshold {
		weight *= AccuracyPenaltyMultiplier
	}

	if weight < WeightMin {
		return WeightMin
	}
	if weight > WeightMax {
		return WeightMax
	}
	return weight
}

// applyOutcome returns a copy of r updated for a single deal outcome.
// performance is assumed validated to [0, 1].
func applyOutcome(r UserRating, performance float64, now time.Time) UserRating {
	r.EloRating = scoremath.UpdateElo(
		r.EloRating, CommunityAvgElo, performance,
		scoremath.DefaultKFactor, scoremath.EloMin, scoremath.EloMax,
	)
	r.ReputationScore = r.ReputationScore*(1-ReputationAlpha) + performance*ReputationAlpha
	r.DealsPosted++
	r.LastUpdated = now
	return r
}
