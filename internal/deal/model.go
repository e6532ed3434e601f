// Package deal provides the deal and deal-score records the ranking
// engine reads and writes, plus their store contracts.
package deal

import (
	"errors"
	"time"
)

// Common errors for deal operations.
var (
	// ErrDealNotFound is returned when a referenced deal does not exist.
	// Propagated to the caller; not retryable.
	ErrDealNotFound = errors.New("deal not found")
)

// Deal is the narrow deal shape the engine consumes. The surrounding
// application owns the full deal record; only these fields participate
// in ranking.
type Deal struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	PostedBy  string    `json:"posted_by"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// Score is the computed ranking record for one deal. Exactly one exists
// per scored deal, fully overwritten on every recalculation so no stale
// field can drift across recomputes.
type Score struct {
	DealID          string    `json:"deal_id"`
	HotScore        float64   `json:"hot_score"`
	WilsonScore     float64   `json:"wilson_score"`     // [0, 1]
	BayesianAverage float64   `json:"bayesian_average"` // Centered near the prior mean
	QualityScore    float64   `json:"quality_score"`    // Roughly [0, 1]
	FinalRank       float64   `json:"final_rank"`       // Ordering only
	ConfidenceLevel float64   `json:"confidence_level"` // [0, 1]
	LastCalculated  time.Time `json:"last_calculated"`
}

// Ranked pairs a deal with its score for leaderboard reads. Score is nil
// for deals that have never been recalculated.
type Ranked struct {
	Deal  Deal   `json:"deal"`
	Score *Score `json:"score,omitempty"`
}
