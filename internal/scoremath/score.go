// Package scoremath provides pure scoring functions for deal ranking:
// time-decayed hot score, Wilson confidence lower bound, Bayesian
// shrinkage average, and ELO rating updates. All functions are
// deterministic, side-effect-free, and defined for their full input
// domain (including zero votes) and never return errors.
package scoremath

import (
	"math"
	"time"
)

// TimeDecaySeconds controls how quickly the hot score decays with deal age.
// One unit of vote magnitude (a 10x vote margin) offsets 45000 seconds
// (12.5 hours) of age.
const TimeDecaySeconds = 45000

// Default Bayesian average prior: a neutral 3.0 on the implicit 1-5
// quality scale, weighted as five phantom votes.
const (
	DefaultPriorMean   = 3.0
	DefaultPriorWeight = 5
)

// ELO update defaults.
const (
	DefaultKFactor = 32.0
	EloMin         = 100.0
	EloMax         = 3000.0
)

// hotEpoch is the fixed zero point for hot score time decay
// (2005-12-09T00:00:00Z). The exact instant is arbitrary; it only needs
// to be identical across all deals since ranking depends on relative
// ordering.
var hotEpoch = time.Date(2005, time.December, 9, 0, 0, 0, 0, time.UTC)

// HotScore computes a time-decayed popularity score rewarding both vote
// margin and recency.
//
// Formula:
//
//	score   = upvotes - downvotes
//	order   = log10(max(|score|, 1))
//	sign    = sign(score) (0 when score is 0)
//	seconds = floor(submittedAt - epoch) in whole seconds
//	hot     = order + sign * seconds / TimeDecaySeconds
//
// For a fixed vote margin the score strictly decreases as the deal ages;
// a deal with zero margin contributes no decay term at all.
//
// The now parameter is accepted for interface symmetry with the other
// scoring functions; decay is relative to the fixed epoch, so now does
// not enter the formula directly.
func HotScore(upvotes, downvotes int, submittedAt, _ time.Time) float64 {
	score := upvotes - downvotes

	order := math.Log10(math.Max(math.Abs(float64(score)), 1))

	var sign float64
	switch {
	case score > 0:
		sign = 1
	case score < 0:
		sign = -1
	}

	seconds := math.Floor(float64(submittedAt.Sub(hotEpoch).Milliseconds()) / 1000.0)

	return order + sign*seconds/TimeDecaySeconds
}

// WilsonScore computes the lower bound of the Wilson score confidence
// interval for the true upvote proportion. Unlike a naive upvote ratio,
// the result is pulled toward 0 for small sample sizes, deliberately
// penalizing deals with few votes.
//
// confidence selects the z value: 1.96 for 0.95, 2.576 otherwise (0.99).
// Returns 0 when there are no votes. The result is clamped to [0, 1] and
// never exceeds the raw ratio upvotes/(upvotes+downvotes).
func WilsonScore(upvotes, downvotes int, confidence float64) float64 {
	n := float64(upvotes + downvotes)
	if n == 0 {
		return 0
	}

	z := 2.576
	if confidence == 0.95 {
		z = 1.96
	}

	phat := float64(upvotes) / n
	z2 := z * z

	numerator := phat + z2/(2*n) - z*math.Sqrt((phat*(1-phat)+z2/(4*n))/n)
	result := numerator / (1 + z2/n)

	if result < 0 {
		return 0
	}
	return result
}

// BayesianAverage computes a shrinkage estimate of deal quality, blending
// a prior belief with the observed rating sample proportionally to sample
// size. With no ratings the result is exactly priorMean; as totalVotes
// grows the result converges to the sample mean. This defends the quality
// signal against small-sample gaming.
func BayesianAverage(ratings []float64, totalVotes int, priorMean float64, priorWeight int) float64 {
	if len(ratings) == 0 {
		return priorMean
	}

	var sum float64
	for _, r := range ratings {
		sum += r
	}
	avg := sum / float64(len(ratings))

	return (float64(priorWeight)*priorMean + float64(totalVotes)*avg) /
		float64(priorWeight+totalVotes)
}

// UpdateElo computes an updated ELO rating after a single observed
// outcome. actualScore is the observed performance in [0, 1]; the
// expected score follows the standard logistic curve against the
// opponent rating. The result is clamped to [min, max].
//
// An outcome exactly matching expectation leaves the rating unchanged:
// UpdateElo(r, r, 0.5, k, min, max) == r.
func UpdateElo(current, opponent, actualScore, kFactor, min, max float64) float64 {
	expected := 1.0 / (1.0 + math.Pow(10, (opponent-current)/400.0))
	updated := current + kFactor*(actualScore-expected)

	if updated < min {
		return min
	}
	if updated > max {
		return max
	}
	return updated
}
