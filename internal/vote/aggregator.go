package vote

import (
	"github.com/onnwee/dealrank/internal/reputation"
)

// WeightedVote pairs a vote with a snapshot of the voter's rating, from
// which the vote's weight is derived.
type WeightedVote struct {
	Type   Type
	Rating reputation.UserRating
}

// Aggregate is the reputation-weighted summary of a deal's votes.
type Aggregate struct {
	WeightedUpvotes   float64
	WeightedDownvotes float64
	// QualityRatings is the synthetic 1-5 pseudo-rating sample: 4 per
	// upvote, 2 per downvote.
	QualityRatings []float64
	VoteCount      int
	// EloSum is the sum of voter elo ratings, kept so the engine can
	// compute the average voter elo without a second pass.
	EloSum float64
}

// AvgVoterElo returns the mean voter elo, or the community average 1200
// when there are no votes.
func (a Aggregate) AvgVoterElo() float64 {
	if a.VoteCount == 0 {
		return reputation.CommunityAvgElo
	}
	return a.EloSum / float64(a.VoteCount)
}

// AggregateVotes folds a deal's votes into weighted totals. Each vote
// contributes its voter's reputation weight to the matching side and a
// synthetic quality rating to the sample. The aggregation is pure
// summation (commutative and associative), so input order carries no
// meaning and partial aggregates can be merged safely.
func AggregateVotes(votes []WeightedVote) Aggregate {
	agg := Aggregate{
		QualityRatings: make([]float64, 0, len(votes)),
	}

	for _, v := range votes {
		weight := reputation.WeightFor(v.Rating)

		if v.Type == TypeUp {
			agg.WeightedUpvotes += weight
			agg.QualityRatings = append(agg.QualityRatings, QualityRatingUp)
		} else {
			agg.WeightedDownvotes += weight
			agg.QualityRatings = append(agg.QualityRatings, QualityRatingDown)
		}

		agg.VoteCount++
		agg.EloSum += v.Rating.EloRating
	}

	return agg
}

// Merge combines two partial aggregates into one, equivalent to
// aggregating the concatenation of their inputs.
func Merge(a, b Aggregate) Aggregate {
	merged := Aggregate{
		WeightedUpvotes:   a.WeightedUpvotes + b.WeightedUpvotes,
		WeightedDownvotes: a.WeightedDownvotes + b.WeightedDownvotes,
		QualityRatings:    make([]float64, 0, len(a.QualityRatings)+len(b.QualityRatings)),
		VoteCount:         a.VoteCount + b.VoteCount,
		EloSum:            a.EloSum + b.EloSum,
	}
	merged.QualityRatings = append(merged.QualityRatings, a.QualityRatings...)
	merged.QualityRatings = append(merged.QualityRatings, b.QualityRatings...)
	return merged
}
