// Package engine orchestrates deal score recalculation: it pulls a deal
// and its votes, weights each vote by the voter's reputation, derives
// the four component scores, blends them into a final rank, and persists
// the result as a full overwrite.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/onnwee/dealrank/internal/deal"
	"github.com/onnwee/dealrank/internal/keylock"
	"github.com/onnwee/dealrank/internal/reputation"
	"github.com/onnwee/dealrank/internal/scoremath"
	"github.com/onnwee/dealrank/internal/stats"
	"github.com/onnwee/dealrank/internal/vote"
)

// WilsonConfidence is the confidence level used for the Wilson lower
// bound component.
const WilsonConfidence = 0.95

// Confidence-level shaping: full confidence requires 20 votes from
// voters at or above the community average elo.
const (
	ConfidenceVoteTarget  = 20.0
	QualityVolumeTarget   = 10.0
	QualityBayesScaleBase = 5.0
)

// tracerName identifies this package's spans.
const tracerName = "github.com/onnwee/dealrank/internal/engine"

// Config configures the ranking engine. Zero-value fields fall back to
// sensible defaults.
type Config struct {
	// Weights is the rank weight calibration. Nil uses defaults.
	Weights *RankWeights
	// Logger for engine activity.
	Logger *slog.Logger
	// Metrics for recalculation tracking. Optional.
	Metrics *Metrics
	// UpsertStats receives one insert/update event per persisted score.
	// Optional.
	UpsertStats *stats.UpsertStats
	// Dirty receives deals that still need recalculation: every vote in
	// batch mode, and votes whose inline recalculation failed. Optional.
	Dirty *DirtyTracker
	// Batch defers recalculation to the recompute job: CastVote marks
	// the deal dirty instead of recalculating inline. Requires Dirty.
	Batch bool
}

// Engine recalculates deal scores and routes votes. Recalculations for
// a given deal are serialized through a keyed mutex; different deals
// proceed in parallel.
type Engine struct {
	deals   deal.Store
	votes   vote.VoteStore
	ratings *reputation.Model

	weights     *RankWeights
	logger      *slog.Logger
	metrics     *Metrics
	upsertStats *stats.UpsertStats
	dirty       *DirtyTracker
	batch       bool
	tracer      trace.Tracer
	locks       *keylock.KeyedMutex

	// now is swappable for tests.
	now func() time.Time
}

// New creates a ranking engine over the given stores. All collaborators
// are injected; the engine holds no ambient global state.
func New(cfg Config, deals deal.Store, votes vote.VoteStore, ratings *reputation.Model) *Engine {
	if cfg.Weights == nil {
		cfg.Weights = DefaultRankWeights()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		deals:       deals,
		votes:       votes,
		ratings:     ratings,
		weights:     cfg.Weights,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		upsertStats: cfg.UpsertStats,
		dirty:       cfg.Dirty,
		batch:       cfg.Batch && cfg.Dirty != nil,
		tracer:      otel.Tracer(tracerName),
		locks:       keylock.New(),
		now:         time.Now,
	}
}

// Recalculate recomputes and persists the score for one deal from its
// current vote set. The operation is idempotent: two calls with no
// intervening votes produce identical scores apart from LastCalculated.
// A failed recalculation writes nothing, leaving any previous score
// untouched. Missing voter ratings are substituted with defaults and
// never block ranking.
func (e *Engine) Recalculate(ctx context.Context, dealID string) (*deal.Score, error) {
	if dealID == "" {
		return nil, deal.ErrDealNotFound
	}

	ctx, span := e.tracer.Start(ctx, "engine.Recalculate",
		trace.WithAttributes(attribute.String("deal_id", dealID)))
	defer span.End()

	start := e.now()

	e.locks.Lock(dealID)
	defer e.locks.Unlock(dealID)

	score, err := e.recalculateLocked(ctx, dealID, span)

	if e.metrics != nil {
		e.metrics.ObserveRecalcDuration(e.now().Sub(start).Seconds())
		if err != nil {
			e.metrics.IncRecalcErrors()
		} else {
			e.metrics.IncRecalcTotal()
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recalculation failed")
		return nil, err
	}
	return score, nil
}

// recalculateLocked runs the recalculation pipeline. Caller holds the
// per-deal lock.
func (e *Engine) recalculateLocked(ctx context.Context, dealID string, span trace.Span) (*deal.Score, error) {
	d, err := e.deals.GetDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deal %s: %w", dealID, err)
	}

	rows, err := e.votes.GetVotes(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch votes for deal %s: %w", dealID, err)
	}

	weighted := make([]vote.WeightedVote, 0, len(rows))
	for _, v := range rows {
		rating, err := e.ratings.RatingOrDefault(ctx, v.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve voter %s: %w", v.UserID, err)
		}
		weighted = append(weighted, vote.WeightedVote{Type: v.Type, Rating: rating})
	}

	agg := vote.AggregateVotes(weighted)
	span.SetAttributes(attribute.Int("vote_count", agg.VoteCount))

	now := e.now()
	score := e.compose(d, agg, now)

	inserted, err := e.deals.UpsertScore(ctx, score)
	if err != nil {
		return nil, fmt.Errorf("failed to persist score for deal %s: %w", dealID, err)
	}
	if e.upsertStats != nil {
		e.upsertStats.Record(inserted)
	}

	e.logger.Debug("deal score recalculated",
		"deal_id", dealID,
		"votes", agg.VoteCount,
		"hot", score.HotScore,
		"wilson", score.WilsonScore,
		"bayes", score.BayesianAverage,
		"final_rank", score.FinalRank,
		"confidence", score.ConfidenceLevel)

	return &score, nil
}

// compose blends the aggregated vote data into a full score record.
// Weighted sums are rounded to integers before the log-based hot score
// so the |score| floor of 1 stays well-defined.
func (e *Engine) compose(d *deal.Deal, agg vote.Aggregate, now time.Time) deal.Score {
	up := int(math.Round(agg.WeightedUpvotes))
	down := int(math.Round(agg.WeightedDownvotes))
	n := agg.VoteCount

	hot := scoremath.HotScore(up, down, d.CreatedAt, now)
	wilson := scoremath.WilsonScore(up, down, WilsonConfidence)
	bayes := scoremath.BayesianAverage(agg.QualityRatings, n,
		scoremath.DefaultPriorMean, scoremath.DefaultPriorWeight)

	volume := math.Min(1, float64(n)/QualityVolumeTarget)
	quality := wilson*e.weights.Sub.Wilson +
		(bayes/QualityBayesScaleBase)*e.weights.Sub.Bayes +
		volume*e.weights.Sub.Volume

	finalRank := hot*e.weights.Hot + quality*e.weights.Quality

	confidence := math.Min(1,
		(float64(n)/ConfidenceVoteTarget)*(agg.AvgVoterElo()/reputation.CommunityAvgElo))

	return deal.Score{
		DealID:          d.ID,
		HotScore:        hot,
		WilsonScore:     wilson,
		BayesianAverage: bayes,
		QualityScore:    quality,
		FinalRank:       finalRank,
		ConfidenceLevel: confidence,
		LastCalculated:  now,
	}
}

// CastVote records a voter's vote on a deal, replacing any prior vote
// by the same voter, then brings the deal's score up to date: inline
// recalculation by default, or a dirty mark for the recompute job in
// batch mode. A failed inline recalculation also marks the deal dirty
// so the job retries it. dealOwnerID identifies the deal's poster for
// hosts that attribute outcomes at vote time; the engine itself does
// not mutate the owner's rating here (deals_posted moves only through
// RecordDealOutcome).
func (e *Engine) CastVote(ctx context.Context, dealID, voterID, dealOwnerID string, t vote.Type) error {
	v := vote.Vote{
		DealID:    dealID,
		UserID:    voterID,
		Type:      t,
		CreatedAt: e.now(),
	}
	if err := v.Validate(); err != nil {
		return err
	}

	if err := e.votes.UpsertVote(ctx, v); err != nil {
		return fmt.Errorf("failed to record vote on deal %s: %w", dealID, err)
	}

	if e.metrics != nil {
		e.metrics.IncVotesCast(string(t))
	}

	e.logger.Debug("vote cast",
		"deal_id", dealID,
		"voter_id", voterID,
		"deal_owner_id", dealOwnerID,
		"vote_type", t)

	if e.batch {
		e.dirty.MarkDirty(dealID)
		return nil
	}

	if _, err := e.Recalculate(ctx, dealID); err != nil {
		if e.dirty != nil {
			e.dirty.MarkDirty(dealID)
		}
		return err
	}
	return nil
}
