package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// JobMetrics reports recompute cycles to the shared background job
// metrics without importing that package.
type JobMetrics interface {
	IncRuns(jobType, status string)
	ObserveRunDuration(jobType string, seconds float64)
	IncErrors(jobType, kind string)
}

// CacheInvalidator drops derived read models (leaderboard snapshots)
// after a cycle changes scores.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// jobTypeRankRecompute labels this job in the shared job metrics.
const jobTypeRankRecompute = "rank_recompute"

// DefaultRecomputeInterval is the default pause between cycles.
const DefaultRecomputeInterval = 30 * time.Second

// DefaultRecomputeTimeout bounds a single cycle.
const DefaultRecomputeTimeout = 30 * time.Second

// RecomputeJobConfig configures the batch score recompute job.
type RecomputeJobConfig struct {
	// Interval between recompute cycles.
	Interval time.Duration
	// Timeout for one whole cycle; deals left over stay dirty and are
	// retried next cycle.
	Timeout time.Duration
	// Logger for job activity.
	Logger *slog.Logger
	// JobMetrics receives per-cycle run counts and durations. Optional.
	JobMetrics JobMetrics
	// Invalidator is notified after any cycle that changed at least one
	// score. Optional.
	Invalidator CacheInvalidator
}

// RecomputeJob drains the dirty tracker on a ticker, recalculating each
// flagged deal. Votes cast in batch mode only mark deals dirty, so this
// job is what converges rankings; in inline mode it acts as a retry
// path for recalculations that failed at vote time. A deal's flag is
// cleared only after its score persists, so failures are retried.
type RecomputeJob struct {
	config RecomputeJobConfig
	dirty  *DirtyTracker
	engine *Engine

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRecomputeJob creates a recompute job over the given tracker and
// engine. Zero-value config fields fall back to defaults.
func NewRecomputeJob(config RecomputeJobConfig, dirty *DirtyTracker, engine *Engine) *RecomputeJob {
	if config.Interval <= 0 {
		config.Interval = DefaultRecomputeInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRecomputeTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &RecomputeJob{
		config: config,
		dirty:  dirty,
		engine: engine,
	}
}

// Start launches the ticker loop in a background goroutine. Calling
// Start on a running job is a no-op.
func (j *RecomputeJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})

	go j.loop(ctx)
	return nil
}

// Stop signals the loop to exit and waits for it. Safe to call on a
// stopped job.
func (j *RecomputeJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh, doneCh := j.stopCh, j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning reports whether the loop is active.
func (j *RecomputeJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// RecomputeNow runs one cycle immediately, outside the ticker. Used by
// tests and hosts that want to force convergence (e.g. before serving a
// leaderboard read after bulk vote ingestion).
func (j *RecomputeJob) RecomputeNow() {
	j.runCycle(context.Background())
}

func (j *RecomputeJob) loop(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("recompute job exiting", "reason", "context cancelled")
			return
		case <-j.stopCh:
			j.config.Logger.Info("recompute job exiting", "reason", "stop requested")
			return
		case <-ticker.C:
			j.runCycle(ctx)
		}
	}
}

// runCycle recalculates every deal in the current dirty snapshot. Deals
// marked dirty mid-cycle are picked up next cycle.
func (j *RecomputeJob) runCycle(parent context.Context) {
	backlog := j.dirty.DirtyDeals()
	if len(backlog) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(parent, j.config.Timeout)
	defer cancel()

	start := time.Now()
	if oldest, ok := j.dirty.OldestMark(); ok {
		j.config.Logger.Info("recompute cycle starting",
			"backlog", len(backlog),
			"oldest_wait", time.Since(oldest).Round(time.Millisecond))
	}

	recomputed := 0
	for _, dealID := range backlog {
		if ctx.Err() != nil {
			j.config.Logger.Error("recompute cycle timed out",
				"recomputed", recomputed,
				"backlog", len(backlog),
				"timeout", j.config.Timeout)
			j.reportCycle(backlog, recomputed, start, "timeout")
			return
		}

		if _, err := j.engine.Recalculate(ctx, dealID); err != nil {
			// Flag stays set; retried next cycle.
			j.config.Logger.Error("recalculation failed, deal stays dirty",
				"deal_id", dealID,
				"error", err)
			if j.config.JobMetrics != nil {
				j.config.JobMetrics.IncErrors(jobTypeRankRecompute, "recalculate")
			}
			continue
		}
		j.dirty.ClearDirty(dealID)
		recomputed++
	}

	j.reportCycle(backlog, recomputed, start, "")
	j.config.Logger.Info("recompute cycle finished",
		"recomputed", recomputed,
		"failed", len(backlog)-recomputed,
		"duration", time.Since(start).Round(time.Millisecond))
}

// reportCycle publishes gauges and job metrics for one cycle and
// invalidates cached leaderboards when any score changed.
func (j *RecomputeJob) reportCycle(backlog []string, recomputed int, start time.Time, errKind string) {
	if j.engine != nil && j.engine.metrics != nil {
		j.engine.metrics.SetLastRecomputeTimestamp(float64(time.Now().Unix()))
		j.engine.metrics.SetLastRecomputeDealCount(float64(recomputed))
	}

	if j.config.JobMetrics != nil {
		status := "success"
		if recomputed < len(backlog) {
			status = "failure"
		}
		if errKind != "" {
			j.config.JobMetrics.IncErrors(jobTypeRankRecompute, errKind)
		}
		j.config.JobMetrics.IncRuns(jobTypeRankRecompute, status)
		j.config.JobMetrics.ObserveRunDuration(jobTypeRankRecompute, time.Since(start).Seconds())
	}

	if recomputed > 0 && j.config.Invalidator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		j.config.Invalidator.Invalidate(ctx)
	}
}
