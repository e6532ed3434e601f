// Package stats provides utilities for tracking score upsert statistics.
package stats

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// UpsertStats tracks cumulative insert/update counts for score upserts.
// The ranking engine records one event per recalculation, distinguishing
// first-time scores (inserts) from overwrites (updates). All operations
// are thread-safe using atomic counters.
type UpsertStats struct {
	inserted int64 // First-time score rows written
	updated  int64 // Existing score rows overwritten
}

// NewUpsertStats creates a new UpsertStats instance.
func NewUpsertStats() *UpsertStats {
	return &UpsertStats{}
}

// Record counts one upsert outcome as reported by the score store.
func (s *UpsertStats) Record(inserted bool) {
	if inserted {
		atomic.AddInt64(&s.inserted, 1)
	} else {
		atomic.AddInt64(&s.updated, 1)
	}
}

// Inserted returns the total number of first-time score writes.
func (s *UpsertStats) Inserted() int64 {
	return atomic.LoadInt64(&s.inserted)
}

// Updated returns the total number of score overwrites.
func (s *UpsertStats) Updated() int64 {
	return atomic.LoadInt64(&s.updated)
}

// Total returns the total number of score upserts.
func (s *UpsertStats) Total() int64 {
	return s.Inserted() + s.Updated()
}

// Reset resets all counters to zero.
func (s *UpsertStats) Reset() {
	atomic.StoreInt64(&s.inserted, 0)
	atomic.StoreInt64(&s.updated, 0)
}

// String returns a human-readable summary of the statistics.
func (s *UpsertStats) String() string {
	return fmt.Sprintf("inserted=%d updated=%d total=%d", s.Inserted(), s.Updated(), s.Total())
}

// LogSummary logs a summary of upsert statistics at INFO level. Useful
// for periodic reporting from the recompute job.
func (s *UpsertStats) LogSummary(logger *slog.Logger, entity string) {
	logger.Info("upsert statistics",
		"entity", entity,
		"inserted", s.Inserted(),
		"updated", s.Updated(),
		"total", s.Total(),
	)
}
