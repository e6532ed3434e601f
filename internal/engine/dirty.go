package engine

import (
	"sort"
	"sync"
	"time"
)

// DirtyTracker records deals whose vote set changed since their last
// persisted score. CastVote writes to it in batch mode (and on inline
// recalculation failures); the recompute job drains it. Thread-safe.
type DirtyTracker struct {
	mu sync.RWMutex
	// markedAt keeps the FIRST time a deal went dirty, so backlog age
	// survives re-marks while the deal waits for a cycle.
	markedAt map[string]time.Time
}

// NewDirtyTracker creates an empty tracker.
func NewDirtyTracker() *DirtyTracker {
	return &DirtyTracker{
		markedAt: make(map[string]time.Time),
	}
}

// MarkDirty flags a deal for recalculation. Re-marking an already dirty
// deal keeps its original mark time.
func (t *DirtyTracker) MarkDirty(dealID string) {
	t.mu.Lock()
	if _, dirty := t.markedAt[dealID]; !dirty {
		t.markedAt[dealID] = time.Now()
	}
	t.mu.Unlock()
}

// ClearDirty removes a deal's flag once its score has been persisted.
// Clearing an unknown deal is a no-op.
func (t *DirtyTracker) ClearDirty(dealID string) {
	t.mu.Lock()
	delete(t.markedAt, dealID)
	t.mu.Unlock()
}

// DirtyDeals returns a sorted snapshot of the flagged deal IDs. Sorting
// keeps recompute cycles deterministic for a given backlog.
func (t *DirtyTracker) DirtyDeals() []string {
	t.mu.RLock()
	ids := make([]string, 0, len(t.markedAt))
	for dealID := range t.markedAt {
		ids = append(ids, dealID)
	}
	t.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// IsDirty reports whether a deal is awaiting recalculation.
func (t *DirtyTracker) IsDirty(dealID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, dirty := t.markedAt[dealID]
	return dirty
}

// DirtyCount returns the current backlog size.
func (t *DirtyTracker) DirtyCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.markedAt)
}

// OldestMark returns the mark time of the longest-waiting deal, or
// false when nothing is dirty.
func (t *DirtyTracker) OldestMark() (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var oldest time.Time
	for _, at := range t.markedAt {
		if oldest.IsZero() || at.Before(oldest) {
			oldest = at
		}
	}
	return oldest, !oldest.IsZero()
}
