package orchestrator

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// SpreadAgeTracker records, per pair_id, the first tick at which the real
// spread crossed above threshold, clearing on any tick that drops back
// below it. Sample period is the caller's own scan tick (§4.6 check 6,
// Open Question 1).
type SpreadAgeTracker struct {
	mu      sync.Mutex
	started map[string]time.Time
}

func NewSpreadAgeTracker() *SpreadAgeTracker {
	return &SpreadAgeTracker{started: make(map[string]time.Time)}
}

// Observe records one tick's real spread for pairID and returns how long
// the spread has continuously stayed at or above threshold, as of now.
// Returns zero when the current tick is below threshold.
func (s *SpreadAgeTracker) Observe(pairID string, realSpreadPct, threshold decimal.Decimal, now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if realSpreadPct.LessThan(threshold) {
		delete(s.started, pairID)
		return 0
	}

	start, ok := s.started[pairID]
	if !ok {
		s.started[pairID] = now
		return 0
	}
	return now.Sub(start)
}
