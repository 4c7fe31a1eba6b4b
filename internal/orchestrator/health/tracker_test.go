package health

import (
	"testing"
	"time"
)

func TestTracker_RecordSuccessMarksHealthy(t *testing.T) {
	tr := NewTracker()
	tr.RecordSuccess("okx_spot", time.Now())

	snap := tr.Snapshot()
	if len(snap) != 1 || !snap[0].Healthy {
		t.Fatalf("expected one healthy worker, got %+v", snap)
	}
}

func TestTracker_FailuresBelowThresholdStayHealthy(t *testing.T) {
	tr := NewTracker()
	tr.RecordSuccess("okx_spot", time.Now())
	tr.RecordFailure("okx_spot", 3)
	tr.RecordFailure("okx_spot", 3)

	healthy, total := tr.Counts()
	if total != 1 || healthy != 1 {
		t.Fatalf("expected still healthy below threshold, got healthy=%d total=%d", healthy, total)
	}
}

func TestTracker_FailuresAtThresholdMarkUnhealthy(t *testing.T) {
	tr := NewTracker()
	tr.RecordFailure("okx_spot", 3)
	tr.RecordFailure("okx_spot", 3)
	tr.RecordFailure("okx_spot", 3)

	healthy, total := tr.Counts()
	if total != 1 || healthy != 0 {
		t.Fatalf("expected unhealthy at threshold, got healthy=%d total=%d", healthy, total)
	}
}

func TestTracker_SuccessResetsFailureStreak(t *testing.T) {
	tr := NewTracker()
	tr.RecordFailure("okx_spot", 3)
	tr.RecordFailure("okx_spot", 3)
	tr.RecordSuccess("okx_spot", time.Now())
	tr.RecordFailure("okx_spot", 3)

	healthy, _ := tr.Counts()
	if healthy != 1 {
		t.Fatalf("expected success to reset the failure streak, got healthy=%d", healthy)
	}
}
