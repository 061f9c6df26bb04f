package services

import (
	"testing"
	"time"

	"github.com/clinisim/simulator-api/model"
)

// Attempted counters move when a session starts; completed counters and the
// score aggregates move only when it finishes. A user who starts three
// sessions and completes one therefore shows 3 attempted, 1 completed.
func TestProgressCountersStartVsCompletion(t *testing.T) {
	now := time.Now()
	progress := model.ClinicianProgress{UserID: 1, SpecialtyID: 2}

	applyAttemptStart(&progress, 1, now)
	applyAttemptStart(&progress, 1, now)
	applyAttemptStart(&progress, 1, now)
	applyCompletion(&progress, 82.5, now)

	if progress.CasesAttempted != 3 {
		t.Errorf("CasesAttempted = %d, want 3", progress.CasesAttempted)
	}
	if progress.CasesCompleted != 1 {
		t.Errorf("CasesCompleted = %d, want 1", progress.CasesCompleted)
	}
	if progress.AverageScore != 82.5 {
		t.Errorf("AverageScore = %v, want 82.5", progress.AverageScore)
	}
	if progress.BestScore != 82.5 {
		t.Errorf("BestScore = %v, want 82.5", progress.BestScore)
	}
	if progress.RetakeCount != 0 {
		t.Errorf("RetakeCount = %d, want 0", progress.RetakeCount)
	}
	if progress.LastActivityAt == nil || !progress.LastActivityAt.Equal(now) {
		t.Errorf("LastActivityAt = %v, want %v", progress.LastActivityAt, now)
	}
}

func TestProgressRetakeCountedAtStart(t *testing.T) {
	now := time.Now()
	progress := model.ClinicianProgress{UserID: 1, SpecialtyID: 2}

	applyAttemptStart(&progress, 1, now)
	applyAttemptStart(&progress, 2, now)
	// The second attempt is abandoned and never completed; it still counts
	// as a retake.
	applyCompletion(&progress, 70, now)

	if progress.RetakeCount != 1 {
		t.Errorf("RetakeCount = %d, want 1", progress.RetakeCount)
	}
	if progress.CasesAttempted != 2 {
		t.Errorf("CasesAttempted = %d, want 2", progress.CasesAttempted)
	}
	if progress.CasesCompleted != 1 {
		t.Errorf("CasesCompleted = %d, want 1", progress.CasesCompleted)
	}
}

func TestProgressAverageOverCompletedOnly(t *testing.T) {
	now := time.Now()
	progress := model.ClinicianProgress{UserID: 1, SpecialtyID: 2}

	applyAttemptStart(&progress, 1, now)
	applyCompletion(&progress, 60, now)
	applyAttemptStart(&progress, 2, now)
	applyCompletion(&progress, 80, now)
	applyAttemptStart(&progress, 3, now)

	if progress.AverageScore != 70 {
		t.Errorf("AverageScore = %v, want 70", progress.AverageScore)
	}
	if progress.BestScore != 80 {
		t.Errorf("BestScore = %v, want 80", progress.BestScore)
	}
}
