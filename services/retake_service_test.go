package services

import (
	"math"
	"testing"
	"time"
)

func attemptAt(number int, score float64, minutesAgo int, criteria map[string]float64) Attempt {
	return Attempt{
		AttemptNumber:  number,
		Score:          score,
		CompletedAt:    time.Now().Add(-time.Duration(minutesAgo) * time.Minute),
		CriteriaScores: criteria,
	}
}

func TestCompareAttemptsRequiresTwoAttempts(t *testing.T) {
	_, err := CompareAttempts(nil)
	if err != ErrInsufficientAttempts {
		t.Errorf("expected ErrInsufficientAttempts for empty input, got %v", err)
	}

	_, err = CompareAttempts([]Attempt{attemptAt(1, 70, 0, nil)})
	if err != ErrInsufficientAttempts {
		t.Errorf("expected ErrInsufficientAttempts for single attempt, got %v", err)
	}
}

func TestCompareAttemptsTrend(t *testing.T) {
	tests := []struct {
		name      string
		first     float64
		last      float64
		wantTrend string
		wantDelta float64
	}{
		{"improving", 60, 75, TrendImproving, 15},
		{"declining", 80, 62.5, TrendDeclining, -17.5},
		{"stable when unchanged", 70, 70, TrendStable, 0},
		{"stable just under epsilon", 70, 70.4, TrendStable, 0.4},
		{"improving at epsilon", 70, 70.5, TrendImproving, 0.5},
		{"declining at epsilon", 70.5, 70, TrendDeclining, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := CompareAttempts([]Attempt{
				attemptAt(1, tt.first, 60, nil),
				attemptAt(2, tt.last, 0, nil),
			})
			if err != nil {
				t.Fatalf("CompareAttempts returned error: %v", err)
			}
			if summary.OverallTrend != tt.wantTrend {
				t.Errorf("trend = %q, want %q", summary.OverallTrend, tt.wantTrend)
			}
			if math.Abs(summary.ScoreDelta-tt.wantDelta) > 1e-9 {
				t.Errorf("delta = %v, want %v", summary.ScoreDelta, tt.wantDelta)
			}
		})
	}
}

func TestCompareAttemptsTrendUsesFirstAndLastOnly(t *testing.T) {
	// A dip in the middle must not affect the trend classification
	summary, err := CompareAttempts([]Attempt{
		attemptAt(1, 60, 120, nil),
		attemptAt(2, 40, 60, nil),
		attemptAt(3, 72, 0, nil),
	})
	if err != nil {
		t.Fatalf("CompareAttempts returned error: %v", err)
	}

	if summary.OverallTrend != TrendImproving {
		t.Errorf("trend = %q, want %q", summary.OverallTrend, TrendImproving)
	}
	if summary.ScoreDelta != 12 {
		t.Errorf("delta = %v, want 12", summary.ScoreDelta)
	}
	if len(summary.ScoreProgression) != 3 {
		t.Fatalf("progression length = %d, want 3", len(summary.ScoreProgression))
	}
	for i, want := range []float64{60, 40, 72} {
		if summary.ScoreProgression[i].Score != want {
			t.Errorf("progression[%d].Score = %v, want %v", i, summary.ScoreProgression[i].Score, want)
		}
	}
}

func TestCompareAttemptsAreaImprovements(t *testing.T) {
	first := map[string]float64{
		"History Taking": 55,
		"Communication":  70,
		"Examination":    60, // dropped in the last attempt
	}
	last := map[string]float64{
		"History Taking": 80,
		"Communication":  65,
		"Differential":   75, // new in the last attempt
	}

	summary, err := CompareAttempts([]Attempt{
		attemptAt(1, 60, 60, first),
		attemptAt(2, 72, 0, last),
	})
	if err != nil {
		t.Fatalf("CompareAttempts returned error: %v", err)
	}

	// Only criteria present in both attempts are compared, sorted by name
	if len(summary.AreaImprovements) != 2 {
		t.Fatalf("area improvements = %d, want 2", len(summary.AreaImprovements))
	}

	comm := summary.AreaImprovements[0]
	if comm.Area != "Communication" || comm.Delta != -5 {
		t.Errorf("improvements[0] = %+v, want Communication delta -5", comm)
	}

	hist := summary.AreaImprovements[1]
	if hist.Area != "History Taking" || hist.Delta != 25 {
		t.Errorf("improvements[1] = %+v, want History Taking delta 25", hist)
	}
}

func TestCompareAttemptsNoCriteriaOverlap(t *testing.T) {
	summary, err := CompareAttempts([]Attempt{
		attemptAt(1, 60, 60, map[string]float64{"History Taking": 55}),
		attemptAt(2, 72, 0, nil),
	})
	if err != nil {
		t.Fatalf("CompareAttempts returned error: %v", err)
	}
	if len(summary.AreaImprovements) != 0 {
		t.Errorf("area improvements = %d, want 0 when last attempt has no criteria", len(summary.AreaImprovements))
	}
}
