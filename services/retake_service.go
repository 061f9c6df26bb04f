package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/clinisim/simulator-api/model"
	"gorm.io/gorm"
)

var (
	// ErrInsufficientAttempts is returned when a comparison is requested
	// over fewer than two completed attempts
	ErrInsufficientAttempts = errors.New("at least two completed attempts are required for comparison")

	// ErrSessionMismatch is returned when the two sessions being compared
	// do not belong to the same user and case
	ErrSessionMismatch = errors.New("sessions do not belong to the same user and case")
)

// StableEpsilon is the score difference below which a trend is classified as
// stable. Scores are percentages reported to at most one decimal place, so
// differences under half a point are treated as noise.
const StableEpsilon = 0.5

// Trend classifications
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Attempt is one completed attempt at a case, ordered by completion time
type Attempt struct {
	AttemptNumber  int                `json:"attempt_number"`
	Score          float64            `json:"score"`
	CompletedAt    time.Time          `json:"completed_at"`
	CriteriaScores map[string]float64 `json:"criteria_scores,omitempty"`
}

// ScorePoint is one entry in a score progression
type ScorePoint struct {
	Attempt int     `json:"attempt"`
	Score   float64 `json:"score"`
}

// AreaImprovement is a before/after pair for one evaluation criterion present
// in both the first and last attempt
type AreaImprovement struct {
	Area         string  `json:"area"`
	FirstAttempt float64 `json:"first_attempt"`
	LastAttempt  float64 `json:"last_attempt"`
	Delta        float64 `json:"delta"`
}

// ImprovementSummary is the result of comparing attempts at the same case
type ImprovementSummary struct {
	ScoreProgression []ScorePoint      `json:"score_progression"`
	AreaImprovements []AreaImprovement `json:"area_improvements"`
	OverallTrend     string            `json:"overall_trend"`
	ScoreDelta       float64           `json:"score_delta"`
}

// CompareAttempts computes an improvement summary over an ordered sequence of
// attempts at the same case. The input must be ordered by completion time
// ascending and contain at least two attempts. The function is pure: it never
// touches storage and identical input yields identical output.
func CompareAttempts(attempts []Attempt) (*ImprovementSummary, error) {
	if len(attempts) < 2 {
		return nil, ErrInsufficientAttempts
	}

	summary := &ImprovementSummary{
		ScoreProgression: make([]ScorePoint, 0, len(attempts)),
		AreaImprovements: []AreaImprovement{},
	}

	for _, a := range attempts {
		summary.ScoreProgression = append(summary.ScoreProgression, ScorePoint{
			Attempt: a.AttemptNumber,
			Score:   a.Score,
		})
	}

	first := attempts[0]
	last := attempts[len(attempts)-1]

	summary.ScoreDelta = last.Score - first.Score
	summary.OverallTrend = classifyTrend(first.Score, last.Score)

	// Only criteria present in both the first and last attempt are compared;
	// criteria missing from either side are skipped.
	if len(first.CriteriaScores) > 0 && len(last.CriteriaScores) > 0 {
		areas := make([]string, 0, len(first.CriteriaScores))
		for area := range first.CriteriaScores {
			if _, ok := last.CriteriaScores[area]; ok {
				areas = append(areas, area)
			}
		}
		sort.Strings(areas)

		for _, area := range areas {
			before := first.CriteriaScores[area]
			after := last.CriteriaScores[area]
			summary.AreaImprovements = append(summary.AreaImprovements, AreaImprovement{
				Area:         area,
				FirstAttempt: before,
				LastAttempt:  after,
				Delta:        after - before,
			})
		}
	}

	return summary, nil
}

// classifyTrend compares first and last scores with a stability band
func classifyTrend(first, last float64) string {
	diff := last - first
	if math.Abs(diff) < StableEpsilon {
		return TrendStable
	}
	if diff > 0 {
		return TrendImproving
	}
	return TrendDeclining
}

// RetakeService manages retake sessions and improvement comparisons
type RetakeService struct {
	db *gorm.DB
}

// NewRetakeService creates a new retake service
func NewRetakeService(db *gorm.DB) *RetakeService {
	return &RetakeService{db: db}
}

// AttemptHistory returns the user's completed attempts at a case ordered by
// completion time ascending, in the shape the comparator consumes.
func (s *RetakeService) AttemptHistory(ctx context.Context, userID, caseID uint) ([]Attempt, error) {
	var metrics []model.PerformanceMetric
	err := s.db.WithContext(ctx).
		Joins("JOIN simulation_sessions ON simulation_sessions.id = performance_metrics.session_id").
		Where("performance_metrics.user_id = ? AND performance_metrics.case_id = ?", userID, caseID).
		Where("simulation_sessions.status = ?", model.SessionCompleted).
		Order("performance_metrics.completed_at ASC").
		Preload("Session").
		Find(&metrics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt history: %w", err)
	}

	attempts := make([]Attempt, 0, len(metrics))
	for _, m := range metrics {
		attempts = append(attempts, metricToAttempt(m))
	}
	return attempts, nil
}

// CompareSessions loads two completed sessions by their external IDs and
// compares them. Which session counts as "first" is decided by completion
// time, not by caller argument order.
func (s *RetakeService) CompareSessions(ctx context.Context, userID uint, originalSessionID, retakeSessionID string) (*ImprovementSummary, error) {
	original, err := s.loadCompletedAttempt(ctx, userID, originalSessionID)
	if err != nil {
		return nil, err
	}
	retake, err := s.loadCompletedAttempt(ctx, userID, retakeSessionID)
	if err != nil {
		return nil, err
	}

	if original.caseID != retake.caseID {
		return nil, ErrSessionMismatch
	}

	attempts := []Attempt{original.attempt, retake.attempt}
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].CompletedAt.Before(attempts[j].CompletedAt)
	})

	return CompareAttempts(attempts)
}

// CompareHistory compares the user's full attempt history for a case
func (s *RetakeService) CompareHistory(ctx context.Context, userID, caseID uint) (*ImprovementSummary, error) {
	attempts, err := s.AttemptHistory(ctx, userID, caseID)
	if err != nil {
		return nil, err
	}
	return CompareAttempts(attempts)
}

type loadedAttempt struct {
	caseID  uint
	attempt Attempt
}

func (s *RetakeService) loadCompletedAttempt(ctx context.Context, userID uint, sessionID string) (*loadedAttempt, error) {
	var session model.SimulationSession
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("session %s: %w", sessionID, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session.Status != model.SessionCompleted {
		return nil, fmt.Errorf("session %s is not completed", sessionID)
	}

	var metric model.PerformanceMetric
	if err := s.db.WithContext(ctx).Where("session_id = ?", session.ID).First(&metric).Error; err != nil {
		return nil, fmt.Errorf("failed to load metric for session %s: %w", sessionID, err)
	}
	metric.Session = session

	return &loadedAttempt{caseID: session.CaseID, attempt: metricToAttempt(metric)}, nil
}

func metricToAttempt(m model.PerformanceMetric) Attempt {
	attempt := Attempt{
		AttemptNumber: m.Session.AttemptNumber,
		Score:         m.Score,
		CompletedAt:   m.CompletedAt,
	}
	if len(m.CriteriaScores) > 0 {
		var criteria map[string]float64
		if err := json.Unmarshal(m.CriteriaScores, &criteria); err == nil {
			attempt.CriteriaScores = criteria
		}
	}
	return attempt
}
