package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/clinisim/simulator-api/model"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrSessionNotInProgress is returned when completing or abandoning a
	// session that is not in progress
	ErrSessionNotInProgress = errors.New("session is not in progress")

	// ErrCaseNotAvailable is returned when starting a session against an
	// unpublished case or a case in a hidden specialty
	ErrCaseNotAvailable = errors.New("case is not available")

	// ErrRetakeLimitReached is returned when the user has exhausted the
	// configured retake allowance for a case
	ErrRetakeLimitReached = errors.New("retake limit reached for this case")
)

// SessionService manages the simulation session lifecycle
type SessionService struct {
	db *gorm.DB
}

// NewSessionService creates a new session service
func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// StartSessionInput carries the parameters for starting a session. The retake
// fields are optional; a first attempt leaves them empty.
type StartSessionInput struct {
	UserID                uint
	CaseID                uint
	PreviousSessionID     string
	RetakeReason          string
	ImprovementFocusAreas []string
}

// StartSession creates a new in-progress session for the user against a case.
// The attempt number is one more than the user's existing session count for
// the case, retakes included.
func (s *SessionService) StartSession(ctx context.Context, input StartSessionInput) (*model.SimulationSession, error) {
	var cs model.Case
	if err := s.db.WithContext(ctx).Preload("Specialty").First(&cs, input.CaseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	if !cs.Published || !cs.Specialty.Visible {
		return nil, ErrCaseNotAvailable
	}

	// Link to the previous session when given; it must belong to the same
	// user and case.
	var previousID *string
	if input.PreviousSessionID != "" {
		var prev model.SimulationSession
		err := s.db.WithContext(ctx).
			Where("session_id = ? AND user_id = ? AND case_id = ?",
				input.PreviousSessionID, input.UserID, input.CaseID).
			First(&prev).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("previous session %s: %w", input.PreviousSessionID, gorm.ErrRecordNotFound)
			}
			return nil, fmt.Errorf("failed to load previous session: %w", err)
		}
		previousID = &prev.SessionID
	}

	session := model.SimulationSession{
		SessionID:         uuid.New().String(),
		UserID:            input.UserID,
		CaseID:            input.CaseID,
		Status:            model.SessionInProgress,
		StartedAt:         time.Now(),
		PreviousSessionID: previousID,
		RetakeReason:      input.RetakeReason,
	}

	if len(input.ImprovementFocusAreas) > 0 {
		areasJSON, err := json.Marshal(input.ImprovementFocusAreas)
		if err != nil {
			return nil, fmt.Errorf("failed to encode focus areas: %w", err)
		}
		session.ImprovementFocusAreas = datatypes.JSON(areasJSON)
	}

	maxRetakes := s.maxRetakesPerCase(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var attempts int64
		if err := tx.Model(&model.SimulationSession{}).
			Where("user_id = ? AND case_id = ?", input.UserID, input.CaseID).
			Count(&attempts).Error; err != nil {
			return err
		}
		if maxRetakes > 0 && attempts > int64(maxRetakes) {
			return ErrRetakeLimitReached
		}
		session.AttemptNumber = int(attempts) + 1

		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		progress, err := progressFor(tx, input.UserID, cs.SpecialtyID)
		if err != nil {
			return err
		}
		applyAttemptStart(&progress, session.AttemptNumber, session.StartedAt)
		if err := tx.Save(&progress).Error; err != nil {
			return err
		}

		return tx.Model(&model.Case{}).
			Where("id = ?", input.CaseID).
			UpdateColumn("attempt_count", gorm.Expr("attempt_count + 1")).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &session, nil
}

// maxRetakesPerCase reads the retake allowance from app settings. Zero means
// unlimited; a missing or malformed setting falls back to unlimited.
func (s *SessionService) maxRetakesPerCase(ctx context.Context) int {
	var setting model.AppSetting
	err := s.db.WithContext(ctx).
		Where("key = ?", model.SettingMaxRetakesPerCase).
		First(&setting).Error
	if err != nil {
		return 0
	}
	limit, err := strconv.Atoi(setting.Value)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// CompleteSessionInput carries the scored outcome of a session
type CompleteSessionInput struct {
	Score          float64
	CriteriaScores map[string]float64
}

// CompleteSession marks an in-progress session completed, records its
// performance metric and updates the clinician progress rollup.
func (s *SessionService) CompleteSession(ctx context.Context, userID uint, sessionID string, input CompleteSessionInput) (*model.SimulationSession, error) {
	var session model.SimulationSession
	err := s.db.WithContext(ctx).
		Preload("Case").
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if err != nil {
		return nil, err
	}

	if session.Status != model.SessionInProgress {
		return nil, ErrSessionNotInProgress
	}

	if input.Score < 0 || input.Score > 100 {
		return nil, fmt.Errorf("score %.2f out of range [0,100]", input.Score)
	}

	now := time.Now()
	metric := model.PerformanceMetric{
		SessionID:     session.ID,
		UserID:        session.UserID,
		CaseID:        session.CaseID,
		Score:         input.Score,
		TimeTakenSecs: int(now.Sub(session.StartedAt).Seconds()),
		Rating:        model.RatingForScore(input.Score),
		CompletedAt:   now,
	}
	if len(input.CriteriaScores) > 0 {
		criteriaJSON, err := json.Marshal(input.CriteriaScores)
		if err != nil {
			return nil, fmt.Errorf("failed to encode criteria scores: %w", err)
		}
		metric.CriteriaScores = datatypes.JSON(criteriaJSON)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&session).Updates(map[string]interface{}{
			"status":       model.SessionCompleted,
			"completed_at": now,
		}).Error; err != nil {
			return err
		}

		if err := tx.Create(&metric).Error; err != nil {
			return err
		}

		return updateProgressRollup(tx, &session, input.Score, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	session.Status = model.SessionCompleted
	session.CompletedAt = &now
	session.Metric = &metric
	return &session, nil
}

// AbandonSession marks an in-progress session abandoned
func (s *SessionService) AbandonSession(ctx context.Context, userID uint, sessionID string) error {
	var session model.SimulationSession
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if err != nil {
		return err
	}

	if session.Status != model.SessionInProgress {
		return ErrSessionNotInProgress
	}

	return s.db.WithContext(ctx).Model(&session).
		Update("status", model.SessionAbandoned).Error
}

// GetSession loads a session by its external ID for the given user
func (s *SessionService) GetSession(ctx context.Context, userID uint, sessionID string) (*model.SimulationSession, error) {
	var session model.SimulationSession
	err := s.db.WithContext(ctx).
		Preload("Case").
		Preload("Metric").
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessionsForCase returns the user's sessions for a case ordered by start
// time ascending, metrics included where present.
func (s *SessionService) ListSessionsForCase(ctx context.Context, userID, caseID uint) ([]model.SimulationSession, error) {
	var sessions []model.SimulationSession
	err := s.db.WithContext(ctx).
		Preload("Metric").
		Where("user_id = ? AND case_id = ?", userID, caseID).
		Order("started_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// SweepAbandonedSessions marks sessions that have been in progress longer
// than maxAge as abandoned. Returns the number of sessions swept.
func (s *SessionService) SweepAbandonedSessions(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	result := s.db.WithContext(ctx).
		Model(&model.SimulationSession{}).
		Where("status = ? AND started_at < ?", model.SessionInProgress, cutoff).
		Update("status", model.SessionAbandoned)
	return result.RowsAffected, result.Error
}

// progressFor loads the user's progress row for a specialty, or a fresh
// zero-valued row when none exists yet.
func progressFor(tx *gorm.DB, userID, specialtyID uint) (model.ClinicianProgress, error) {
	var progress model.ClinicianProgress
	err := tx.Where("user_id = ? AND specialty_id = ?", userID, specialtyID).
		First(&progress).Error
	if err == gorm.ErrRecordNotFound {
		return model.ClinicianProgress{UserID: userID, SpecialtyID: specialtyID}, nil
	}
	return progress, err
}

// applyAttemptStart records a newly started session on the progress row.
// Attempted and retake counters move at start so abandoned sessions still
// count as attempts, matching the nightly reconcile aggregate.
func applyAttemptStart(progress *model.ClinicianProgress, attemptNumber int, now time.Time) {
	progress.CasesAttempted++
	if attemptNumber > 1 {
		progress.RetakeCount++
	}
	progress.LastActivityAt = &now
}

// applyCompletion folds a completed session's score into the progress row.
func applyCompletion(progress *model.ClinicianProgress, score float64, now time.Time) {
	progress.CasesCompleted++
	// Running average over completed sessions
	progress.AverageScore = progress.AverageScore + (score-progress.AverageScore)/float64(progress.CasesCompleted)
	if score > progress.BestScore {
		progress.BestScore = score
	}
	progress.LastActivityAt = &now
}

// updateProgressRollup upserts the per-user per-specialty progress counters
// inside the completion transaction.
func updateProgressRollup(tx *gorm.DB, session *model.SimulationSession, score float64, now time.Time) error {
	progress, err := progressFor(tx, session.UserID, session.Case.SpecialtyID)
	if err != nil {
		return err
	}
	applyCompletion(&progress, score, now)
	return tx.Save(&progress).Error
}
