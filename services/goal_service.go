package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinisim/simulator-api/model"
	"gorm.io/gorm"
)

// ErrGoalNotActive is returned when evaluating or updating a goal that has
// already been achieved or abandoned
var ErrGoalNotActive = errors.New("learning goal is not active")

// GoalService manages self-set learning goals and evaluates them against
// recorded performance metrics
type GoalService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewGoalService creates a new goal service
func NewGoalService(db *gorm.DB, notifications *NotificationService) *GoalService {
	return &GoalService{db: db, notifications: notifications}
}

// GoalEvaluation describes how a goal currently stands against the user's
// recorded sessions
type GoalEvaluation struct {
	GoalID           uint    `json:"goal_id"`
	SessionsCounted  int64   `json:"sessions_counted"`
	SessionsRequired int     `json:"sessions_required"`
	AverageScore     float64 `json:"average_score"`
	TargetScore      float64 `json:"target_score"`
	Achieved         bool    `json:"achieved"`
	Overdue          bool    `json:"overdue"`
}

// CreateGoal creates an active learning goal for a user
func (s *GoalService) CreateGoal(ctx context.Context, goal *model.LearningGoal) error {
	if goal.TargetScore < 0 || goal.TargetScore > 100 {
		return fmt.Errorf("target score must be between 0 and 100, got %.2f", goal.TargetScore)
	}
	if goal.MinSessions < 1 {
		goal.MinSessions = 1
	}
	goal.Status = model.GoalActive
	if err := s.db.WithContext(ctx).Create(goal).Error; err != nil {
		return fmt.Errorf("failed to create learning goal: %w", err)
	}
	return nil
}

// ListGoals returns a user's goals, optionally filtered by status
func (s *GoalService) ListGoals(ctx context.Context, userID uint, status model.GoalStatus) ([]model.LearningGoal, error) {
	query := s.db.WithContext(ctx).
		Preload("Specialty").
		Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var goals []model.LearningGoal
	if err := query.Order("created_at DESC").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("failed to list learning goals: %w", err)
	}
	return goals, nil
}

// GetGoal loads one of the user's goals by ID
func (s *GoalService) GetGoal(ctx context.Context, userID, goalID uint) (*model.LearningGoal, error) {
	var goal model.LearningGoal
	err := s.db.WithContext(ctx).
		Preload("Specialty").
		Where("id = ? AND user_id = ?", goalID, userID).
		First(&goal).Error
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// UpdateGoal applies updates to an active goal
func (s *GoalService) UpdateGoal(ctx context.Context, userID, goalID uint, updates map[string]interface{}) (*model.LearningGoal, error) {
	goal, err := s.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Status != model.GoalActive {
		return nil, ErrGoalNotActive
	}
	if ts, ok := updates["target_score"].(float64); ok && (ts < 0 || ts > 100) {
		return nil, fmt.Errorf("target score must be between 0 and 100, got %.2f", ts)
	}
	if err := s.db.WithContext(ctx).Model(goal).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update learning goal: %w", err)
	}
	return goal, nil
}

// AbandonGoal marks an active goal as abandoned
func (s *GoalService) AbandonGoal(ctx context.Context, userID, goalID uint) error {
	result := s.db.WithContext(ctx).
		Model(&model.LearningGoal{}).
		Where("id = ? AND user_id = ? AND status = ?", goalID, userID, model.GoalActive).
		Update("status", model.GoalAbandoned)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// EvaluateGoal checks an active goal against the user's completed sessions
// since the goal was created. A goal is achieved once the user has at least
// MinSessions qualifying sessions and their average score meets TargetScore.
// Achievement is persisted and notified; evaluation of an already achieved
// goal returns its stored state without re-checking.
func (s *GoalService) EvaluateGoal(ctx context.Context, userID, goalID uint) (*GoalEvaluation, error) {
	goal, err := s.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	eval := &GoalEvaluation{
		GoalID:           goal.ID,
		SessionsRequired: goal.MinSessions,
		TargetScore:      goal.TargetScore,
	}

	if goal.Status == model.GoalAchieved {
		eval.Achieved = true
		return eval, nil
	}
	if goal.Status != model.GoalActive {
		return nil, ErrGoalNotActive
	}

	query := s.db.WithContext(ctx).
		Model(&model.PerformanceMetric{}).
		Where("performance_metrics.user_id = ? AND performance_metrics.completed_at >= ?", userID, goal.CreatedAt)
	if goal.SpecialtyID != nil {
		query = query.
			Joins("JOIN cases ON cases.id = performance_metrics.case_id").
			Where("cases.specialty_id = ?", *goal.SpecialtyID)
	}

	type aggregate struct {
		Count   int64
		Average float64
	}
	var agg aggregate
	err = query.
		Select("COUNT(*) as count, COALESCE(AVG(performance_metrics.score), 0) as average").
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate learning goal: %w", err)
	}

	eval.SessionsCounted = agg.Count
	eval.AverageScore = agg.Average
	if goal.DueDate != nil && time.Now().After(*goal.DueDate) {
		eval.Overdue = true
	}

	if agg.Count >= int64(goal.MinSessions) && agg.Average >= goal.TargetScore {
		eval.Achieved = true
		now := time.Now()
		err = s.db.WithContext(ctx).Model(goal).Updates(map[string]interface{}{
			"status":      model.GoalAchieved,
			"achieved_at": now,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("failed to mark goal achieved: %w", err)
		}
		s.notifyAchievement(ctx, goal)
	}

	return eval, nil
}

// EvaluateActiveGoals evaluates all active goals for a user. Called after a
// session completes and by the nightly reconciliation job.
func (s *GoalService) EvaluateActiveGoals(ctx context.Context, userID uint) error {
	goals, err := s.ListGoals(ctx, userID, model.GoalActive)
	if err != nil {
		return err
	}
	for _, goal := range goals {
		if _, err := s.EvaluateGoal(ctx, userID, goal.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *GoalService) notifyAchievement(ctx context.Context, goal *model.LearningGoal) {
	if s.notifications == nil {
		return
	}
	_, _ = s.notifications.CreateNotification(ctx, CreateNotificationRequest{
		UserID:   goal.UserID,
		Type:     model.NotificationTypeSuccess,
		Category: model.NotificationCategoryGoal,
		Title:    "Learning goal achieved",
		Message:  fmt.Sprintf("You reached your target for %q. Well done!", goal.Title),
		Metadata: &model.NotificationMetadata{GoalID: goal.ID},
	})
}
