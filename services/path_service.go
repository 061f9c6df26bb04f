package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinisim/simulator-api/model"
	"gorm.io/gorm"
)

var (
	// ErrPathNotPublished is returned when a learner tries to enroll in an
	// unpublished path
	ErrPathNotPublished = errors.New("learning path is not published")
	// ErrAlreadyEnrolled is returned on duplicate enrollment
	ErrAlreadyEnrolled = errors.New("already enrolled in this learning path")
	// ErrNotEnrolled is returned when progress is requested for a path the
	// user never enrolled in
	ErrNotEnrolled = errors.New("not enrolled in this learning path")
)

// PathService manages curated learning paths, their steps and learner
// enrollment
type PathService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewPathService creates a new learning path service
func NewPathService(db *gorm.DB, notifications *NotificationService) *PathService {
	return &PathService{db: db, notifications: notifications}
}

// PathStepInput describes one case in a path when creating or replacing steps
type PathStepInput struct {
	CaseID uint   `json:"case_id" validate:"required"`
	Notes  string `json:"notes"`
}

// StepProgress pairs a path step with whether the learner has completed it
type StepProgress struct {
	Step      model.LearningPathStep `json:"step"`
	Completed bool                   `json:"completed"`
	BestScore *float64               `json:"best_score,omitempty"`
}

// PathProgress summarizes a learner's position in a path
type PathProgress struct {
	PathID         uint           `json:"path_id"`
	StepsTotal     int            `json:"steps_total"`
	StepsCompleted int            `json:"steps_completed"`
	Completed      bool           `json:"completed"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	Steps          []StepProgress `json:"steps"`
}

// CreatePath creates an unpublished path with the given ordered steps
func (s *PathService) CreatePath(ctx context.Context, path *model.LearningPath, steps []PathStepInput) error {
	if len(steps) == 0 {
		return fmt.Errorf("a learning path needs at least one step")
	}
	path.Published = false

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(path).Error; err != nil {
			return fmt.Errorf("failed to create learning path: %w", err)
		}
		return s.insertSteps(tx, path.ID, steps)
	})
}

// ReplaceSteps swaps a path's step list for a new ordered one
func (s *PathService) ReplaceSteps(ctx context.Context, pathID uint, steps []PathStepInput) error {
	if len(steps) == 0 {
		return fmt.Errorf("a learning path needs at least one step")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var path model.LearningPath
		if err := tx.First(&path, pathID).Error; err != nil {
			return err
		}
		if err := tx.Where("path_id = ?", pathID).Delete(&model.LearningPathStep{}).Error; err != nil {
			return fmt.Errorf("failed to clear path steps: %w", err)
		}
		return s.insertSteps(tx, pathID, steps)
	})
}

func (s *PathService) insertSteps(tx *gorm.DB, pathID uint, steps []PathStepInput) error {
	rows := make([]model.LearningPathStep, 0, len(steps))
	for i, step := range steps {
		var caseCount int64
		if err := tx.Model(&model.Case{}).Where("id = ?", step.CaseID).Count(&caseCount).Error; err != nil {
			return err
		}
		if caseCount == 0 {
			return fmt.Errorf("case %d does not exist", step.CaseID)
		}
		rows = append(rows, model.LearningPathStep{
			PathID:   pathID,
			Position: i + 1,
			CaseID:   step.CaseID,
			Notes:    step.Notes,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to create path steps: %w", err)
	}
	return nil
}

// ListPaths returns published paths, optionally filtered by specialty.
// Admin listings include unpublished paths.
func (s *PathService) ListPaths(ctx context.Context, specialtyID uint, includeUnpublished bool) ([]model.LearningPath, error) {
	query := s.db.WithContext(ctx).Preload("Specialty")
	if !includeUnpublished {
		query = query.Where("published = ?", true)
	}
	if specialtyID != 0 {
		query = query.Where("specialty_id = ?", specialtyID)
	}

	var paths []model.LearningPath
	if err := query.Order("created_at DESC").Find(&paths).Error; err != nil {
		return nil, fmt.Errorf("failed to list learning paths: %w", err)
	}
	return paths, nil
}

// GetPath loads a path with its ordered steps
func (s *PathService) GetPath(ctx context.Context, pathID uint) (*model.LearningPath, error) {
	var path model.LearningPath
	err := s.db.WithContext(ctx).
		Preload("Specialty").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Steps.Case").
		First(&path, pathID).Error
	if err != nil {
		return nil, err
	}
	return &path, nil
}

// UpdatePath applies updates to a path's metadata
func (s *PathService) UpdatePath(ctx context.Context, pathID uint, updates map[string]interface{}) (*model.LearningPath, error) {
	var path model.LearningPath
	if err := s.db.WithContext(ctx).First(&path, pathID).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&path).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update learning path: %w", err)
	}
	return &path, nil
}

// DeletePath soft-deletes a path
func (s *PathService) DeletePath(ctx context.Context, pathID uint) error {
	result := s.db.WithContext(ctx).Delete(&model.LearningPath{}, pathID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Enroll enrolls a user in a published path
func (s *PathService) Enroll(ctx context.Context, userID, pathID uint) error {
	var path model.LearningPath
	if err := s.db.WithContext(ctx).First(&path, pathID).Error; err != nil {
		return err
	}
	if !path.Published {
		return ErrPathNotPublished
	}

	var existing int64
	err := s.db.WithContext(ctx).
		Model(&model.LearningPathLearner{}).
		Where("path_id = ? AND user_id = ?", pathID, userID).
		Count(&existing).Error
	if err != nil {
		return err
	}
	if existing > 0 {
		return ErrAlreadyEnrolled
	}

	enrollment := model.LearningPathLearner{PathID: pathID, UserID: userID}
	if err := s.db.WithContext(ctx).Create(&enrollment).Error; err != nil {
		return fmt.Errorf("failed to enroll in learning path: %w", err)
	}
	return nil
}

// Progress computes a learner's progress through a path. A step counts as
// completed when the learner has any completed session for its case since
// enrollment. Finishing the last open step stamps CompletedAt and notifies
// the learner.
func (s *PathService) Progress(ctx context.Context, userID, pathID uint) (*PathProgress, error) {
	var enrollment model.LearningPathLearner
	err := s.db.WithContext(ctx).
		Where("path_id = ? AND user_id = ?", pathID, userID).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}

	path, err := s.GetPath(ctx, pathID)
	if err != nil {
		return nil, err
	}

	progress := &PathProgress{
		PathID:      pathID,
		StepsTotal:  len(path.Steps),
		CompletedAt: enrollment.CompletedAt,
		Steps:       make([]StepProgress, 0, len(path.Steps)),
	}

	for _, step := range path.Steps {
		var best *float64
		row := s.db.WithContext(ctx).
			Model(&model.PerformanceMetric{}).
			Where("user_id = ? AND case_id = ? AND completed_at >= ?", userID, step.CaseID, enrollment.EnrolledAt).
			Select("MAX(score)").
			Row()
		if err := row.Scan(&best); err != nil {
			return nil, fmt.Errorf("failed to compute path progress: %w", err)
		}

		sp := StepProgress{Step: step, Completed: best != nil, BestScore: best}
		if sp.Completed {
			progress.StepsCompleted++
		}
		progress.Steps = append(progress.Steps, sp)
	}

	progress.Completed = progress.StepsTotal > 0 && progress.StepsCompleted == progress.StepsTotal

	if progress.Completed && enrollment.CompletedAt == nil {
		now := time.Now()
		err := s.db.WithContext(ctx).
			Model(&model.LearningPathLearner{}).
			Where("path_id = ? AND user_id = ?", pathID, userID).
			Update("completed_at", now).Error
		if err != nil {
			return nil, fmt.Errorf("failed to record path completion: %w", err)
		}
		progress.CompletedAt = &now
		s.notifyCompletion(ctx, userID, path)
	}

	return progress, nil
}

func (s *PathService) notifyCompletion(ctx context.Context, userID uint, path *model.LearningPath) {
	if s.notifications == nil {
		return
	}
	_, _ = s.notifications.CreateNotification(ctx, CreateNotificationRequest{
		UserID:   userID,
		Type:     model.NotificationTypeSuccess,
		Category: model.NotificationCategoryLearningPath,
		Title:    "Learning path completed",
		Message:  fmt.Sprintf("You completed every case in %q.", path.Title),
		Metadata: &model.NotificationMetadata{PathID: path.ID},
	})
}
