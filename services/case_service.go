package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinisim/simulator-api/model"
	"gorm.io/gorm"
)

// CaseService handles the published case catalog and admin case management
type CaseService struct {
	db          *gorm.DB
	specialties *SpecialtyService
}

// NewCaseService creates a new case service
func NewCaseService(db *gorm.DB, specialties *SpecialtyService) *CaseService {
	return &CaseService{db: db, specialties: specialties}
}

// CaseListOptions filters the catalog listing
type CaseListOptions struct {
	SpecialtyID uint
	Difficulty  model.CaseDifficulty
	Search      string
	Page        int
	Limit       int
	// IncludeUnpublished is set for admin listings only
	IncludeUnpublished bool
}

// ListCases returns a page of cases matching the options, plus the total
// count before pagination. For learner-facing listings, cases in hidden
// specialties are excluded.
func (s *CaseService) ListCases(ctx context.Context, opts CaseListOptions) ([]model.Case, int64, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 || opts.Limit > 100 {
		opts.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&model.Case{})

	if !opts.IncludeUnpublished {
		query = query.Where("published = ?", true)

		visibility, err := s.specialties.VisibilityMap(ctx)
		if err != nil {
			return nil, 0, err
		}
		visibleIDs := make([]uint, 0, len(visibility))
		for id, visible := range visibility {
			if visible {
				visibleIDs = append(visibleIDs, id)
			}
		}
		if len(visibleIDs) == 0 {
			return []model.Case{}, 0, nil
		}
		query = query.Where("specialty_id IN ?", visibleIDs)
	}

	if opts.SpecialtyID != 0 {
		query = query.Where("specialty_id = ?", opts.SpecialtyID)
	}
	if opts.Difficulty != "" {
		if !model.IsValidCaseDifficulty(string(opts.Difficulty)) {
			return nil, 0, fmt.Errorf("invalid difficulty: %s", opts.Difficulty)
		}
		query = query.Where("difficulty = ?", opts.Difficulty)
	}
	if search := strings.TrimSpace(opts.Search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title ILIKE ? OR summary ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count cases: %w", err)
	}

	var cases []model.Case
	err := query.Preload("Specialty").
		Order("created_at DESC").
		Offset((opts.Page - 1) * opts.Limit).
		Limit(opts.Limit).
		Find(&cases).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cases: %w", err)
	}

	return cases, total, nil
}

// GetCase loads a case by ID with its specialty and media. Learner-facing
// callers pass requirePublished to hide drafts and hidden specialties.
func (s *CaseService) GetCase(ctx context.Context, id uint, requirePublished bool) (*model.Case, error) {
	var c model.Case
	err := s.db.WithContext(ctx).
		Preload("Specialty").
		Preload("Media").
		First(&c, id).Error
	if err != nil {
		return nil, err
	}

	if requirePublished {
		if !c.Published {
			return nil, gorm.ErrRecordNotFound
		}
		visibility, err := s.specialties.VisibilityMap(ctx)
		if err != nil {
			return nil, err
		}
		if !visibility[c.SpecialtyID] {
			return nil, gorm.ErrRecordNotFound
		}
	}

	return &c, nil
}

// CreateCase creates a case directly, bypassing the contribution workflow.
// Admin only.
func (s *CaseService) CreateCase(ctx context.Context, c *model.Case) error {
	if !model.IsValidCaseDifficulty(string(c.Difficulty)) {
		return fmt.Errorf("invalid difficulty: %s", c.Difficulty)
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

// UpdateCase applies updates to a case. Admin only.
func (s *CaseService) UpdateCase(ctx context.Context, id uint, updates map[string]interface{}) (*model.Case, error) {
	if d, ok := updates["difficulty"].(string); ok && !model.IsValidCaseDifficulty(d) {
		return nil, fmt.Errorf("invalid difficulty: %s", d)
	}

	var c model.Case
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&c).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update case: %w", err)
	}
	return &c, nil
}

// SetPublished toggles a case's published flag. Admin only.
func (s *CaseService) SetPublished(ctx context.Context, id uint, published bool) (*model.Case, error) {
	var c model.Case
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&c).Update("published", published).Error; err != nil {
		return nil, fmt.Errorf("failed to update case: %w", err)
	}
	return &c, nil
}

// DeleteCase soft-deletes a case. Admin only. Sessions and metrics keep
// their case_id so historical performance stays queryable.
func (s *CaseService) DeleteCase(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&model.Case{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
