package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/clinisim/simulator-api/model"
	"github.com/clinisim/simulator-api/utils/cache"
	"gorm.io/gorm"
)

// visibilityCacheKey is the Redis key holding the specialty visibility map
const visibilityCacheKey = "specialties:visibility"

// VisibilityCacheTTL bounds how stale the visibility map may get when an
// invalidation is missed
const VisibilityCacheTTL = 5 * time.Minute

// SpecialtyService manages the specialty catalog. Visibility settings are
// read through a Redis cache with a fixed TTL and invalidated on admin
// writes; when Redis is unavailable every read falls through to Postgres.
type SpecialtyService struct {
	db    *gorm.DB
	cache *cache.RedisCache // may be nil
}

// NewSpecialtyService creates a new specialty service
func NewSpecialtyService(db *gorm.DB, redisCache *cache.RedisCache) *SpecialtyService {
	return &SpecialtyService{db: db, cache: redisCache}
}

// ListSpecialties returns specialties ordered by sort order. Unless
// includeHidden is set, specialties with visibility disabled are filtered
// out using the cached visibility map.
func (s *SpecialtyService) ListSpecialties(ctx context.Context, includeHidden bool) ([]model.Specialty, error) {
	var specialties []model.Specialty
	err := s.db.WithContext(ctx).
		Order("sort_order ASC, name ASC").
		Find(&specialties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}

	if includeHidden {
		return specialties, nil
	}

	visibility, err := s.VisibilityMap(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]model.Specialty, 0, len(specialties))
	for _, sp := range specialties {
		if visibility[sp.ID] {
			visible = append(visible, sp)
		}
	}
	return visible, nil
}

// GetSpecialty loads a specialty by ID
func (s *SpecialtyService) GetSpecialty(ctx context.Context, id uint) (*model.Specialty, error) {
	var specialty model.Specialty
	if err := s.db.WithContext(ctx).First(&specialty, id).Error; err != nil {
		return nil, err
	}
	return &specialty, nil
}

// VisibilityMap returns specialty ID -> visible, read through the cache
func (s *SpecialtyService) VisibilityMap(ctx context.Context) (map[uint]bool, error) {
	if s.cache != nil {
		var cached map[uint]bool
		if err := s.cache.GetJSON(ctx, visibilityCacheKey, &cached); err == nil {
			return cached, nil
		} else if err != cache.ErrNotFound {
			log.Printf("visibility cache read failed, falling back to database: %v", err)
		}
	}

	var specialties []model.Specialty
	if err := s.db.WithContext(ctx).Select("id", "visible").Find(&specialties).Error; err != nil {
		return nil, fmt.Errorf("failed to load specialty visibility: %w", err)
	}

	visibility := make(map[uint]bool, len(specialties))
	for _, sp := range specialties {
		visibility[sp.ID] = sp.Visible
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, visibilityCacheKey, visibility, VisibilityCacheTTL); err != nil {
			log.Printf("visibility cache write failed: %v", err)
		}
	}

	return visibility, nil
}

// CreateSpecialty creates a specialty and invalidates the visibility cache
func (s *SpecialtyService) CreateSpecialty(ctx context.Context, specialty *model.Specialty) error {
	if err := s.db.WithContext(ctx).Create(specialty).Error; err != nil {
		return fmt.Errorf("failed to create specialty: %w", err)
	}
	s.invalidateVisibility(ctx)
	return nil
}

// UpdateSpecialty applies updates to a specialty and invalidates the
// visibility cache
func (s *SpecialtyService) UpdateSpecialty(ctx context.Context, id uint, updates map[string]interface{}) (*model.Specialty, error) {
	var specialty model.Specialty
	if err := s.db.WithContext(ctx).First(&specialty, id).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&specialty).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update specialty: %w", err)
	}

	s.invalidateVisibility(ctx)
	return &specialty, nil
}

// DeleteSpecialty removes a specialty and invalidates the visibility cache
func (s *SpecialtyService) DeleteSpecialty(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&model.Specialty{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	s.invalidateVisibility(ctx)
	return nil
}

func (s *SpecialtyService) invalidateVisibility(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, visibilityCacheKey); err != nil {
		log.Printf("visibility cache invalidation failed: %v", err)
	}
}
