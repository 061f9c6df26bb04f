package services

import (
	"context"
	"fmt"

	"github.com/clinisim/simulator-api/model"
	"gorm.io/gorm"
)

// PerformanceService provides read views over recorded performance metrics
// and the per-specialty progress rollups
type PerformanceService struct {
	db *gorm.DB
}

// NewPerformanceService creates a new performance service
func NewPerformanceService(db *gorm.DB) *PerformanceService {
	return &PerformanceService{db: db}
}

// SpecialtyBreakdown is one row in a user's per-specialty summary
type SpecialtyBreakdown struct {
	SpecialtyID    uint    `json:"specialty_id"`
	SpecialtyName  string  `json:"specialty_name"`
	CasesAttempted int64   `json:"cases_attempted"`
	CasesCompleted int64   `json:"cases_completed"`
	AverageScore   float64 `json:"average_score"`
	BestScore      float64 `json:"best_score"`
	RetakeCount    int64   `json:"retake_count"`
}

// PerformanceSummary is a user's overall performance view
type PerformanceSummary struct {
	TotalSessions    int64                `json:"total_sessions"`
	TotalCompleted   int64                `json:"total_completed"`
	AverageScore     float64              `json:"average_score"`
	BestScore        float64              `json:"best_score"`
	TotalRetakes     int64                `json:"total_retakes"`
	StrongestArea    *SpecialtyBreakdown  `json:"strongest_area,omitempty"`
	WeakestArea      *SpecialtyBreakdown  `json:"weakest_area,omitempty"`
	Specialties      []SpecialtyBreakdown `json:"specialties"`
	RecentMetrics    []model.PerformanceMetric `json:"recent_metrics"`
}

// Summary builds a user's performance summary from the progress rollups and
// their most recent metrics. Strongest and weakest areas are only named once
// a specialty has at least one completed case.
func (s *PerformanceService) Summary(ctx context.Context, userID uint) (*PerformanceSummary, error) {
	var rows []SpecialtyBreakdown
	err := s.db.WithContext(ctx).
		Model(&model.ClinicianProgress{}).
		Select("clinician_progress.specialty_id, specialties.name AS specialty_name, clinician_progress.cases_attempted, clinician_progress.cases_completed, clinician_progress.average_score, clinician_progress.best_score, clinician_progress.retake_count").
		Joins("JOIN specialties ON specialties.id = clinician_progress.specialty_id").
		Where("clinician_progress.user_id = ?", userID).
		Order("specialties.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load progress rollups: %w", err)
	}

	summary := &PerformanceSummary{Specialties: rows}

	var completedTotal int64
	var weightedScore float64
	for i := range rows {
		row := &rows[i]
		summary.TotalSessions += row.CasesAttempted
		summary.TotalCompleted += row.CasesCompleted
		summary.TotalRetakes += row.RetakeCount
		if row.BestScore > summary.BestScore {
			summary.BestScore = row.BestScore
		}
		if row.CasesCompleted > 0 {
			completedTotal += row.CasesCompleted
			weightedScore += row.AverageScore * float64(row.CasesCompleted)
			if summary.StrongestArea == nil || row.AverageScore > summary.StrongestArea.AverageScore {
				summary.StrongestArea = row
			}
			if summary.WeakestArea == nil || row.AverageScore < summary.WeakestArea.AverageScore {
				summary.WeakestArea = row
			}
		}
	}
	if completedTotal > 0 {
		summary.AverageScore = weightedScore / float64(completedTotal)
	}

	err = s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(10).
		Find(&summary.RecentMetrics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent metrics: %w", err)
	}

	return summary, nil
}

// ListMetrics returns a page of a user's metrics, newest first, optionally
// scoped to one case
func (s *PerformanceService) ListMetrics(ctx context.Context, userID uint, caseID uint, page, limit int) ([]model.PerformanceMetric, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).
		Model(&model.PerformanceMetric{}).
		Where("user_id = ?", userID)
	if caseID != 0 {
		query = query.Where("case_id = ?", caseID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count metrics: %w", err)
	}

	var metrics []model.PerformanceMetric
	err := query.
		Order("completed_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&metrics).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list metrics: %w", err)
	}
	return metrics, total, nil
}

// ReconcileProgress rebuilds every progress rollup row for a user from the
// raw session and metric tables. The nightly job runs this for recently
// active users to correct drift from crashed completions.
func (s *PerformanceService) ReconcileProgress(ctx context.Context, userID uint) error {
	type rollup struct {
		SpecialtyID    uint
		CasesAttempted int64
		CasesCompleted int64
		AverageScore   float64
		BestScore      float64
		RetakeCount    int64
	}

	var rollups []rollup
	err := s.db.WithContext(ctx).
		Model(&model.SimulationSession{}).
		Select(`cases.specialty_id,
			COUNT(*) AS cases_attempted,
			COUNT(*) FILTER (WHERE simulation_sessions.status = ?) AS cases_completed,
			COALESCE(AVG(performance_metrics.score), 0) AS average_score,
			COALESCE(MAX(performance_metrics.score), 0) AS best_score,
			COUNT(*) FILTER (WHERE simulation_sessions.attempt_number > 1) AS retake_count`,
			model.SessionCompleted).
		Joins("JOIN cases ON cases.id = simulation_sessions.case_id").
		Joins("LEFT JOIN performance_metrics ON performance_metrics.session_id = simulation_sessions.id").
		Where("simulation_sessions.user_id = ?", userID).
		Group("cases.specialty_id").
		Scan(&rollups).Error
	if err != nil {
		return fmt.Errorf("failed to compute rollups: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range rollups {
			values := map[string]interface{}{
				"cases_attempted": r.CasesAttempted,
				"cases_completed": r.CasesCompleted,
				"average_score":   r.AverageScore,
				"best_score":      r.BestScore,
				"retake_count":    r.RetakeCount,
			}
			result := tx.Model(&model.ClinicianProgress{}).
				Where("user_id = ? AND specialty_id = ?", userID, r.SpecialtyID).
				Updates(values)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				row := model.ClinicianProgress{
					UserID:         userID,
					SpecialtyID:    r.SpecialtyID,
					CasesAttempted: r.CasesAttempted,
					CasesCompleted: r.CasesCompleted,
					AverageScore:   r.AverageScore,
					BestScore:      r.BestScore,
					RetakeCount:    r.RetakeCount,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// RecentlyActiveUserIDs returns distinct users with sessions in the window.
// Used by the nightly reconciliation job.
func (s *PerformanceService) RecentlyActiveUserIDs(ctx context.Context, since int) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&model.SimulationSession{}).
		Distinct("user_id").
		Where("started_at >= NOW() - (? * INTERVAL '1 hour')", since).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	return ids, nil
}
