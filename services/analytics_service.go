package services

import (
	"context"
	"fmt"
	"time"

	"github.com/clinisim/simulator-api/model"
	"gorm.io/gorm"
)

// AnalyticsService handles analytics and reporting
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{
		db: db,
	}
}

// DashboardStats represents overall platform statistics
type DashboardStats struct {
	TotalUsers           int64   `json:"total_users"`
	ActiveUsers          int64   `json:"active_users_7d"`
	TotalSpecialties     int64   `json:"total_specialties"`
	TotalCases           int64   `json:"total_cases"`
	PublishedCases       int64   `json:"published_cases"`
	TotalSessions        int64   `json:"total_sessions"`
	CompletedSessions    int64   `json:"completed_sessions"`
	RetakeSessions       int64   `json:"retake_sessions"`
	AverageScore         float64 `json:"average_score"`
	ContributionsPending int64   `json:"contributions_pending"`
	ContributionsTotal   int64   `json:"contributions_total"`
	NewUsersToday        int64   `json:"new_users_today"`
	SessionsToday        int64   `json:"sessions_today"`
}

// GetDashboardStats retrieves overall platform statistics
func (s *AnalyticsService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	// Total users
	if err := s.db.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	// Active users (last 7 days)
	sevenDaysAgo := time.Now().AddDate(0, 0, -7)
	if err := s.db.Model(&model.UserActivity{}).
		Where("created_at >= ?", sevenDaysAgo).
		Distinct("user_id").
		Count(&stats.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	// Total specialties
	if err := s.db.Model(&model.Specialty{}).Count(&stats.TotalSpecialties).Error; err != nil {
		return nil, fmt.Errorf("failed to count specialties: %w", err)
	}

	// Cases
	if err := s.db.Model(&model.Case{}).Count(&stats.TotalCases).Error; err != nil {
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}
	if err := s.db.Model(&model.Case{}).
		Where("published = ?", true).
		Count(&stats.PublishedCases).Error; err != nil {
		return nil, fmt.Errorf("failed to count published cases: %w", err)
	}

	// Sessions
	if err := s.db.Model(&model.SimulationSession{}).Count(&stats.TotalSessions).Error; err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	if err := s.db.Model(&model.SimulationSession{}).
		Where("status = ?", model.SessionCompleted).
		Count(&stats.CompletedSessions).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed sessions: %w", err)
	}
	if err := s.db.Model(&model.SimulationSession{}).
		Where("attempt_number > 1").
		Count(&stats.RetakeSessions).Error; err != nil {
		return nil, fmt.Errorf("failed to count retake sessions: %w", err)
	}

	// Average score across all recorded metrics
	var avgResult struct {
		Average float64
	}
	if err := s.db.Model(&model.PerformanceMetric{}).
		Select("COALESCE(AVG(score), 0) as average").
		Scan(&avgResult).Error; err != nil {
		return nil, fmt.Errorf("failed to calculate average score: %w", err)
	}
	stats.AverageScore = avgResult.Average

	// Contributions
	if err := s.db.Model(&model.ContributedCase{}).Count(&stats.ContributionsTotal).Error; err != nil {
		return nil, fmt.Errorf("failed to count contributions: %w", err)
	}
	if err := s.db.Model(&model.ContributedCase{}).
		Where("status IN ?", []model.ContributionStatus{model.ContributionSubmitted, model.ContributionUnderReview}).
		Count(&stats.ContributionsPending).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending contributions: %w", err)
	}

	// Today
	today := time.Now().Truncate(24 * time.Hour)
	if err := s.db.Model(&model.User{}).
		Where("created_at >= ?", today).
		Count(&stats.NewUsersToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count new users: %w", err)
	}
	if err := s.db.Model(&model.SimulationSession{}).
		Where("started_at >= ?", today).
		Count(&stats.SessionsToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count sessions today: %w", err)
	}

	return stats, nil
}

// SpecialtyStats represents statistics for a specific specialty
type SpecialtyStats struct {
	SpecialtyID       uint    `json:"specialty_id"`
	SpecialtyName     string  `json:"specialty_name"`
	TotalCases        int64   `json:"total_cases"`
	TotalSessions     int64   `json:"total_sessions"`
	CompletedSessions int64   `json:"completed_sessions"`
	UniqueUsers       int64   `json:"unique_users"`
	AverageScore      float64 `json:"average_score"`
}

// GetSpecialtyStats retrieves statistics for a specific specialty
func (s *AnalyticsService) GetSpecialtyStats(ctx context.Context, specialtyID uint) (*SpecialtyStats, error) {
	var specialty model.Specialty
	if err := s.db.First(&specialty, specialtyID).Error; err != nil {
		return nil, err
	}

	stats := &SpecialtyStats{SpecialtyID: specialtyID, SpecialtyName: specialty.Name}

	if err := s.db.Model(&model.Case{}).
		Where("specialty_id = ?", specialtyID).
		Count(&stats.TotalCases).Error; err != nil {
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}

	sessionQuery := s.db.Model(&model.SimulationSession{}).
		Joins("JOIN cases ON cases.id = simulation_sessions.case_id").
		Where("cases.specialty_id = ?", specialtyID)
	if err := sessionQuery.Count(&stats.TotalSessions).Error; err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	if err := s.db.Model(&model.SimulationSession{}).
		Joins("JOIN cases ON cases.id = simulation_sessions.case_id").
		Where("cases.specialty_id = ? AND simulation_sessions.status = ?", specialtyID, model.SessionCompleted).
		Count(&stats.CompletedSessions).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed sessions: %w", err)
	}
	if err := s.db.Model(&model.SimulationSession{}).
		Joins("JOIN cases ON cases.id = simulation_sessions.case_id").
		Where("cases.specialty_id = ?", specialtyID).
		Distinct("simulation_sessions.user_id").
		Count(&stats.UniqueUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count unique users: %w", err)
	}

	var avgResult struct {
		Average float64
	}
	if err := s.db.Model(&model.PerformanceMetric{}).
		Joins("JOIN cases ON cases.id = performance_metrics.case_id").
		Where("cases.specialty_id = ?", specialtyID).
		Select("COALESCE(AVG(performance_metrics.score), 0) as average").
		Scan(&avgResult).Error; err != nil {
		return nil, fmt.Errorf("failed to calculate average score: %w", err)
	}
	stats.AverageScore = avgResult.Average

	return stats, nil
}

// TimeSeriesPoint represents one day in a time series
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// GetActivityTimeSeries retrieves activity over time
func (s *AnalyticsService) GetActivityTimeSeries(ctx context.Context, days int, activityType model.ActivityType) ([]TimeSeriesPoint, error) {
	startDate := time.Now().AddDate(0, 0, -days).Truncate(24 * time.Hour)

	var results []TimeSeriesPoint
	query := s.db.Model(&model.UserActivity{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", startDate).
		Group("DATE(created_at)").
		Order("date ASC")

	if activityType != "" {
		query = query.Where("activity_type = ?", activityType)
	}

	if err := query.Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch time series: %w", err)
	}

	return results, nil
}

// GetSessionTimeSeries retrieves completed sessions per day
func (s *AnalyticsService) GetSessionTimeSeries(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	startDate := time.Now().AddDate(0, 0, -days).Truncate(24 * time.Hour)

	var results []TimeSeriesPoint
	if err := s.db.Model(&model.PerformanceMetric{}).
		Select("DATE(completed_at) as date, COUNT(*) as count").
		Where("completed_at >= ?", startDate).
		Group("DATE(completed_at)").
		Order("date ASC").
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch session time series: %w", err)
	}

	return results, nil
}

// TopCase represents a most attempted case
type TopCase struct {
	CaseID        uint    `json:"case_id"`
	Title         string  `json:"title"`
	SpecialtyName string  `json:"specialty_name"`
	SessionCount  int64   `json:"session_count"`
	UserCount     int64   `json:"user_count"`
	AverageScore  float64 `json:"average_score"`
}

// GetTopCases retrieves the most attempted cases
func (s *AnalyticsService) GetTopCases(ctx context.Context, limit int) ([]TopCase, error) {
	var results []TopCase

	if err := s.db.Model(&model.Case{}).
		Select(`
			cases.id as case_id,
			cases.title as title,
			specialties.name as specialty_name,
			COUNT(DISTINCT simulation_sessions.id) as session_count,
			COUNT(DISTINCT simulation_sessions.user_id) as user_count,
			COALESCE(AVG(performance_metrics.score), 0) as average_score
		`).
		Joins("LEFT JOIN simulation_sessions ON cases.id = simulation_sessions.case_id").
		Joins("LEFT JOIN performance_metrics ON cases.id = performance_metrics.case_id").
		Joins("LEFT JOIN specialties ON cases.specialty_id = specialties.id").
		Group("cases.id, cases.title, specialties.name").
		Order("session_count DESC").
		Limit(limit).
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch top cases: %w", err)
	}

	return results, nil
}

// LogActivity logs a user activity
func (s *AnalyticsService) LogActivity(ctx context.Context, userID uint, activityType model.ActivityType, resourceType string, resourceID uint, ipAddress string, userAgent string) error {
	activity := model.UserActivity{
		UserID:       userID,
		ActivityType: activityType,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
	}

	if err := s.db.Create(&activity).Error; err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	return nil
}
