package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PerformanceMetric holds the scored outcome of a completed simulation session.
// Score is a percentage in [0,100]; CriteriaScores is a map of evaluation
// criterion name to sub-score, stored as JSONB.
type PerformanceMetric struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	SessionID      uint           `gorm:"uniqueIndex;not null" json:"session_id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	CaseID         uint           `gorm:"not null;index" json:"case_id"`
	Score          float64        `gorm:"not null" json:"score"`
	CriteriaScores datatypes.JSON `gorm:"type:jsonb" json:"criteria_scores,omitempty"`
	TimeTakenSecs  int            `gorm:"default:0" json:"time_taken_secs"`
	Rating         string         `gorm:"type:varchar(20)" json:"rating"` // excellent, good, needs_improvement
	CompletedAt    time.Time      `gorm:"not null;index" json:"completed_at"`

	// Relationships
	Session SimulationSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	User    User              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Case    Case              `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for PerformanceMetric
func (PerformanceMetric) TableName() string {
	return "performance_metrics"
}

// Rating thresholds applied when a session completes
const (
	RatingExcellent        = "excellent"
	RatingGood             = "good"
	RatingNeedsImprovement = "needs_improvement"
)

// RatingForScore maps a percentage score onto a rating band
func RatingForScore(score float64) string {
	switch {
	case score >= 85:
		return RatingExcellent
	case score >= 60:
		return RatingGood
	default:
		return RatingNeedsImprovement
	}
}
