package model

import (
	"time"

	"gorm.io/gorm"
)

// ClinicianProgress is a per-user per-specialty rollup of simulation activity,
// updated whenever a session completes and reconciled nightly.
type ClinicianProgress struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	UserID         uint           `gorm:"not null;uniqueIndex:idx_progress_user_specialty" json:"user_id"`
	SpecialtyID    uint           `gorm:"not null;uniqueIndex:idx_progress_user_specialty" json:"specialty_id"`
	CasesAttempted int64          `gorm:"default:0" json:"cases_attempted"`
	CasesCompleted int64          `gorm:"default:0" json:"cases_completed"`
	AverageScore   float64        `gorm:"default:0" json:"average_score"`
	BestScore      float64        `gorm:"default:0" json:"best_score"`
	RetakeCount    int64          `gorm:"default:0" json:"retake_count"`
	LastActivityAt *time.Time     `json:"last_activity_at,omitempty"`

	// Relationships
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Specialty Specialty `gorm:"foreignKey:SpecialtyID;constraint:OnDelete:CASCADE" json:"specialty,omitempty"`
}

// TableName specifies the table name for ClinicianProgress
func (ClinicianProgress) TableName() string {
	return "clinician_progress"
}
