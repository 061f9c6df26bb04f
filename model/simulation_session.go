package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SessionStatus represents the lifecycle state of a simulation session
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

// SimulationSession represents one attempt at a case by a user. Retakes are
// ordinary sessions carrying a reason, focus areas and a link to the prior
// session for the same case.
type SimulationSession struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	// SessionID is the external identifier handed to clients
	SessionID     string        `gorm:"uniqueIndex;not null;type:varchar(36)" json:"session_id"`
	UserID        uint          `gorm:"not null;index:idx_sessions_user_case" json:"user_id"`
	CaseID        uint          `gorm:"not null;index:idx_sessions_user_case" json:"case_id"`
	AttemptNumber int           `gorm:"not null;default:1" json:"attempt_number"`
	Status        SessionStatus `gorm:"type:session_status;default:'in_progress';index" json:"status"`
	StartedAt     time.Time     `gorm:"not null" json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`

	// Retake fields; zero for a first attempt
	PreviousSessionID     *string        `gorm:"type:varchar(36);index" json:"previous_session_id,omitempty"`
	RetakeReason          string         `gorm:"type:varchar(50)" json:"retake_reason,omitempty"` // performance, skill_improvement, exam_preparation, interest
	ImprovementFocusAreas datatypes.JSON `gorm:"type:jsonb" json:"improvement_focus_areas,omitempty"`

	// Relationships
	User   User               `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Case   Case               `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"case,omitempty"`
	Metric *PerformanceMetric `gorm:"foreignKey:SessionID;references:ID;constraint:OnDelete:CASCADE" json:"metric,omitempty"`
}

// TableName specifies the table name for SimulationSession
func (SimulationSession) TableName() string {
	return "simulation_sessions"
}

// Retake reasons accepted by the retake start endpoint
const (
	RetakeReasonPerformance      = "performance"
	RetakeReasonSkillImprovement = "skill_improvement"
	RetakeReasonExamPreparation  = "exam_preparation"
	RetakeReasonInterest         = "interest"
)

// IsValidRetakeReason reports whether the given reason is one of the accepted values
func IsValidRetakeReason(reason string) bool {
	switch reason {
	case RetakeReasonPerformance, RetakeReasonSkillImprovement,
		RetakeReasonExamPreparation, RetakeReasonInterest:
		return true
	}
	return false
}
