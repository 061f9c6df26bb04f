package model

import (
	"time"

	"gorm.io/gorm"
)

// GoalStatus represents the lifecycle state of a learning goal
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalAchieved  GoalStatus = "achieved"
	GoalAbandoned GoalStatus = "abandoned"
)

// LearningGoal represents a self-set competency target for a user, evaluated
// against the user's performance metrics in the goal's specialty.
type LearningGoal struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	SpecialtyID *uint          `gorm:"index" json:"specialty_id,omitempty"` // nil means across all specialties
	Title       string         `gorm:"not null;type:varchar(255)" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	TargetScore float64        `gorm:"not null" json:"target_score"`
	MinSessions int            `gorm:"default:1" json:"min_sessions"` // Sessions required before the goal can be achieved
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Status      GoalStatus     `gorm:"type:goal_status;default:'active';index" json:"status"`
	AchievedAt  *time.Time     `json:"achieved_at,omitempty"`

	// Relationships
	User      User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Specialty *Specialty `gorm:"foreignKey:SpecialtyID;constraint:OnDelete:SET NULL" json:"specialty,omitempty"`
}

// TableName specifies the table name for LearningGoal
func (LearningGoal) TableName() string {
	return "learning_goals"
}
