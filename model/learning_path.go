package model

import (
	"time"

	"gorm.io/gorm"
)

// LearningPath is an ordered sequence of cases curated by an educator or admin
type LearningPath struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	SpecialtyID uint           `gorm:"not null;index" json:"specialty_id"`
	Title       string         `gorm:"not null;type:varchar(255)" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Difficulty  CaseDifficulty `gorm:"type:case_difficulty;default:'intermediate'" json:"difficulty"`
	Published   bool           `gorm:"default:false;index" json:"published"`
	CreatedByID uint           `gorm:"index" json:"created_by_id"`

	// Relationships
	Specialty Specialty            `gorm:"foreignKey:SpecialtyID;constraint:OnDelete:CASCADE" json:"specialty,omitempty"`
	CreatedBy User                 `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"-"`
	Steps     []LearningPathStep   `gorm:"foreignKey:PathID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
	Learners  []LearningPathLearner `gorm:"foreignKey:PathID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for LearningPath
func (LearningPath) TableName() string {
	return "learning_paths"
}

// LearningPathStep is one case inside a path, at a fixed position
type LearningPathStep struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PathID   uint   `gorm:"not null;uniqueIndex:idx_path_step_position" json:"path_id"`
	Position int    `gorm:"not null;uniqueIndex:idx_path_step_position" json:"position"`
	CaseID   uint   `gorm:"not null;index" json:"case_id"`
	Notes    string `gorm:"type:text" json:"notes"`

	// Relationships
	Path LearningPath `gorm:"foreignKey:PathID;constraint:OnDelete:CASCADE" json:"-"`
	Case Case         `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"case,omitempty"`
}

// TableName specifies the table name for LearningPathStep
func (LearningPathStep) TableName() string {
	return "learning_path_steps"
}

// LearningPathLearner tracks a user's enrollment in a path
type LearningPathLearner struct {
	PathID      uint       `gorm:"primaryKey" json:"path_id"`
	UserID      uint       `gorm:"primaryKey" json:"user_id"`
	EnrolledAt  time.Time  `gorm:"autoCreateTime" json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Relationships
	Path LearningPath `gorm:"foreignKey:PathID;constraint:OnDelete:CASCADE" json:"-"`
	User User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for LearningPathLearner
func (LearningPathLearner) TableName() string {
	return "learning_path_learners"
}
