package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContributionStatus represents the authoring workflow state of a contributed case
type ContributionStatus string

const (
	ContributionDraft       ContributionStatus = "draft"
	ContributionSubmitted   ContributionStatus = "submitted"
	ContributionUnderReview ContributionStatus = "under_review"
	ContributionApproved    ContributionStatus = "approved"
	ContributionPublished   ContributionStatus = "published"
	ContributionRejected    ContributionStatus = "rejected"
)

// ContributedCase represents a case draft moving through the authoring workflow
type ContributedCase struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	DeletedAt     gorm.DeletedAt     `gorm:"index" json:"-"`
	ContributorID uint               `gorm:"not null;index" json:"contributor_id"`
	SpecialtyID   uint               `gorm:"not null;index" json:"specialty_id"`
	Title         string             `gorm:"not null;type:varchar(255)" json:"title"`
	Summary       string             `gorm:"type:text" json:"summary"`
	Difficulty    CaseDifficulty     `gorm:"type:case_difficulty;default:'intermediate'" json:"difficulty"`
	Template      datatypes.JSON     `gorm:"type:jsonb" json:"template"`
	Status        ContributionStatus `gorm:"type:contribution_status;default:'draft';index" json:"status"`
	SubmittedAt   *time.Time         `json:"submitted_at,omitempty"`
	ReviewedAt    *time.Time         `json:"reviewed_at,omitempty"`
	ReviewerID    *uint              `gorm:"index" json:"reviewer_id,omitempty"`
	ReviewNotes   string             `gorm:"type:text" json:"review_notes"`
	PublishedCase *uint              `gorm:"column:published_case_id" json:"published_case_id,omitempty"`

	// Relationships
	Contributor User        `gorm:"foreignKey:ContributorID;constraint:OnDelete:CASCADE" json:"contributor,omitempty"`
	Specialty   Specialty   `gorm:"foreignKey:SpecialtyID;constraint:OnDelete:CASCADE" json:"specialty,omitempty"`
	Reviewer    *User       `gorm:"foreignKey:ReviewerID;constraint:OnDelete:SET NULL" json:"-"`
	Media       []CaseMedia `gorm:"foreignKey:ContributedCaseID;constraint:OnDelete:CASCADE" json:"media,omitempty"`
}

// TableName specifies the table name for ContributedCase
func (ContributedCase) TableName() string {
	return "contributed_cases"
}
