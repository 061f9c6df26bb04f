package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CaseDifficulty represents the difficulty rating of a case
type CaseDifficulty string

const (
	DifficultyBeginner     CaseDifficulty = "beginner"
	DifficultyIntermediate CaseDifficulty = "intermediate"
	DifficultyAdvanced     CaseDifficulty = "advanced"
)

// IsValidCaseDifficulty reports whether the given string is a known
// difficulty rating
func IsValidCaseDifficulty(difficulty string) bool {
	switch CaseDifficulty(difficulty) {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Case represents a published simulation case in the catalog
type Case struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	SpecialtyID uint           `gorm:"not null;index" json:"specialty_id"`
	Title       string         `gorm:"not null;type:varchar(255)" json:"title"`
	Summary     string         `gorm:"type:text" json:"summary"`
	Difficulty  CaseDifficulty `gorm:"type:case_difficulty;default:'intermediate'" json:"difficulty"`
	// Template holds the case content blocks: patient persona, presenting
	// complaint, history, expected findings and evaluation criteria
	Template         datatypes.JSON `gorm:"type:jsonb" json:"template"`
	EstimatedMinutes int            `gorm:"default:20" json:"estimated_minutes"`
	Published        bool           `gorm:"default:true;index" json:"published"`
	AuthorID         *uint          `gorm:"index" json:"author_id,omitempty"` // Set when promoted from a contribution
	AttemptCount     int64          `gorm:"default:0" json:"attempt_count"`

	// Relationships
	Specialty Specialty           `gorm:"foreignKey:SpecialtyID;constraint:OnDelete:CASCADE" json:"specialty,omitempty"`
	Author    *User               `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"-"`
	Sessions  []SimulationSession `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"-"`
	Media     []CaseMedia         `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"media,omitempty"`
}

// TableName specifies the table name for Case
func (Case) TableName() string {
	return "cases"
}

// MediaKind represents the type of a case attachment
type MediaKind string

const (
	MediaKindImage     MediaKind = "image"
	MediaKindAudio     MediaKind = "audio"
	MediaKindReference MediaKind = "reference" // Reference PDF (guidelines, lab reports)
)

// CaseMedia represents a file attached to a case or a contributed case,
// stored in S3-compatible object storage
type CaseMedia struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
	CaseID            *uint          `gorm:"index" json:"case_id,omitempty"`
	ContributedCaseID *uint          `gorm:"index" json:"contributed_case_id,omitempty"`
	Kind              MediaKind      `gorm:"type:varchar(20);not null" json:"kind"`
	Filename          string         `gorm:"not null" json:"filename"`
	StorageURL        string         `gorm:"not null;type:text" json:"storage_url"`
	StorageKey        string         `gorm:"not null;type:varchar(500)" json:"storage_key"`
	ContentType       string         `gorm:"type:varchar(100)" json:"content_type"`
	FileSize          int64          `gorm:"default:0" json:"file_size"`
	PageCount         int            `gorm:"default:0" json:"page_count"` // PDFs only
	UploadedByUserID  uint           `gorm:"index" json:"uploaded_by_user_id"`

	// Relationships
	Case            *Case            `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"-"`
	ContributedCase *ContributedCase `gorm:"foreignKey:ContributedCaseID;constraint:OnDelete:CASCADE" json:"-"`
	UploadedBy      User             `gorm:"foreignKey:UploadedByUserID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName specifies the table name for CaseMedia
func (CaseMedia) TableName() string {
	return "case_media"
}
