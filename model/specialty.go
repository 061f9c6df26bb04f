package model

import (
	"time"

	"gorm.io/gorm"
)

// Specialty represents a medical specialty that cases are grouped under
type Specialty struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;type:varchar(100)" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Visible     bool           `gorm:"default:true" json:"visible"` // Admin-controlled catalog visibility
	SortOrder   int            `gorm:"default:0" json:"sort_order"`

	// Relationships
	Cases []Case `gorm:"foreignKey:SpecialtyID" json:"cases,omitempty"`
}

// TableName specifies the table name for Specialty
func (Specialty) TableName() string {
	return "specialties"
}
