package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`            // Never expose password in JSON
	PasswordSalt []byte         `gorm:"not null;type:bytea" json:"-"` // Salt for key derivation
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'clinician'" json:"role"` // clinician, educator, admin
	Discipline   string         `gorm:"type:varchar(50)" json:"discipline"`               // medicine, nursing, pharmacy, ...
	Institution  string         `gorm:"type:varchar(255)" json:"institution"`
	YearOfStudy  int            `gorm:"default:0" json:"year_of_study"`
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	Sessions       []SimulationSession `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Metrics        []PerformanceMetric `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Progress       []ClinicianProgress `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	LearningGoals  []LearningGoal      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Contributions  []ContributedCase   `gorm:"foreignKey:ContributorID;constraint:OnDelete:CASCADE" json:"-"`
	Notifications  []UserNotification  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AdminAuditLog  []AdminAuditLog     `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// User roles
const (
	RoleClinician = "clinician"
	RoleEducator  = "educator"
	RoleAdmin     = "admin"
)

// CanAuthorCases reports whether the user may create contributed cases
func (u *User) CanAuthorCases() bool {
	return u.Role == RoleEducator || u.Role == RoleAdmin
}
