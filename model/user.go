package model

import (
	"time"

	"gorm.io/gorm"
)

// Role constants
const (
	RoleStudent = "student"
	RoleAdvisor = "advisor"
	RoleAdmin   = "admin"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`                              // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, advisor, admin
	TokenVersion int            `gorm:"default:0" json:"-"`                             // Increment to invalidate all user tokens

	// Student fields (empty for advisors/admins)
	School         string `gorm:"type:varchar(255)" json:"school,omitempty"`
	GraduationYear int    `gorm:"default:0" json:"graduation_year,omitempty"`
	GPA            string `gorm:"type:varchar(10)" json:"gpa,omitempty"`
	AdvisorID      *uint  `gorm:"index" json:"advisor_id,omitempty"` // Assigned advisor for students

	// Relationships
	Advisor          *User                 `gorm:"foreignKey:AdvisorID" json:"advisor,omitempty"`
	AptitudeSessions []AptitudeTestSession `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Tasks            []Task                `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Essays           []Essay               `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Shortlist        []ShortlistEntry      `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Notifications    []UserNotification    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AuditLog         []AdminAuditLog       `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist   []JWTTokenBlacklist   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsStudent reports whether the user has the student role
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// IsAdvisor reports whether the user has the advisor role
func (u *User) IsAdvisor() bool {
	return u.Role == RoleAdvisor
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
