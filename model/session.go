package model

import (
	"time"

	"gorm.io/gorm"
)

// Session is the durable record of a recorded meeting. The transcript and
// optional replay video live in object storage under deterministic keys, not
// as rows here.
type Session struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Title     string `gorm:"type:varchar(255);not null" json:"title"`
	StudentID *uint  `gorm:"index" json:"student_id,omitempty"` // nil until auto-sync claim for calendar sessions
	AdvisorID *uint  `gorm:"index" json:"advisor_id,omitempty"`
	Summary   string `gorm:"type:text" json:"summary,omitempty"` // derived by summarization, never hand-authored
	BotID     string `gorm:"type:varchar(100)" json:"bot_id,omitempty"`

	// Relationships
	Student *User `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Advisor *User `gorm:"foreignKey:AdvisorID" json:"advisor,omitempty"`
}

// TableName specifies the table name for Session
func (Session) TableName() string {
	return "sessions"
}

// StudentOverview holds the running narrative for a student, folded together
// from each new session summary (accumulate-and-merge, not replace).
type StudentOverview struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StudentID uint   `gorm:"not null;uniqueIndex" json:"student_id"`
	Overview  string `gorm:"type:text" json:"overview"`

	// Relationships
	Student User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for StudentOverview
func (StudentOverview) TableName() string {
	return "student_overviews"
}
