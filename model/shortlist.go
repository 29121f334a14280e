package model

import (
	"time"

	"gorm.io/gorm"
)

// Shortlist entry statuses
const (
	ShortlistStatusConsidering = "considering"
	ShortlistStatusApplying    = "applying"
	ShortlistStatusApplied     = "applied"
	ShortlistStatusAccepted    = "accepted"
	ShortlistStatusRejected    = "rejected"
)

// ShortlistEntry represents one university on a student's application
// shortlist
type ShortlistEntry struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	StudentID  uint   `gorm:"not null;index" json:"student_id"`
	University string `gorm:"type:varchar(255);not null" json:"university"`
	Country    string `gorm:"type:varchar(100)" json:"country,omitempty"`
	Major      string `gorm:"type:varchar(255)" json:"major,omitempty"`
	Status     string `gorm:"type:varchar(20);default:'considering'" json:"status"`
	Notes      string `gorm:"type:text" json:"notes,omitempty"`

	// Relationships
	Student User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for ShortlistEntry
func (ShortlistEntry) TableName() string {
	return "shortlist_entries"
}
