package model

import (
	"time"

	"gorm.io/gorm"
)

// Essay statuses
const (
	EssayStatusUploaded  = "uploaded"
	EssayStatusExtracted = "extracted"
	EssayStatusReviewed  = "reviewed"
)

// Essay represents an application essay draft uploaded by a student as a PDF.
// The original file lives in object storage; extracted text and generated
// feedback are stored on the row.
type Essay struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	StudentID  uint   `gorm:"not null;index" json:"student_id"`
	Title      string `gorm:"type:varchar(255);not null" json:"title"`
	Prompt     string `gorm:"type:text" json:"prompt,omitempty"` // the essay question being answered
	Status     string `gorm:"type:varchar(20);default:'uploaded'" json:"status"`
	StorageKey string `gorm:"type:varchar(512);not null" json:"-"`
	PageCount  int    `gorm:"default:0" json:"page_count"`
	WordCount  int    `gorm:"default:0" json:"word_count"`
	Text       string `gorm:"type:text" json:"-"` // extracted text, used for feedback generation
	Feedback   string `gorm:"type:text" json:"feedback,omitempty"`

	// Relationships
	Student User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Essay
func (Essay) TableName() string {
	return "essays"
}
