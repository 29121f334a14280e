package model

import (
	"time"

	"gorm.io/gorm"
)

// Task statuses
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// Task represents an advisor-assigned (or self-created) to-do item for a
// student, e.g. "Request recommendation letter from Ms. Lee"
type Task struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	StudentID   uint       `gorm:"not null;index" json:"student_id"`
	CreatedByID uint       `gorm:"not null" json:"created_by_id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	Status      string     `gorm:"type:varchar(20);default:'pending'" json:"status"`  // pending, in_progress, done
	Priority    string     `gorm:"type:varchar(10);default:'normal'" json:"priority"` // low, normal, high
	DueAt       *time.Time `gorm:"index" json:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Relationships
	Student   User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedBy User `gorm:"foreignKey:CreatedByID" json:"-"`
}

// TableName specifies the table name for Task
func (Task) TableName() string {
	return "tasks"
}
