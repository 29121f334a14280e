package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ScheduledSession represents an upcoming (or just-finished) advisor/student
// meeting that a recording bot can be sent to. Sessions discovered by
// calendar sync may not have resolved participants yet.
type ScheduledSession struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	ScheduledAt time.Time `gorm:"not null;index" json:"scheduled_at"`
	MeetingCode string    `gorm:"type:varchar(50);not null" json:"meeting_code"` // e.g. "abc-defg-hij"

	// Participants are nullable: calendar-synced sessions start unmatched
	AdvisorID *uint `gorm:"index" json:"advisor_id,omitempty"`
	StudentID *uint `gorm:"index" json:"student_id,omitempty"`

	// Bot lifecycle. BotID goes nil -> non-nil exactly once per dispatch;
	// DoneAt is set exactly once, after the bot reports "done".
	BotID  *string    `gorm:"type:varchar(100);index" json:"bot_id,omitempty"`
	DoneAt *time.Time `json:"done_at,omitempty"`

	// External calendar linkage, deduplicated per event
	CalendarEventID *string        `gorm:"type:varchar(255);uniqueIndex" json:"calendar_event_id,omitempty"`
	CalendarMeta    datatypes.JSON `gorm:"type:jsonb" json:"calendar_meta,omitempty"` // raw provider metadata (summary, attendees)

	// Set when completion capture creates the durable Session record
	CreatedSessionID *uint `gorm:"index" json:"created_session_id,omitempty"`

	// Relationships
	Advisor        *User    `gorm:"foreignKey:AdvisorID" json:"advisor,omitempty"`
	Student        *User    `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	CreatedSession *Session `gorm:"foreignKey:CreatedSessionID" json:"created_session,omitempty"`
}

// TableName specifies the table name for ScheduledSession
func (ScheduledSession) TableName() string {
	return "scheduled_sessions"
}

// IsDispatched reports whether a bot has been sent to this meeting
func (s *ScheduledSession) IsDispatched() bool {
	return s.BotID != nil && *s.BotID != ""
}

// IsCalendarSynced reports whether this session came from calendar sync
func (s *ScheduledSession) IsCalendarSynced() bool {
	return s.CalendarEventID != nil && *s.CalendarEventID != ""
}

// MeetingURL returns the full Google Meet URL for the session's meeting code
func (s *ScheduledSession) MeetingURL() string {
	return "https://meet.google.com/" + s.MeetingCode
}
