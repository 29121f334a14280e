package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Aptitude test session statuses
const (
	AptitudeStatusNotStarted = "not_started"
	AptitudeStatusInProgress = "in_progress"
	AptitudeStatusCompleted  = "completed"
)

// AptitudeMaxStep is the last step of the aptitude test wizard
const AptitudeMaxStep = 4

// MaxAptitudeSessionsPerStudent is the per-student session quota.
// Hidden sessions still count toward it.
const MaxAptitudeSessionsPerStudent = 3

// AptitudeTestSession represents one run of the aptitude test wizard for a
// student, including raw inputs and the generated recommendations.
type AptitudeTestSession struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	StudentID   uint       `gorm:"not null;index" json:"student_id"`
	Status      string     `gorm:"type:varchar(20);default:'not_started'" json:"status"` // not_started, in_progress, completed
	CurrentStep int        `gorm:"default:1" json:"current_step"`                        // 1..4
	Hidden      bool       `gorm:"default:false" json:"hidden"`                          // hidden sessions still count toward the quota
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Inputs collected by the wizard
	FavoriteSubjects     datatypes.JSON `gorm:"type:jsonb" json:"favorite_subjects,omitempty"`      // []string, ordered
	SubjectComfortLevels datatypes.JSON `gorm:"type:jsonb" json:"subject_comfort_levels,omitempty"` // map[string]int, 1-5
	Questions            datatypes.JSON `gorm:"type:jsonb" json:"questions,omitempty"`              // []string, parallel to Answers
	Answers              datatypes.JSON `gorm:"type:jsonb" json:"answers,omitempty"`                // []string, chosen option text

	// Generated outputs (overwritten in full on each generation run)
	GeneratedInterests datatypes.JSON `gorm:"type:jsonb" json:"generated_interests,omitempty"` // []string, ranked
	Recommendations    string         `gorm:"type:text" json:"recommendations,omitempty"`
	InterestMatches    datatypes.JSON `gorm:"type:jsonb" json:"interest_matches,omitempty"` // []InterestMatch
	Careers            datatypes.JSON `gorm:"type:jsonb" json:"careers,omitempty"`          // []Career, flattened

	// Relationships
	Student User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for AptitudeTestSession
func (AptitudeTestSession) TableName() string {
	return "aptitude_test_sessions"
}

// IsCompleted reports whether the session has been finalized
func (s *AptitudeTestSession) IsCompleted() bool {
	return s.Status == AptitudeStatusCompleted
}

// Career is a candidate career attached to an interest category
type Career struct {
	Title    string `json:"title"`
	Emoji    string `json:"emoji"`
	Major    string `json:"major"`
	Category string `json:"category"`
}

// InterestMatch is one enriched top-interest entry produced by the
// recommendation generation run
type InterestMatch struct {
	Category        string   `json:"category"`
	MatchPercentage int      `json:"match_percentage"` // 0-100
	Reasoning       string   `json:"reasoning"`
	Careers         []Career `json:"careers"`
}
