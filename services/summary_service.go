package services

import (
	"context"
	"fmt"

	"github.com/advisorly/api/model"
	"gorm.io/gorm"
)

// SummaryService produces meeting summaries and maintains the per-student
// running overview narrative.
type SummaryService struct {
	db  *gorm.DB
	llm LanguageModel
}

// NewSummaryService creates a new summary service
func NewSummaryService(db *gorm.DB, llm LanguageModel) *SummaryService {
	return &SummaryService{db: db, llm: llm}
}

// SummarizeTranscript asks the language model for a plain-text summary of a
// meeting transcript
func (s *SummaryService) SummarizeTranscript(ctx context.Context, transcript string) (string, error) {
	systemPrompt := "You are an assistant for a college-counseling service. " +
		"Summarize the following advisor/student meeting transcript. " +
		"Cover decisions made, advice given, and agreed next steps. " +
		"Write plain prose, no headings or bullet markers."

	summary, err := s.llm.Completion(ctx, systemPrompt, transcript)
	if err != nil {
		return "", fmt.Errorf("transcript summarization failed: %w", err)
	}
	return summary, nil
}

// MergeStudentOverview folds a new session summary into the student's
// running overview. The prior overview is read, merged with the new summary
// by the language model, and persisted. Accumulates rather than replaces.
func (s *SummaryService) MergeStudentOverview(ctx context.Context, studentID uint, newSummary string) (string, error) {
	var overview model.StudentOverview
	err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&overview).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return "", fmt.Errorf("failed to load student overview: %w", err)
	}

	merged := newSummary
	if overview.Overview != "" {
		systemPrompt := "You maintain a running overview of a student's college-counseling journey. " +
			"Merge the existing overview with the latest session summary into one updated overview. " +
			"Keep earlier milestones, fold in what is new, and drop nothing important."
		userPrompt := fmt.Sprintf("Existing overview:\n%s\n\nLatest session summary:\n%s",
			overview.Overview, newSummary)

		merged, err = s.llm.Completion(ctx, systemPrompt, userPrompt)
		if err != nil {
			return "", fmt.Errorf("overview merge failed: %w", err)
		}
	}

	if overview.ID == 0 {
		overview = model.StudentOverview{StudentID: studentID, Overview: merged}
		if err := s.db.WithContext(ctx).Create(&overview).Error; err != nil {
			return "", fmt.Errorf("failed to create student overview: %w", err)
		}
		return merged, nil
	}

	err = s.db.WithContext(ctx).
		Model(&overview).
		Update("overview", merged).Error
	if err != nil {
		return "", fmt.Errorf("failed to update student overview: %w", err)
	}
	return merged, nil
}

// GetStudentOverview returns the student's current overview narrative, or an
// empty string when none exists yet
func (s *SummaryService) GetStudentOverview(ctx context.Context, studentID uint) (string, error) {
	var overview model.StudentOverview
	err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&overview).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load student overview: %w", err)
	}
	return overview.Overview, nil
}
