package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/advisorly/api/model"
	"github.com/advisorly/api/services/digitalocean"
	"github.com/advisorly/api/utils/pdfvalidation"
	"gorm.io/gorm"
)

var (
	// ErrEssayNotFound indicates the essay does not exist or belongs to
	// another student
	ErrEssayNotFound = errors.New("essay not found")
	// ErrInvalidEssayPDF indicates the uploaded file failed PDF validation
	ErrInvalidEssayPDF = errors.New("invalid essay PDF")
	// ErrEssayNotExtracted indicates feedback was requested before the essay
	// text was extracted
	ErrEssayNotExtracted = errors.New("essay text has not been extracted")
)

// EssayService handles student essay uploads, text extraction, and
// LLM-generated feedback
type EssayService struct {
	db            *gorm.DB
	store         ObjectStore
	llm           LanguageModel
	extractor     *PDFExtractor
	notifications *NotificationService
}

// NewEssayService creates a new essay service
func NewEssayService(db *gorm.DB, store ObjectStore, llm LanguageModel, notifications *NotificationService) *EssayService {
	return &EssayService{
		db:            db,
		store:         store,
		llm:           llm,
		extractor:     NewPDFExtractor(),
		notifications: notifications,
	}
}

// UploadEssay validates a PDF, stores it, extracts its text, and records the
// essay row. Validation failures return ErrInvalidEssayPDF wrapped with the
// specific reason.
func (s *EssayService) UploadEssay(ctx context.Context, studentID uint, title, prompt string, content []byte) (*model.Essay, error) {
	result, err := pdfvalidation.ValidatePDFBytes(content, pdfvalidation.EssayLimits)
	if err != nil {
		return nil, fmt.Errorf("failed to validate PDF: %w", err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEssayPDF, result.Error)
	}

	essay := &model.Essay{
		StudentID: studentID,
		Title:     title,
		Prompt:    prompt,
		Status:    model.EssayStatusUploaded,
		PageCount: result.PageCount,
	}
	if err := s.db.WithContext(ctx).Create(essay).Error; err != nil {
		return nil, fmt.Errorf("failed to create essay: %w", err)
	}

	key := digitalocean.EssayKey(studentID, essay.ID)
	if err := s.store.Upload(ctx, key, content, "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to store essay file: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(essay).Update("storage_key", key).Error; err != nil {
		return nil, fmt.Errorf("failed to record storage key: %w", err)
	}
	essay.StorageKey = key

	// Extraction failure leaves the essay in "uploaded"; feedback stays
	// unavailable until a later re-extract succeeds
	text, err := s.extractor.ExtractText(content)
	if err != nil {
		log.Printf("Essay %d: text extraction failed: %v", essay.ID, err)
		return essay, nil
	}

	updates := map[string]interface{}{
		"text":       text,
		"word_count": len(strings.Fields(text)),
		"status":     model.EssayStatusExtracted,
	}
	if err := s.db.WithContext(ctx).Model(essay).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to store extracted text: %w", err)
	}
	essay.Text = text
	essay.WordCount = len(strings.Fields(text))
	essay.Status = model.EssayStatusExtracted

	return essay, nil
}

// GetEssay loads one essay scoped to its owner
func (s *EssayService) GetEssay(ctx context.Context, studentID, essayID uint) (*model.Essay, error) {
	var essay model.Essay
	err := s.db.WithContext(ctx).
		Where("id = ? AND student_id = ?", essayID, studentID).
		First(&essay).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrEssayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load essay: %w", err)
	}
	return &essay, nil
}

// ListEssays returns a student's essays, newest first
func (s *EssayService) ListEssays(ctx context.Context, studentID uint) ([]model.Essay, error) {
	var essays []model.Essay
	err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&essays).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list essays: %w", err)
	}
	return essays, nil
}

// GenerateFeedback asks the language model to review the extracted essay text
// against its prompt and stores the result
func (s *EssayService) GenerateFeedback(ctx context.Context, studentID, essayID uint) (*model.Essay, error) {
	essay, err := s.GetEssay(ctx, studentID, essayID)
	if err != nil {
		return nil, err
	}
	if essay.Text == "" {
		return nil, ErrEssayNotExtracted
	}

	systemPrompt := "You are an experienced college admissions essay reviewer. " +
		"Give the student concrete, encouraging feedback: what works, what to strengthen, " +
		"and whether the essay answers its prompt. Keep it under 400 words."

	userPrompt := essay.Text
	if essay.Prompt != "" {
		userPrompt = fmt.Sprintf("Essay prompt:\n%s\n\nEssay:\n%s", essay.Prompt, essay.Text)
	}

	feedback, err := s.llm.Completion(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("feedback generation failed: %w", err)
	}

	updates := map[string]interface{}{
		"feedback": feedback,
		"status":   model.EssayStatusReviewed,
	}
	if err := s.db.WithContext(ctx).Model(essay).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}
	essay.Feedback = feedback
	essay.Status = model.EssayStatusReviewed

	_, err = s.notifications.Create(ctx, studentID,
		model.NotificationTypeSuccess, model.NotificationCategoryEssay,
		"Essay feedback ready",
		fmt.Sprintf("Feedback for %q is ready to review.", essay.Title))
	if err != nil {
		log.Printf("Essay %d: failed to notify student %d: %v", essay.ID, studentID, err)
	}

	return essay, nil
}

// DownloadURL returns a short-lived signed URL for the original PDF
func (s *EssayService) DownloadURL(ctx context.Context, studentID, essayID uint) (string, error) {
	essay, err := s.GetEssay(ctx, studentID, essayID)
	if err != nil {
		return "", err
	}
	return s.store.SignedURL(ctx, essay.StorageKey, 15*time.Minute)
}

// DeleteEssay removes the essay row and its stored PDF
func (s *EssayService) DeleteEssay(ctx context.Context, studentID, essayID uint) error {
	essay, err := s.GetEssay(ctx, studentID, essayID)
	if err != nil {
		return err
	}

	if essay.StorageKey != "" {
		if err := s.store.Delete(ctx, essay.StorageKey); err != nil {
			log.Printf("Essay %d: failed to delete stored file: %v", essay.ID, err)
		}
	}

	if err := s.db.WithContext(ctx).Delete(essay).Error; err != nil {
		return fmt.Errorf("failed to delete essay: %w", err)
	}
	return nil
}
