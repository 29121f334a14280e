package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/advisorly/api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// TopInterestCount is how many interest categories are kept after ranking
	TopInterestCount = 5
	// MaxFlattenedCareers caps the flattened career list across all matches
	MaxFlattenedCareers = 10
	// ComfortBonusFactor scales the average comfort level added to a category
	ComfortBonusFactor = 0.5
)

var (
	// ErrAptitudeSessionNotFound is returned when the session does not exist
	// or is not owned by the caller
	ErrAptitudeSessionNotFound = errors.New("aptitude test session not found")
	// ErrAptitudeQuotaExceeded is returned when a student already has the
	// maximum number of sessions (hidden sessions included)
	ErrAptitudeQuotaExceeded = errors.New("aptitude test session quota exceeded")
	// ErrIncompleteAnswers is returned when recommendations are requested
	// before every question has been answered
	ErrIncompleteAnswers = errors.New("questionnaire is not complete yet")
	// ErrSessionCompleted is returned for wizard edits on a completed session
	ErrSessionCompleted = errors.New("completed sessions cannot be modified")
)

// AptitudeService manages aptitude test sessions: wizard progression,
// scoring, and LLM-enriched recommendation generation.
type AptitudeService struct {
	db            *gorm.DB
	llm           LanguageModel
	notifications *NotificationService
}

// NewAptitudeService creates a new aptitude service
func NewAptitudeService(db *gorm.DB, llm LanguageModel, notifications *NotificationService) *AptitudeService {
	return &AptitudeService{
		db:            db,
		llm:           llm,
		notifications: notifications,
	}
}

// CalculateCategoryScores converts questionnaire answers plus subject comfort
// levels into a per-category affinity score. Every official category appears
// in the result, possibly at zero. The function is pure: identical input
// yields identical output.
//
// Answers are matched by position: answers[i] is compared against the option
// texts of question i. Answer text that matches no option contributes
// nothing. Each matched option adds the question's weight to every category
// it maps to. On top of that, each category with required subjects receives
// the average comfort level (1-5) of the matching subjects times
// ComfortBonusFactor; categories with no matching comfort subjects get no
// bonus.
func CalculateCategoryScores(answers []string, comfortLevels map[string]int) map[string]float64 {
	scores := make(map[string]float64, len(InterestCategories))
	for _, cat := range InterestCategories {
		scores[cat.Name] = 0
	}

	for i, answer := range answers {
		if i >= len(AptitudeQuestions) {
			break
		}
		question := AptitudeQuestions[i]

		optionIndex := -1
		for j, option := range question.Options {
			if option == answer {
				optionIndex = j
				break
			}
		}
		if optionIndex < 0 {
			continue // unmatched answer text is a tolerant no-op
		}

		for _, category := range question.CategoryMap[optionIndex] {
			scores[category] += float64(question.Weight)
		}
	}

	for _, cat := range InterestCategories {
		if len(cat.RequiredSubjects) == 0 {
			continue
		}

		sum, count := 0, 0
		for subject, level := range comfortLevels {
			for _, required := range cat.RequiredSubjects {
				if strings.Contains(strings.ToLower(subject), required) {
					sum += level
					count++
					break
				}
			}
		}
		if count > 0 {
			scores[cat.Name] += float64(sum) / float64(count) * ComfortBonusFactor
		}
	}

	return scores
}

// TopInterests ranks categories by descending score and returns the top
// count names. Ties are broken by the declared category order so ranking is
// deterministic regardless of map iteration order.
func TopInterests(scores map[string]float64, count int) []string {
	order := make(map[string]int, len(InterestCategories))
	names := make([]string, 0, len(InterestCategories))
	for i, cat := range InterestCategories {
		order[cat.Name] = i
		names = append(names, cat.Name)
	}

	sort.SliceStable(names, func(a, b int) bool {
		if scores[names[a]] != scores[names[b]] {
			return scores[names[a]] > scores[names[b]]
		}
		return order[names[a]] < order[names[b]]
	})

	if count > len(names) {
		count = len(names)
	}
	return names[:count]
}

// CanCreateNew reports whether the student is under the session quota.
// Hidden sessions count toward the quota.
func (s *AptitudeService) CanCreateNew(ctx context.Context, studentID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.AptitudeTestSession{}).
		Where("student_id = ?", studentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count < model.MaxAptitudeSessionsPerStudent, nil
}

// CreateSession creates a fresh not_started session for the student,
// enforcing the per-student quota
func (s *AptitudeService) CreateSession(ctx context.Context, studentID uint) (*model.AptitudeTestSession, error) {
	ok, err := s.CanCreateNew(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAptitudeQuotaExceeded
	}

	session := model.AptitudeTestSession{
		StudentID:   studentID,
		Status:      model.AptitudeStatusNotStarted,
		CurrentStep: 1,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &session, nil
}

// GetSession loads a session owned by the student
func (s *AptitudeService) GetSession(ctx context.Context, studentID, sessionID uint) (*model.AptitudeTestSession, error) {
	var session model.AptitudeTestSession
	err := s.db.WithContext(ctx).
		Where("id = ? AND student_id = ?", sessionID, studentID).
		First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrAptitudeSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// ListSessions returns the student's sessions, excluding hidden ones
func (s *AptitudeService) ListSessions(ctx context.Context, studentID uint) ([]model.AptitudeTestSession, error) {
	var sessions []model.AptitudeTestSession
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND hidden = ?", studentID, false).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// HideSession soft-hides a session. It still counts toward the quota but is
// excluded from listings. Sessions are never hard-deleted.
func (s *AptitudeService) HideSession(ctx context.Context, studentID, sessionID uint) error {
	result := s.db.WithContext(ctx).
		Model(&model.AptitudeTestSession{}).
		Where("id = ? AND student_id = ?", sessionID, studentID).
		Update("hidden", true)
	if result.Error != nil {
		return fmt.Errorf("failed to hide session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAptitudeSessionNotFound
	}
	return nil
}

// UpdateFavoriteSubjects records wizard step 1 (favorite subjects)
func (s *AptitudeService) UpdateFavoriteSubjects(ctx context.Context, studentID, sessionID uint, subjects []string) (*model.AptitudeTestSession, error) {
	return s.updateStep(ctx, studentID, sessionID, 2, map[string]interface{}{
		"favorite_subjects": mustJSON(subjects),
	})
}

// UpdateComfortLevels records wizard step 2 (subject comfort levels, 1-5)
func (s *AptitudeService) UpdateComfortLevels(ctx context.Context, studentID, sessionID uint, levels map[string]int) (*model.AptitudeTestSession, error) {
	return s.updateStep(ctx, studentID, sessionID, 3, map[string]interface{}{
		"subject_comfort_levels": mustJSON(levels),
	})
}

// UpdateAnswers records wizard step 3 (the questionnaire responses, as
// parallel question/answer text lists)
func (s *AptitudeService) UpdateAnswers(ctx context.Context, studentID, sessionID uint, questions, answers []string) (*model.AptitudeTestSession, error) {
	return s.updateStep(ctx, studentID, sessionID, 3, map[string]interface{}{
		"questions": mustJSON(questions),
		"answers":   mustJSON(answers),
	})
}

// updateStep applies wizard-step mutations. Completed sessions are immutable
// through this path; current_step only moves forward and never exceeds the
// last step.
func (s *AptitudeService) updateStep(ctx context.Context, studentID, sessionID uint, nextStep int, updates map[string]interface{}) (*model.AptitudeTestSession, error) {
	session, err := s.GetSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted() {
		return nil, ErrSessionCompleted
	}

	if nextStep > model.AptitudeMaxStep {
		nextStep = model.AptitudeMaxStep
	}
	if nextStep > session.CurrentStep {
		updates["current_step"] = nextStep
	}
	updates["status"] = model.AptitudeStatusInProgress

	if err := s.db.WithContext(ctx).Model(session).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return s.GetSession(ctx, studentID, sessionID)
}

// aptitudeEnrichment is the schema-validated shape the model must return
type aptitudeEnrichment struct {
	InterestMatches []struct {
		Category        string `json:"category"`
		MatchPercentage int    `json:"match_percentage"`
		Reasoning       string `json:"reasoning"`
	} `json:"interest_matches"`
	Recommendation string `json:"recommendation"`
}

var aptitudeEnrichmentSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"interest_matches": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"category":         map[string]interface{}{"type": "string"},
					"match_percentage": map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 100},
					"reasoning":        map[string]interface{}{"type": "string"},
				},
				"required": []string{"category", "match_percentage", "reasoning"},
			},
		},
		"recommendation": map[string]interface{}{"type": "string"},
	},
	"required": []string{"interest_matches", "recommendation"},
}

// GenerateRecommendations scores the session, asks the language model for
// match percentages, reasoning and a narrative for the top interests, and
// persists the finalized session. This is the only path that moves a session
// to completed. Reruns fully overwrite prior results.
func (s *AptitudeService) GenerateRecommendations(ctx context.Context, studentID, sessionID uint) (*model.AptitudeTestSession, error) {
	session, err := s.GetSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}

	subjects := decodeStringList(session.FavoriteSubjects)
	questions := decodeStringList(session.Questions)
	answers := decodeStringList(session.Answers)
	comfortLevels := decodeComfortLevels(session.SubjectComfortLevels)

	if len(answers) < len(AptitudeQuestions) {
		return nil, ErrIncompleteAnswers
	}

	scores := CalculateCategoryScores(answers, comfortLevels)
	topInterests := TopInterests(scores, TopInterestCount)

	enrichment, err := s.enrich(ctx, subjects, comfortLevels, questions, answers, topInterests)
	if err != nil {
		return nil, err
	}

	matches := buildInterestMatches(topInterests, enrichment)
	careers := flattenCareers(matches, MaxFlattenedCareers)

	now := time.Now()
	updates := map[string]interface{}{
		"status":              model.AptitudeStatusCompleted,
		"current_step":        model.AptitudeMaxStep,
		"completed_at":        &now,
		"generated_interests": mustJSON(topInterests),
		"recommendations":     enrichment.Recommendation,
		"interest_matches":    mustJSON(matches),
		"careers":             mustJSON(careers),
	}
	if err := s.db.WithContext(ctx).Model(session).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to persist recommendations: %w", err)
	}

	if s.notifications != nil {
		if _, err := s.notifications.Create(ctx, studentID, model.NotificationTypeSuccess,
			model.NotificationCategoryAptitude, "Your aptitude results are ready",
			"Your interest matches and career recommendations have been generated."); err != nil {
			log.Println("Failed to create aptitude notification:", err)
		}
	}

	return s.GetSession(ctx, studentID, sessionID)
}

// enrich asks the language model for percentages, reasoning and the
// narrative, grounded in the student's inputs
func (s *AptitudeService) enrich(ctx context.Context, subjects []string, comfortLevels map[string]int, questions, answers []string, topInterests []string) (*aptitudeEnrichment, error) {
	var sb strings.Builder
	sb.WriteString("Favorite subjects: ")
	sb.WriteString(strings.Join(subjects, ", "))
	sb.WriteString("\n\nSubject comfort levels (1-5):\n")
	for subject, level := range comfortLevels {
		fmt.Fprintf(&sb, "- %s: %d\n", subject, level)
	}
	sb.WriteString("\nQuestionnaire:\n")
	for i, answer := range answers {
		question := ""
		if i < len(questions) {
			question = questions[i]
		} else if i < len(AptitudeQuestions) {
			question = AptitudeQuestions[i].Prompt
		}
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n", question, answer)
	}
	sb.WriteString("\nTop interest categories (ranked): ")
	sb.WriteString(strings.Join(topInterests, ", "))

	systemPrompt := "You are a college counselor helping a high-school student understand their aptitude test results. " +
		"For each of the given top interest categories, produce a match percentage between 0 and 100 and a short reasoning " +
		"grounded in the student's favorite subjects, comfort levels, and questionnaire answers. " +
		"Also write an encouraging multi-paragraph recommendation narrative. " +
		"Return every category you were given, in the given order."

	var enrichment aptitudeEnrichment
	err := s.llm.StructuredCompletion(ctx, systemPrompt, sb.String(),
		"aptitude_recommendations", aptitudeEnrichmentSchema, &enrichment)
	if err != nil {
		return nil, fmt.Errorf("recommendation generation failed: %w", err)
	}
	return &enrichment, nil
}

// buildInterestMatches pairs the ranked top interests with the model's
// enrichment, clamping percentages to [0,100] and attaching the static
// career table for each category
func buildInterestMatches(topInterests []string, enrichment *aptitudeEnrichment) []model.InterestMatch {
	byCategory := make(map[string]struct {
		percentage int
		reasoning  string
	}, len(enrichment.InterestMatches))
	for _, m := range enrichment.InterestMatches {
		byCategory[m.Category] = struct {
			percentage int
			reasoning  string
		}{m.MatchPercentage, m.Reasoning}
	}

	matches := make([]model.InterestMatch, 0, len(topInterests))
	for _, category := range topInterests {
		match := model.InterestMatch{
			Category: category,
			Careers:  CareersByCategory[category],
		}
		if m, ok := byCategory[category]; ok {
			match.MatchPercentage = clampPercentage(m.percentage)
			match.Reasoning = m.reasoning
		}
		matches = append(matches, match)
	}
	return matches
}

// flattenCareers concatenates careers across matches in rank order, capped
// at limit
func flattenCareers(matches []model.InterestMatch, limit int) []model.Career {
	careers := make([]model.Career, 0, limit)
	for _, match := range matches {
		for _, career := range match.Careers {
			if len(careers) >= limit {
				return careers
			}
			careers = append(careers, career)
		}
	}
	return careers
}

func clampPercentage(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func decodeStringList(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil
	}
	return list
}

func decodeComfortLevels(data datatypes.JSON) map[string]int {
	if len(data) == 0 {
		return nil
	}
	var levels map[string]int
	if err := json.Unmarshal(data, &levels); err != nil {
		return nil
	}
	return levels
}

// mustJSON marshals a value into a JSONB column; the input shapes here
// (string lists, int maps, match structs) cannot fail to marshal
func mustJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}
