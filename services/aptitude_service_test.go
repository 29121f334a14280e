package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/advisorly/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateCategoryScoresAnswerWeights(t *testing.T) {
	// Question 1 carries double weight and maps its first option to the two
	// technical categories
	scores := CalculateCategoryScores([]string{"Technical/Analytical tasks"}, nil)

	assert.Len(t, scores, len(InterestCategories))
	assert.Equal(t, 2.0, scores[CategoryEngineering])
	assert.Equal(t, 2.0, scores[CategoryComputers])
	assert.Equal(t, 0.0, scores[CategoryArts])
	assert.Equal(t, 0.0, scores[CategoryBusiness])
}

func TestCalculateCategoryScoresUnmatchedAnswer(t *testing.T) {
	scores := CalculateCategoryScores([]string{"Not an option at all"}, nil)

	for name, score := range scores {
		assert.Equal(t, 0.0, score, "category %s should stay at zero", name)
	}
}

func TestCalculateCategoryScoresComfortBonus(t *testing.T) {
	levels := map[string]int{
		"Mathematics": 4,
		"Physics":     2,
	}
	scores := CalculateCategoryScores(nil, levels)

	// Engineering averages both matching subjects, the others match only math
	assert.Equal(t, 1.5, scores[CategoryEngineering])
	assert.Equal(t, 2.0, scores[CategoryComputers])
	assert.Equal(t, 2.0, scores[CategoryBusiness])
	assert.Equal(t, 0.0, scores[CategoryLifeSciences])
	assert.Equal(t, 0.0, scores[CategoryEducation])
}

func TestCalculateCategoryScoresDeterministic(t *testing.T) {
	answers := []string{"Creative/Expressive tasks", "Brainstorming original ideas"}
	levels := map[string]int{"Art History": 5, "Biology": 3}

	first := CalculateCategoryScores(answers, levels)
	second := CalculateCategoryScores(answers, levels)
	assert.Equal(t, first, second)
}

func TestTopInterestsRanking(t *testing.T) {
	scores := map[string]float64{
		CategoryArts:        7,
		CategoryEngineering: 3,
		CategoryMedia:       5,
	}

	top := TopInterests(scores, 3)
	assert.Equal(t, []string{CategoryArts, CategoryMedia, CategoryEngineering}, top)
}

func TestTopInterestsTieBreakByDeclaredOrder(t *testing.T) {
	// All-zero scores fall back entirely to the declared category order
	top := TopInterests(map[string]float64{}, 5)

	assert.Equal(t, []string{
		CategoryEngineering,
		CategoryComputers,
		CategoryBusiness,
		CategoryLifeSciences,
		CategoryArts,
	}, top)
}

func TestCreateSessionQuota(t *testing.T) {
	db := newTestDB(t)
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := NewAptitudeService(db, &fakeLanguageModel{}, nil)
	ctx := context.Background()

	for i := 0; i < model.MaxAptitudeSessionsPerStudent; i++ {
		_, err := svc.CreateSession(ctx, student.ID)
		require.NoError(t, err)
	}

	_, err := svc.CreateSession(ctx, student.ID)
	assert.ErrorIs(t, err, ErrAptitudeQuotaExceeded)
}

func TestHiddenSessionsCountTowardQuota(t *testing.T) {
	db := newTestDB(t)
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := NewAptitudeService(db, &fakeLanguageModel{}, nil)
	ctx := context.Background()

	var first *model.AptitudeTestSession
	for i := 0; i < model.MaxAptitudeSessionsPerStudent; i++ {
		session, err := svc.CreateSession(ctx, student.ID)
		require.NoError(t, err)
		if first == nil {
			first = session
		}
	}

	require.NoError(t, svc.HideSession(ctx, student.ID, first.ID))

	// Hiding frees the listing, not the quota
	sessions, err := svc.ListSessions(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, model.MaxAptitudeSessionsPerStudent-1)

	_, err = svc.CreateSession(ctx, student.ID)
	assert.ErrorIs(t, err, ErrAptitudeQuotaExceeded)
}

func TestGetSessionOwnership(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	other := createTestUser(t, db, "Liam Park", model.RoleStudent)
	svc := NewAptitudeService(db, &fakeLanguageModel{}, nil)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, owner.ID)
	require.NoError(t, err)

	_, err = svc.GetSession(ctx, other.ID, session.ID)
	assert.ErrorIs(t, err, ErrAptitudeSessionNotFound)
}

func TestWizardStepProgression(t *testing.T) {
	db := newTestDB(t)
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := NewAptitudeService(db, &fakeLanguageModel{}, nil)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentStep)
	assert.Equal(t, model.AptitudeStatusNotStarted, session.Status)

	session, err = svc.UpdateFavoriteSubjects(ctx, student.ID, session.ID, []string{"Mathematics", "Physics"})
	require.NoError(t, err)
	assert.Equal(t, 2, session.CurrentStep)
	assert.Equal(t, model.AptitudeStatusInProgress, session.Status)

	session, err = svc.UpdateComfortLevels(ctx, student.ID, session.ID, map[string]int{"Mathematics": 5})
	require.NoError(t, err)
	assert.Equal(t, 3, session.CurrentStep)

	// Re-recording an earlier step must not move the wizard backwards
	session, err = svc.UpdateFavoriteSubjects(ctx, student.ID, session.ID, []string{"Mathematics"})
	require.NoError(t, err)
	assert.Equal(t, 3, session.CurrentStep)
}

func TestCompletedSessionIsImmutable(t *testing.T) {
	db := newTestDB(t)
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := NewAptitudeService(db, &fakeLanguageModel{}, nil)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, student.ID)
	require.NoError(t, err)

	err = db.Model(session).Update("status", model.AptitudeStatusCompleted).Error
	require.NoError(t, err)

	_, err = svc.UpdateFavoriteSubjects(ctx, student.ID, session.ID, []string{"Biology"})
	assert.ErrorIs(t, err, ErrSessionCompleted)

	_, err = svc.UpdateAnswers(ctx, student.ID, session.ID, nil, nil)
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestGenerateRecommendationsIncompleteAnswers(t *testing.T) {
	db := newTestDB(t)
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := NewAptitudeService(db, &fakeLanguageModel{}, nil)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, student.ID)
	require.NoError(t, err)

	_, err = svc.UpdateAnswers(ctx, student.ID, session.ID,
		[]string{AptitudeQuestions[0].Prompt},
		[]string{AptitudeQuestions[0].Options[0]})
	require.NoError(t, err)

	_, err = svc.GenerateRecommendations(ctx, student.ID, session.ID)
	assert.ErrorIs(t, err, ErrIncompleteAnswers)

	// The failed run must not finalize anything
	reloaded, err := svc.GetSession(ctx, student.ID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AptitudeStatusInProgress, reloaded.Status)
	assert.Nil(t, reloaded.CompletedAt)
}

func TestGenerateRecommendations(t *testing.T) {
	db := newTestDB(t)
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	notifications := NewNotificationService(db)

	// Percentages outside 0-100 must be clamped on the way in
	llm := &fakeLanguageModel{
		structured: func(target interface{}) error {
			payload := `{
				"interest_matches": [
					{"category": "Engineering", "match_percentage": 150, "reasoning": "strong technical signal"},
					{"category": "Computers and Data Science", "match_percentage": -5, "reasoning": "logical problem solving"},
					{"category": "Business and Economics", "match_percentage": 40, "reasoning": "some leadership interest"}
				],
				"recommendation": "Lean into engineering."
			}`
			return json.Unmarshal([]byte(payload), target)
		},
	}

	svc := NewAptitudeService(db, llm, notifications)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, student.ID)
	require.NoError(t, err)

	questions := make([]string, 0, len(AptitudeQuestions))
	answers := make([]string, 0, len(AptitudeQuestions))
	for _, q := range AptitudeQuestions {
		questions = append(questions, q.Prompt)
		answers = append(answers, q.Options[0])
	}

	_, err = svc.UpdateFavoriteSubjects(ctx, student.ID, session.ID, []string{"Mathematics", "Physics"})
	require.NoError(t, err)
	_, err = svc.UpdateComfortLevels(ctx, student.ID, session.ID, map[string]int{"Mathematics": 5, "Physics": 4})
	require.NoError(t, err)
	_, err = svc.UpdateAnswers(ctx, student.ID, session.ID, questions, answers)
	require.NoError(t, err)

	result, err := svc.GenerateRecommendations(ctx, student.ID, session.ID)
	require.NoError(t, err)

	assert.Equal(t, model.AptitudeStatusCompleted, result.Status)
	assert.Equal(t, model.AptitudeMaxStep, result.CurrentStep)
	require.NotNil(t, result.CompletedAt)
	assert.Equal(t, "Lean into engineering.", result.Recommendations)

	// All-first-option answers plus math/physics comfort put the two
	// technical categories on top
	var interests []string
	require.NoError(t, json.Unmarshal(result.GeneratedInterests, &interests))
	require.Len(t, interests, TopInterestCount)
	assert.Equal(t, CategoryEngineering, interests[0])
	assert.Equal(t, CategoryComputers, interests[1])

	var matches []model.InterestMatch
	require.NoError(t, json.Unmarshal(result.InterestMatches, &matches))
	require.Len(t, matches, TopInterestCount)
	assert.Equal(t, 100, matches[0].MatchPercentage)
	assert.Equal(t, "strong technical signal", matches[0].Reasoning)
	assert.Equal(t, 0, matches[1].MatchPercentage)
	assert.NotEmpty(t, matches[0].Careers)

	// Categories the model skipped keep zero values but still carry careers
	assert.Equal(t, 0, matches[3].MatchPercentage)
	assert.Empty(t, matches[3].Reasoning)

	var careers []model.Career
	require.NoError(t, json.Unmarshal(result.Careers, &careers))
	assert.Len(t, careers, MaxFlattenedCareers)
	assert.Equal(t, "Mechanical Engineer", careers[0].Title)

	count, err := notifications.GetUnreadCount(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestFlattenCareersCap(t *testing.T) {
	matches := []model.InterestMatch{
		{Category: CategoryEngineering, Careers: CareersByCategory[CategoryEngineering]},
		{Category: CategoryComputers, Careers: CareersByCategory[CategoryComputers]},
		{Category: CategoryArts, Careers: CareersByCategory[CategoryArts]},
	}

	careers := flattenCareers(matches, MaxFlattenedCareers)
	assert.Len(t, careers, MaxFlattenedCareers)
	assert.Equal(t, CategoryEngineering, careers[0].Category)
	assert.Equal(t, CategoryComputers, careers[len(careers)-1].Category)
}

func TestHideSessionNotFound(t *testing.T) {
	db := newTestDB(t)
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := NewAptitudeService(db, &fakeLanguageModel{}, nil)

	err := svc.HideSession(context.Background(), student.ID, 9999)
	assert.True(t, errors.Is(err, ErrAptitudeSessionNotFound))
}
