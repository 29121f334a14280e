package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/advisorly/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStudentOverviewEmpty(t *testing.T) {
	db := newTestDB(t)
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := NewSummaryService(db, &fakeLanguageModel{})

	overview, err := svc.GetStudentOverview(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, "", overview)
}

func TestMergeStudentOverviewAccumulates(t *testing.T) {
	db := newTestDB(t)
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	ctx := context.Background()

	mergeCalls := 0
	llm := &fakeLanguageModel{
		completion: func(systemPrompt, userPrompt string) (string, error) {
			mergeCalls++
			return fmt.Sprintf("merged overview %d", mergeCalls), nil
		},
	}
	svc := NewSummaryService(db, llm)

	// The first summary becomes the overview verbatim, no model call
	merged, err := svc.MergeStudentOverview(ctx, student.ID, "first session summary")
	require.NoError(t, err)
	assert.Equal(t, "first session summary", merged)
	assert.Equal(t, 0, mergeCalls)

	// The second summary is folded in by the model
	merged, err = svc.MergeStudentOverview(ctx, student.ID, "second session summary")
	require.NoError(t, err)
	assert.Equal(t, "merged overview 1", merged)
	assert.Equal(t, 1, mergeCalls)

	// One row per student, updated in place
	var count int64
	require.NoError(t, db.Model(&model.StudentOverview{}).Where("student_id = ?", student.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	overview, err := svc.GetStudentOverview(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "merged overview 1", overview)
}

func TestMergeStudentOverviewPromptCarriesBoth(t *testing.T) {
	db := newTestDB(t)
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	ctx := context.Background()

	var sawPrompt string
	llm := &fakeLanguageModel{
		completion: func(systemPrompt, userPrompt string) (string, error) {
			sawPrompt = userPrompt
			return "merged", nil
		},
	}
	svc := NewSummaryService(db, llm)

	_, err := svc.MergeStudentOverview(ctx, student.ID, "discussed early decision")
	require.NoError(t, err)
	_, err = svc.MergeStudentOverview(ctx, student.ID, "finalized the college list")
	require.NoError(t, err)

	assert.Contains(t, sawPrompt, "discussed early decision")
	assert.Contains(t, sawPrompt, "finalized the college list")
}

func TestSummarizeTranscriptPassesTranscript(t *testing.T) {
	db := newTestDB(t)

	var sawPrompt string
	llm := &fakeLanguageModel{
		completion: func(systemPrompt, userPrompt string) (string, error) {
			sawPrompt = userPrompt
			return "the summary", nil
		},
	}
	svc := NewSummaryService(db, llm)

	transcript := FormatTranscript(sampleTurns())
	summary, err := svc.SummarizeTranscript(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, "the summary", summary)
	assert.Equal(t, transcript, sawPrompt)
}
