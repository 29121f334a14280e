package services

import (
	"context"
	"testing"

	"github.com/advisorly/api/model"
	"github.com/advisorly/api/services/digitalocean"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEssayService(db *gorm.DB, store ObjectStore, llm LanguageModel) *EssayService {
	return NewEssayService(db, store, llm, NewNotificationService(db))
}

// seedExtractedEssay plants an essay that already went through upload and
// text extraction
func seedExtractedEssay(t *testing.T, db *gorm.DB, store *memObjectStore, studentID uint) *model.Essay {
	t.Helper()

	essay := &model.Essay{
		StudentID: studentID,
		Title:     "Why This College",
		Prompt:    "Why do you want to attend?",
		Status:    model.EssayStatusExtracted,
		PageCount: 2,
		WordCount: 5,
		Text:      "I want to study marine biology.",
	}
	require.NoError(t, db.Create(essay).Error)

	key := digitalocean.EssayKey(studentID, essay.ID)
	require.NoError(t, db.Model(essay).Update("storage_key", key).Error)
	essay.StorageKey = key
	require.NoError(t, store.Upload(context.Background(), key, []byte("%PDF-1.4 fake"), "application/pdf"))
	return essay
}

func TestUploadEssayRejectsNonPDF(t *testing.T) {
	db := newTestDB(t)
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := newEssayService(db, newMemObjectStore(), &fakeLanguageModel{})

	_, err := svc.UploadEssay(context.Background(), student.ID, "Why This College", "", []byte("just plain text"))
	assert.ErrorIs(t, err, ErrInvalidEssayPDF)

	// Nothing persisted for the rejected upload
	var count int64
	require.NoError(t, db.Model(&model.Essay{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestUploadEssayRejectsEmptyFile(t *testing.T) {
	db := newTestDB(t)
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := newEssayService(db, newMemObjectStore(), &fakeLanguageModel{})

	_, err := svc.UploadEssay(context.Background(), student.ID, "Why This College", "", nil)
	assert.ErrorIs(t, err, ErrInvalidEssayPDF)
}

func TestGetEssayScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	store := newMemObjectStore()
	owner := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	other := createTestUser(t, db, "Liam Park", model.RoleStudent)
	svc := newEssayService(db, store, &fakeLanguageModel{})
	ctx := context.Background()

	essay := seedExtractedEssay(t, db, store, owner.ID)

	loaded, err := svc.GetEssay(ctx, owner.ID, essay.ID)
	require.NoError(t, err)
	assert.Equal(t, essay.ID, loaded.ID)

	_, err = svc.GetEssay(ctx, other.ID, essay.ID)
	assert.ErrorIs(t, err, ErrEssayNotFound)
}

func TestGenerateFeedbackRequiresExtractedText(t *testing.T) {
	db := newTestDB(t)
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := newEssayService(db, newMemObjectStore(), &fakeLanguageModel{})
	ctx := context.Background()

	// Extraction failed earlier, the essay is stuck in "uploaded"
	essay := &model.Essay{
		StudentID: student.ID,
		Title:     "Why This College",
		Status:    model.EssayStatusUploaded,
	}
	require.NoError(t, db.Create(essay).Error)

	_, err := svc.GenerateFeedback(ctx, student.ID, essay.ID)
	assert.ErrorIs(t, err, ErrEssayNotExtracted)
}

func TestGenerateFeedback(t *testing.T) {
	db := newTestDB(t)
	store := newMemObjectStore()
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	ctx := context.Background()

	var sawPrompt string
	llm := &fakeLanguageModel{
		completion: func(systemPrompt, userPrompt string) (string, error) {
			sawPrompt = userPrompt
			return "Strong opening, tighten the conclusion.", nil
		},
	}
	notifications := NewNotificationService(db)
	svc := NewEssayService(db, store, llm, notifications)

	essay := seedExtractedEssay(t, db, store, student.ID)

	reviewed, err := svc.GenerateFeedback(ctx, student.ID, essay.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EssayStatusReviewed, reviewed.Status)
	assert.Equal(t, "Strong opening, tighten the conclusion.", reviewed.Feedback)

	// The review is grounded in both the prompt and the essay text
	assert.Contains(t, sawPrompt, essay.Prompt)
	assert.Contains(t, sawPrompt, essay.Text)

	count, err := notifications.GetUnreadCount(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDownloadURL(t *testing.T) {
	db := newTestDB(t)
	store := newMemObjectStore()
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := newEssayService(db, store, &fakeLanguageModel{})

	essay := seedExtractedEssay(t, db, store, student.ID)

	url, err := svc.DownloadURL(context.Background(), student.ID, essay.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/"+essay.StorageKey, url)
}

func TestDeleteEssayRemovesStoredFile(t *testing.T) {
	db := newTestDB(t)
	store := newMemObjectStore()
	student := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := newEssayService(db, store, &fakeLanguageModel{})
	ctx := context.Background()

	essay := seedExtractedEssay(t, db, store, student.ID)

	require.NoError(t, svc.DeleteEssay(ctx, student.ID, essay.ID))
	assert.Contains(t, store.deleted, essay.StorageKey)

	_, err := svc.GetEssay(ctx, student.ID, essay.ID)
	assert.ErrorIs(t, err, ErrEssayNotFound)
}

func TestListEssaysScopedToStudent(t *testing.T) {
	db := newTestDB(t)
	store := newMemObjectStore()
	owner := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	other := createTestUser(t, db, "Liam Park", model.RoleStudent)
	svc := newEssayService(db, store, &fakeLanguageModel{})
	ctx := context.Background()

	seedExtractedEssay(t, db, store, owner.ID)
	seedExtractedEssay(t, db, store, owner.ID)
	seedExtractedEssay(t, db, store, other.ID)

	essays, err := svc.ListEssays(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, essays, 2)
	for _, essay := range essays {
		assert.Equal(t, owner.ID, essay.StudentID)
	}
}
