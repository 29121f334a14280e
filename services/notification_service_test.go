package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/advisorly/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationLifecycle(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := NewNotificationService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, user.ID, model.NotificationTypeInfo,
		model.NotificationCategorySession, "Session recap ready", "Your recap is ready.")
	require.NoError(t, err)
	assert.False(t, created.Read)

	count, err := svc.GetUnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, svc.MarkAsRead(ctx, created.ID, user.ID))

	count, err = svc.GetUnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, svc.DeleteNotification(ctx, created.ID, user.ID))

	missing, err := svc.GetNotificationByID(ctx, created.ID, user.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNotificationsScopedToUser(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	other := createTestUser(t, db, "Liam Park", model.RoleStudent)
	svc := NewNotificationService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner.ID, model.NotificationTypeSuccess,
		model.NotificationCategoryEssay, "Essay feedback ready", "")
	require.NoError(t, err)

	// Another user cannot read or mutate it
	got, err := svc.GetNotificationByID(ctx, created.ID, other.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Error(t, svc.MarkAsRead(ctx, created.ID, other.ID))
	assert.Error(t, svc.DeleteNotification(ctx, created.ID, other.ID))
}

func TestListNotificationsFilters(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := NewNotificationService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, user.ID, model.NotificationTypeInfo,
		model.NotificationCategorySession, "Session recap ready", "")
	require.NoError(t, err)
	essayNote, err := svc.Create(ctx, user.ID, model.NotificationTypeSuccess,
		model.NotificationCategoryEssay, "Essay feedback ready", "")
	require.NoError(t, err)

	require.NoError(t, svc.MarkAsRead(ctx, essayNote.ID, user.ID))

	all, total, err := svc.GetNotificationsByUser(ctx, ListNotificationsOptions{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	unread, total, err := svc.GetNotificationsByUser(ctx, ListNotificationsOptions{UserID: user.ID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, unread, 1)
	assert.Equal(t, "Session recap ready", unread[0].Title)

	essays, total, err := svc.GetNotificationsByUser(ctx, ListNotificationsOptions{
		UserID:   user.ID,
		Category: string(model.NotificationCategoryEssay),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, essays, 1)
	assert.Equal(t, essayNote.ID, essays[0].ID)
}

func TestMarkAllAsRead(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := NewNotificationService(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, user.ID, model.NotificationTypeInfo,
			model.NotificationCategoryGeneral, "Heads up", "")
		require.NoError(t, err)
	}

	updated, err := svc.MarkAllAsRead(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	count, err := svc.GetUnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCreateWithMetadata(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := NewNotificationService(db)

	created, err := svc.CreateWithMetadata(context.Background(), user.ID,
		model.NotificationTypeInfo, model.NotificationCategorySession,
		"Session recap ready", "", map[string]interface{}{"session_id": 7})
	require.NoError(t, err)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(created.Metadata, &meta))
	assert.Equal(t, float64(7), meta["session_id"])
}

func TestCleanupOldNotifications(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Maya Chen", model.RoleStudent)
	svc := NewNotificationService(db)
	ctx := context.Background()

	oldRead, err := svc.Create(ctx, user.ID, model.NotificationTypeInfo,
		model.NotificationCategoryGeneral, "Old and read", "")
	require.NoError(t, err)
	require.NoError(t, svc.MarkAsRead(ctx, oldRead.ID, user.ID))

	oldUnread, err := svc.Create(ctx, user.ID, model.NotificationTypeInfo,
		model.NotificationCategoryGeneral, "Old but unread", "")
	require.NoError(t, err)

	stale := time.Now().Add(-120 * 24 * time.Hour)
	require.NoError(t, db.Model(&model.UserNotification{}).
		Where("id IN ?", []uint{oldRead.ID, oldUnread.ID}).
		Update("created_at", stale).Error)

	fresh, err := svc.Create(ctx, user.ID, model.NotificationTypeInfo,
		model.NotificationCategoryGeneral, "Fresh", "")
	require.NoError(t, err)
	require.NoError(t, svc.MarkAsRead(ctx, fresh.ID, user.ID))

	deleted, err := svc.CleanupOldNotifications(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Unread notifications survive cleanup regardless of age
	remaining, total, err := svc.GetNotificationsByUser(ctx, ListNotificationsOptions{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, remaining, 2)
}
