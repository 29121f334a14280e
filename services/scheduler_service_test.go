package services

import (
	"context"
	"testing"
	"time"

	"github.com/advisorly/api/model"
	"github.com/advisorly/api/services/digitalocean"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type schedulerFixture struct {
	db            *gorm.DB
	bot           *fakeBotClient
	calendar      *fakeCalendarClient
	store         *memObjectStore
	llm           *fakeLanguageModel
	notifications *NotificationService
	svc           *SchedulerService
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()

	db := newTestDB(t)
	bot := &fakeBotClient{}
	calendar := &fakeCalendarClient{}
	store := newMemObjectStore()
	llm := &fakeLanguageModel{}
	notifications := NewNotificationService(db)

	return &schedulerFixture{
		db:            db,
		bot:           bot,
		calendar:      calendar,
		store:         store,
		llm:           llm,
		notifications: notifications,
		svc:           NewSchedulerService(db, bot, calendar, store, NewSummaryService(db, llm), notifications),
	}
}

func (f *schedulerFixture) createScheduled(t *testing.T, req CreateScheduledSessionRequest) *model.ScheduledSession {
	t.Helper()
	session, err := f.svc.CreateScheduledSession(context.Background(), req)
	require.NoError(t, err)
	return session
}

func TestDispatchBot(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	student := createTestUser(t, f.db, "Maya Chen", model.RoleStudent)

	scheduled := f.createScheduled(t, CreateScheduledSessionRequest{
		Title:       "College Planning",
		ScheduledAt: time.Now().Add(time.Hour),
		MeetingCode: "abc-defg-hij",
		StudentID:   &student.ID,
	})

	dispatched, err := f.svc.DispatchBot(ctx, scheduled.ID)
	require.NoError(t, err)
	require.NotNil(t, dispatched.BotID)
	assert.Equal(t, "bot-1", *dispatched.BotID)
	assert.Equal(t, []string{"https://meet.google.com/abc-defg-hij"}, f.bot.sentURLs)

	// The bot id is written exactly once
	_, err = f.svc.DispatchBot(ctx, scheduled.ID)
	assert.ErrorIs(t, err, ErrAlreadyDispatched)
	assert.Len(t, f.bot.sentURLs, 1)
}

func TestCompleteRequiresDispatch(t *testing.T) {
	f := newSchedulerFixture(t)
	scheduled := f.createScheduled(t, CreateScheduledSessionRequest{
		Title:       "College Planning",
		ScheduledAt: time.Now().Add(time.Hour),
		MeetingCode: "abc-defg-hij",
	})

	_, err := f.svc.CompleteScheduledSession(context.Background(), scheduled.ID)
	assert.ErrorIs(t, err, ErrBotNotDispatched)
}

func TestCompleteBotNotDoneCreatesNothing(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	scheduled := f.createScheduled(t, CreateScheduledSessionRequest{
		Title:       "College Planning",
		ScheduledAt: time.Now().Add(time.Hour),
		MeetingCode: "abc-defg-hij",
	})
	_, err := f.svc.DispatchBot(ctx, scheduled.ID)
	require.NoError(t, err)

	f.bot.info = &MeetingInformation{
		ID:            "bot-1",
		StatusChanges: []BotStatusChange{{Code: "in_call_recording"}},
	}

	_, err = f.svc.CompleteScheduledSession(ctx, scheduled.ID)
	assert.ErrorIs(t, err, ErrBotNotDone)

	var count int64
	require.NoError(t, f.db.Model(&model.Session{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	reloaded, err := f.svc.GetScheduledSession(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.DoneAt)
	assert.Nil(t, reloaded.CreatedSessionID)
}

func TestCompleteScheduledSession(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	student := createTestUser(t, f.db, "Maya Chen", model.RoleStudent)
	advisor := createTestUser(t, f.db, "Dana Whitfield", model.RoleAdvisor)

	scheduledAt := time.Date(2026, time.August, 21, 15, 0, 0, 0, time.UTC)
	scheduled := f.createScheduled(t, CreateScheduledSessionRequest{
		Title:       "College Planning",
		ScheduledAt: scheduledAt,
		MeetingCode: "abc-defg-hij",
		StudentID:   &student.ID,
		AdvisorID:   &advisor.ID,
	})
	_, err := f.svc.DispatchBot(ctx, scheduled.ID)
	require.NoError(t, err)

	f.bot.info = doneInfo(true)
	f.bot.turns = sampleTurns()
	f.bot.media = []byte("video-bytes")

	session, err := f.svc.CompleteScheduledSession(ctx, scheduled.ID)
	require.NoError(t, err)

	// Titled with the capture date, not the (older) scheduled date
	assert.Equal(t, SessionTitle("College Planning", time.Now()), session.Title)
	assert.Equal(t, "bot-1", session.BotID)
	assert.Equal(t, "summary text", session.Summary)
	require.NotNil(t, session.StudentID)
	assert.Equal(t, student.ID, *session.StudentID)

	// The transcript is filed under the student's permanent prefix
	key := digitalocean.TranscriptKey(student.ID, session.ID)
	stored, err := f.store.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, FormatTranscript(sampleTurns()), string(stored))

	// The replay video landed too
	replay, err := f.store.Download(ctx, digitalocean.ReplayKey(student.ID, session.ID))
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(replay))

	// The scheduled row is linked and marked done
	reloaded, err := f.svc.GetScheduledSession(ctx, scheduled.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.CreatedSessionID)
	assert.Equal(t, session.ID, *reloaded.CreatedSessionID)
	assert.NotNil(t, reloaded.DoneAt)

	// Summary feeds the student's running overview
	overview, err := NewSummaryService(f.db, f.llm).GetStudentOverview(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "summary text", overview)

	count, err := f.notifications.GetUnreadCount(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCompleteScheduledSessionIsResumable(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	student := createTestUser(t, f.db, "Maya Chen", model.RoleStudent)

	summaryCalls := 0
	f.llm.completion = func(systemPrompt, userPrompt string) (string, error) {
		summaryCalls++
		return "summary text", nil
	}

	scheduled := f.createScheduled(t, CreateScheduledSessionRequest{
		Title:       "College Planning",
		ScheduledAt: time.Now().Add(time.Hour),
		MeetingCode: "abc-defg-hij",
		StudentID:   &student.ID,
	})
	_, err := f.svc.DispatchBot(ctx, scheduled.ID)
	require.NoError(t, err)

	f.bot.info = doneInfo(false)
	f.bot.turns = sampleTurns()

	first, err := f.svc.CompleteScheduledSession(ctx, scheduled.ID)
	require.NoError(t, err)

	second, err := f.svc.CompleteScheduledSession(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Re-invocation resumes instead of redoing finished steps
	var count int64
	require.NoError(t, f.db.Model(&model.Session{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, summaryCalls)

	// The recap notification is not duplicated either
	unread, err := f.notifications.GetUnreadCount(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestCompleteUnclaimedSessionUsesTempPrefix(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	scheduled := f.createScheduled(t, CreateScheduledSessionRequest{
		Title:       "Advising Session",
		ScheduledAt: time.Now().Add(time.Hour),
		MeetingCode: "abc-defg-hij",
	})
	_, err := f.svc.DispatchBot(ctx, scheduled.ID)
	require.NoError(t, err)

	f.bot.info = doneInfo(false)
	f.bot.turns = sampleTurns()

	session, err := f.svc.CompleteScheduledSession(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Nil(t, session.StudentID)

	exists, err := f.store.Exists(ctx, digitalocean.TempTranscriptKey(session.ID))
	require.NoError(t, err)
	assert.True(t, exists)

	// No student yet, so no overview row
	var overviews int64
	require.NoError(t, f.db.Model(&model.StudentOverview{}).Count(&overviews).Error)
	assert.Equal(t, int64(0), overviews)
}

func TestSyncCalendars(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	future := time.Now().Add(2 * time.Hour)
	f.calendar.calendars = []string{"primary"}
	f.calendar.events = map[string][]CalendarEvent{
		"primary": {
			{ID: "evt-past", Summary: "Old Meeting", MeetingURL: "https://meet.google.com/aaa-bbbb-ccc", StartTime: time.Now().Add(-time.Hour)},
			{ID: "evt-nocode", Summary: "Phone Call", MeetingURL: "tel:+15550100", StartTime: future},
			{ID: "evt-good", Summary: "", MeetingURL: "https://meet.google.com/abc-defg-hij", StartTime: future, Attendees: []string{"maya@example.com"}},
		},
	}

	created, err := f.svc.SyncCalendars(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	sessions, err := f.svc.ListScheduledSessions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	session := sessions[0]
	assert.Equal(t, "Advising Session", session.Title) // untitled events get the default
	assert.Equal(t, "abc-defg-hij", session.MeetingCode)
	require.NotNil(t, session.CalendarEventID)
	assert.Equal(t, "evt-good", *session.CalendarEventID)
	assert.True(t, session.IsCalendarSynced())
	assert.True(t, session.IsDispatched()) // synced sessions auto-dispatch
	assert.Nil(t, session.StudentID)

	// A second pass must not duplicate the imported event
	created, err = f.svc.SyncCalendars(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	sessions, err = f.svc.ListScheduledSessions(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestClaimAutoSyncSession(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	student := createTestUser(t, f.db, "Maya Chen", model.RoleStudent)
	advisor := createTestUser(t, f.db, "Dana Whitfield", model.RoleAdvisor)

	scheduled := f.createScheduled(t, CreateScheduledSessionRequest{
		Title:       "Advising Session",
		ScheduledAt: time.Now().Add(time.Hour),
		MeetingCode: "abc-defg-hij",
	})
	_, err := f.svc.DispatchBot(ctx, scheduled.ID)
	require.NoError(t, err)

	f.bot.info = doneInfo(true)
	f.bot.turns = sampleTurns()
	f.bot.media = []byte("video-bytes")

	unclaimed, err := f.svc.CompleteScheduledSession(ctx, scheduled.ID)
	require.NoError(t, err)

	tempKey := digitalocean.TempTranscriptKey(unclaimed.ID)
	permanentKey := digitalocean.TranscriptKey(student.ID, unclaimed.ID)

	claimed, err := f.svc.ClaimAutoSyncSession(ctx, scheduled.ID, student.ID, &advisor.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.StudentID)
	assert.Equal(t, student.ID, *claimed.StudentID)
	require.NotNil(t, claimed.AdvisorID)
	assert.Equal(t, advisor.ID, *claimed.AdvisorID)

	// The transcript moved from the temp prefix to the student's prefix
	moved, err := f.store.Download(ctx, permanentKey)
	require.NoError(t, err)
	assert.Equal(t, FormatTranscript(sampleTurns()), string(moved))

	gone, err := f.store.Exists(ctx, tempKey)
	require.NoError(t, err)
	assert.False(t, gone)
	assert.Contains(t, f.store.deleted, tempKey)

	// Both rows carry the participants now
	reloaded, err := f.svc.GetScheduledSession(ctx, scheduled.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.StudentID)
	assert.Equal(t, student.ID, *reloaded.StudentID)

	// The deferred overview merge and replay filing ran
	overview, err := NewSummaryService(f.db, f.llm).GetStudentOverview(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "summary text", overview)

	replayExists, err := f.store.Exists(ctx, digitalocean.ReplayKey(student.ID, unclaimed.ID))
	require.NoError(t, err)
	assert.True(t, replayExists)
}

func TestClaimWithoutCapture(t *testing.T) {
	f := newSchedulerFixture(t)
	student := createTestUser(t, f.db, "Maya Chen", model.RoleStudent)

	scheduled := f.createScheduled(t, CreateScheduledSessionRequest{
		Title:       "Advising Session",
		ScheduledAt: time.Now().Add(time.Hour),
		MeetingCode: "abc-defg-hij",
	})

	_, err := f.svc.ClaimAutoSyncSession(context.Background(), scheduled.ID, student.ID, nil)
	assert.ErrorIs(t, err, ErrTempTranscriptNotFound)
}

func TestClaimWithMissingTempTranscript(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	student := createTestUser(t, f.db, "Maya Chen", model.RoleStudent)

	scheduled := f.createScheduled(t, CreateScheduledSessionRequest{
		Title:       "Advising Session",
		ScheduledAt: time.Now().Add(time.Hour),
		MeetingCode: "abc-defg-hij",
	})
	_, err := f.svc.DispatchBot(ctx, scheduled.ID)
	require.NoError(t, err)

	f.bot.info = doneInfo(false)
	f.bot.turns = sampleTurns()

	session, err := f.svc.CompleteScheduledSession(ctx, scheduled.ID)
	require.NoError(t, err)

	require.NoError(t, f.store.Delete(ctx, digitalocean.TempTranscriptKey(session.ID)))

	_, err = f.svc.ClaimAutoSyncSession(ctx, scheduled.ID, student.ID, nil)
	assert.ErrorIs(t, err, ErrTempTranscriptNotFound)
}

func TestPollDispatchedBots(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	student := createTestUser(t, f.db, "Maya Chen", model.RoleStudent)

	first := f.createScheduled(t, CreateScheduledSessionRequest{
		Title:       "Finished Meeting",
		ScheduledAt: time.Now().Add(-time.Hour),
		MeetingCode: "abc-defg-hij",
		StudentID:   &student.ID,
	})
	f.bot.nextBotID = "bot-done"
	_, err := f.svc.DispatchBot(ctx, first.ID)
	require.NoError(t, err)

	second := f.createScheduled(t, CreateScheduledSessionRequest{
		Title:       "Running Meeting",
		ScheduledAt: time.Now().Add(-time.Hour),
		MeetingCode: "xyz-abcd-efg",
		StudentID:   &student.ID,
	})
	f.bot.nextBotID = "bot-running"
	_, err = f.svc.DispatchBot(ctx, second.ID)
	require.NoError(t, err)

	// A session that never got a bot must not be touched
	f.createScheduled(t, CreateScheduledSessionRequest{
		Title:       "Future Meeting",
		ScheduledAt: time.Now().Add(time.Hour),
		MeetingCode: "qrs-tuvw-xyz",
	})

	done := doneInfo(false)
	done.ID = "bot-done"
	f.bot.infoByID = map[string]*MeetingInformation{
		"bot-done": done,
		"bot-running": {
			ID:            "bot-running",
			StatusChanges: []BotStatusChange{{Code: "in_call_recording"}},
		},
	}
	f.bot.turns = sampleTurns()

	captured, err := f.svc.PollDispatchedBots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, captured)

	reloaded, err := f.svc.GetScheduledSession(ctx, first.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.DoneAt)

	stillPending, err := f.svc.GetScheduledSession(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, stillPending.DoneAt)

	// The finished one does not come up again on the next poll
	captured, err = f.svc.PollDispatchedBots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, captured)
}

func TestRegenerateTranscription(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	student := createTestUser(t, f.db, "Maya Chen", model.RoleStudent)

	scheduled := f.createScheduled(t, CreateScheduledSessionRequest{
		Title:       "College Planning",
		ScheduledAt: time.Now().Add(time.Hour),
		MeetingCode: "abc-defg-hij",
		StudentID:   &student.ID,
	})
	_, err := f.svc.DispatchBot(ctx, scheduled.ID)
	require.NoError(t, err)

	f.bot.info = doneInfo(false)
	f.bot.turns = sampleTurns()

	session, err := f.svc.CompleteScheduledSession(ctx, scheduled.ID)
	require.NoError(t, err)

	// The provider fixed the transcript upstream; regeneration overwrites ours
	var corrected SpeakerTurn
	corrected.Participant.Name = "Dana Whitfield"
	corrected.Words = []TranscriptWord{word("Revised", 0), word("transcript", 0.5)}
	f.bot.turns = []SpeakerTurn{corrected}

	require.NoError(t, f.svc.RegenerateTranscription(ctx, scheduled.ID))

	stored, err := f.store.Download(ctx, digitalocean.TranscriptKey(student.ID, session.ID))
	require.NoError(t, err)
	assert.Equal(t, "0:00 - Dana Whitfield\nRevised transcript", string(stored))
}

func TestTranscriptURL(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	student := createTestUser(t, f.db, "Maya Chen", model.RoleStudent)

	session := &model.Session{Title: "College Planning (Aug 21st, 2026)", StudentID: &student.ID}
	require.NoError(t, f.db.Create(session).Error)

	_, err := f.svc.TranscriptURL(ctx, session)
	assert.ErrorIs(t, err, ErrTempTranscriptNotFound)

	key := digitalocean.TranscriptKey(student.ID, session.ID)
	require.NoError(t, f.store.Upload(ctx, key, []byte("transcript"), "text/plain"))

	url, err := f.svc.TranscriptURL(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/"+key, url)
}

func TestDeleteScheduledSessionNotFound(t *testing.T) {
	f := newSchedulerFixture(t)
	err := f.svc.DeleteScheduledSession(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrScheduledSessionNotFound)
}
