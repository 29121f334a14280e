package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/advisorly/api/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// In-memory sqlite is per-connection, so keep the pool at one
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.User{},
		&model.AptitudeTestSession{},
		&model.ScheduledSession{},
		&model.Session{},
		&model.StudentOverview{},
		&model.Essay{},
		&model.UserNotification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name, role string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        fmt.Sprintf("%s-%d@example.com", role, time.Now().UnixNano()),
		PasswordHash: "x",
		Name:         name,
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// fakeLanguageModel satisfies LanguageModel with canned behavior
type fakeLanguageModel struct {
	completion func(systemPrompt, userPrompt string) (string, error)
	structured func(target interface{}) error
}

func (f *fakeLanguageModel) Completion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if f.completion == nil {
		return "summary text", nil
	}
	return f.completion(systemPrompt, userPrompt)
}

func (f *fakeLanguageModel) StructuredCompletion(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema map[string]interface{}, target interface{}) error {
	if f.structured == nil {
		return nil
	}
	return f.structured(target)
}

// memObjectStore is an in-memory ObjectStore
type memObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (m *memObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *memObjectStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memObjectStore) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://cdn.test/" + key, nil
}

// fakeBotClient satisfies MeetingBotClient
type fakeBotClient struct {
	mu            sync.Mutex
	nextBotID     string
	sentURLs      []string
	info          *MeetingInformation
	infoByID      map[string]*MeetingInformation
	infoErr       error
	turns         []SpeakerTurn
	transcriptErr error
	media         []byte
}

func (f *fakeBotClient) SendToMeeting(ctx context.Context, meetingURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentURLs = append(f.sentURLs, meetingURL)
	if f.nextBotID == "" {
		f.nextBotID = "bot-1"
	}
	return f.nextBotID, nil
}

func (f *fakeBotClient) GetMeetingInformation(ctx context.Context, botID string) (*MeetingInformation, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	if f.infoByID != nil {
		if info, ok := f.infoByID[botID]; ok {
			return info, nil
		}
	}
	return f.info, nil
}

func (f *fakeBotClient) FetchTranscript(ctx context.Context, downloadURL string) ([]SpeakerTurn, error) {
	if f.transcriptErr != nil {
		return nil, f.transcriptErr
	}
	return f.turns, nil
}

func (f *fakeBotClient) DownloadMedia(ctx context.Context, downloadURL string) ([]byte, error) {
	return f.media, nil
}

// fakeCalendarClient satisfies CalendarClient
type fakeCalendarClient struct {
	calendars []string
	events    map[string][]CalendarEvent
}

func (f *fakeCalendarClient) ListConnectedCalendars(ctx context.Context) ([]string, error) {
	return f.calendars, nil
}

func (f *fakeCalendarClient) ListUpcomingEvents(ctx context.Context, calendarID string) ([]CalendarEvent, error) {
	return f.events[calendarID], nil
}

// doneInfo builds meeting information for a finished bot with transcript and
// optional video artifacts
func doneInfo(withVideo bool) *MeetingInformation {
	info := &MeetingInformation{
		ID: "bot-1",
		StatusChanges: []BotStatusChange{
			{Code: "joining_call"},
			{Code: "in_call_recording"},
			{Code: BotStatusDone},
		},
	}
	rec := BotRecording{ID: "rec-1"}
	rec.MediaShortcuts.Transcript = &MediaArtifact{}
	rec.MediaShortcuts.Transcript.Data.DownloadURL = "https://bot.test/transcript.json"
	if withVideo {
		rec.MediaShortcuts.VideoMixed = &MediaArtifact{}
		rec.MediaShortcuts.VideoMixed.Data.DownloadURL = "https://bot.test/video.mp4"
	}
	info.Recordings = []BotRecording{rec}
	return info
}

// sampleTurns builds a two-speaker transcript
func sampleTurns() []SpeakerTurn {
	var advisor SpeakerTurn
	advisor.Participant.Name = "Dana Whitfield"
	advisor.Words = []TranscriptWord{word("Let's", 0), word("review", 0.4), word("your", 0.8), word("list", 1.2)}

	var student SpeakerTurn
	student.Participant.Name = "Maya Chen"
	student.Words = []TranscriptWord{word("Sounds", 125.4), word("good", 126.1)}

	return []SpeakerTurn{advisor, student}
}

func word(text string, at float64) TranscriptWord {
	var w TranscriptWord
	w.Text = text
	w.StartTimestamp.Relative = at
	return w
}
