package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/advisorly/api/model"
	"github.com/advisorly/api/services/digitalocean"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrScheduledSessionNotFound indicates the scheduled session does not exist
	ErrScheduledSessionNotFound = errors.New("scheduled session not found")
	// ErrAlreadyDispatched indicates a bot was already sent to this session
	ErrAlreadyDispatched = errors.New("bot already dispatched for this session")
	// ErrBotNotDispatched indicates no bot has been sent to this session yet
	ErrBotNotDispatched = errors.New("no bot has been dispatched for this session")
	// ErrBotNotDone indicates the bot has not reported a terminal "done" status
	ErrBotNotDone = errors.New("bot has not finished recording")
	// ErrTempTranscriptNotFound indicates no pre-claim transcript exists to move
	ErrTempTranscriptNotFound = errors.New("no transcript found for this session")
)

// SchedulerService coordinates the lifecycle of scheduled meetings: sending
// recording bots, discovering meetings from connected calendars, and turning
// finished recordings into durable sessions with transcripts and summaries.
type SchedulerService struct {
	db            *gorm.DB
	bot           MeetingBotClient
	calendar      CalendarClient
	store         ObjectStore
	summaries     *SummaryService
	notifications *NotificationService
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(db *gorm.DB, bot MeetingBotClient, calendar CalendarClient, store ObjectStore, summaries *SummaryService, notifications *NotificationService) *SchedulerService {
	return &SchedulerService{
		db:            db,
		bot:           bot,
		calendar:      calendar,
		store:         store,
		summaries:     summaries,
		notifications: notifications,
	}
}

// CreateScheduledSessionRequest carries the fields for a manually scheduled
// session
type CreateScheduledSessionRequest struct {
	Title       string
	ScheduledAt time.Time
	MeetingCode string
	AdvisorID   *uint
	StudentID   *uint
}

// CreateScheduledSession records an upcoming meeting
func (s *SchedulerService) CreateScheduledSession(ctx context.Context, req CreateScheduledSessionRequest) (*model.ScheduledSession, error) {
	session := &model.ScheduledSession{
		Title:       req.Title,
		ScheduledAt: req.ScheduledAt,
		MeetingCode: req.MeetingCode,
		AdvisorID:   req.AdvisorID,
		StudentID:   req.StudentID,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create scheduled session: %w", err)
	}
	return session, nil
}

// GetScheduledSession loads one scheduled session with its participants
func (s *SchedulerService) GetScheduledSession(ctx context.Context, sessionID uint) (*model.ScheduledSession, error) {
	var session model.ScheduledSession
	err := s.db.WithContext(ctx).
		Preload("Advisor").
		Preload("Student").
		First(&session, sessionID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrScheduledSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduled session: %w", err)
	}
	return &session, nil
}

// ListScheduledSessions returns scheduled sessions, newest meeting first
func (s *SchedulerService) ListScheduledSessions(ctx context.Context, advisorID *uint) ([]model.ScheduledSession, error) {
	var sessions []model.ScheduledSession
	query := s.db.WithContext(ctx).Order("scheduled_at DESC")
	if advisorID != nil {
		query = query.Where("advisor_id = ?", *advisorID)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list scheduled sessions: %w", err)
	}
	return sessions, nil
}

// DeleteScheduledSession soft-deletes a scheduled session
func (s *SchedulerService) DeleteScheduledSession(ctx context.Context, sessionID uint) error {
	result := s.db.WithContext(ctx).Delete(&model.ScheduledSession{}, sessionID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete scheduled session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrScheduledSessionNotFound
	}
	return nil
}

// DispatchBot sends a recording bot to the session's meeting. The bot id is
// stored exactly once; dispatching an already-dispatched session is an error.
func (s *SchedulerService) DispatchBot(ctx context.Context, sessionID uint) (*model.ScheduledSession, error) {
	session, err := s.GetScheduledSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsDispatched() {
		return nil, ErrAlreadyDispatched
	}

	botID, err := s.bot.SendToMeeting(ctx, session.MeetingURL())
	if err != nil {
		return nil, fmt.Errorf("failed to dispatch bot: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(session).Update("bot_id", botID).Error; err != nil {
		return nil, fmt.Errorf("failed to store bot id: %w", err)
	}
	session.BotID = &botID

	log.Printf("Dispatched bot %s to scheduled session %d", botID, session.ID)
	return session, nil
}

// SyncCalendars discovers upcoming meetings from all connected calendars and
// creates scheduled sessions for them. Events in the past or without a
// parsable meeting code are skipped; events already imported (matched by
// calendar event id) are not duplicated. Newly created sessions get a bot
// dispatched immediately. Returns the number of sessions created.
func (s *SchedulerService) SyncCalendars(ctx context.Context) (int, error) {
	calendarIDs, err := s.calendar.ListConnectedCalendars(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list calendars: %w", err)
	}

	now := time.Now()
	created := 0

	for _, calendarID := range calendarIDs {
		events, err := s.calendar.ListUpcomingEvents(ctx, calendarID)
		if err != nil {
			log.Printf("Calendar sync: failed to list events for calendar %s: %v", calendarID, err)
			continue
		}

		for _, event := range events {
			if !event.StartTime.After(now) {
				continue
			}
			code := ParseMeetingCode(event.MeetingURL)
			if code == "" {
				continue
			}

			var count int64
			err := s.db.WithContext(ctx).Model(&model.ScheduledSession{}).
				Where("calendar_event_id = ?", event.ID).
				Count(&count).Error
			if err != nil {
				return created, fmt.Errorf("failed to check for existing event: %w", err)
			}
			if count > 0 {
				continue
			}

			title := event.Summary
			if title == "" {
				title = "Advising Session"
			}

			meta, _ := json.Marshal(map[string]interface{}{
				"calendar_id": calendarID,
				"summary":     event.Summary,
				"attendees":   event.Attendees,
			})

			eventID := event.ID
			session := &model.ScheduledSession{
				Title:           title,
				ScheduledAt:     event.StartTime,
				MeetingCode:     code,
				CalendarEventID: &eventID,
				CalendarMeta:    datatypes.JSON(meta),
			}
			if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
				return created, fmt.Errorf("failed to create synced session: %w", err)
			}
			created++

			// Auto-join so the recording starts without manual dispatch
			if _, err := s.DispatchBot(ctx, session.ID); err != nil {
				log.Printf("Calendar sync: failed to dispatch bot for session %d: %v", session.ID, err)
			}
		}
	}

	return created, nil
}

// CompleteScheduledSession captures a finished recording into a durable
// Session. It requires the bot to have reported "done"; before that it fails
// without creating anything.
//
// The capture runs as a short saga keyed by the scheduled session id: each
// step checks whether its outcome already exists before doing work, so a
// re-invocation after a partial failure resumes where the previous run
// stopped. The replay download is best-effort and never aborts the capture.
func (s *SchedulerService) CompleteScheduledSession(ctx context.Context, sessionID uint) (*model.Session, error) {
	scheduled, err := s.GetScheduledSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !scheduled.IsDispatched() {
		return nil, ErrBotNotDispatched
	}

	info, err := s.bot.GetMeetingInformation(ctx, *scheduled.BotID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bot information: %w", err)
	}
	if !info.IsDone() {
		return nil, ErrBotNotDone
	}

	// Step 1: the durable session row
	firstCapture := scheduled.CreatedSessionID == nil
	var session model.Session
	if !firstCapture {
		if err := s.db.WithContext(ctx).First(&session, *scheduled.CreatedSessionID).Error; err != nil {
			return nil, fmt.Errorf("failed to load created session: %w", err)
		}
	} else {
		session = model.Session{
			Title:     SessionTitle(scheduled.Title, time.Now()),
			StudentID: scheduled.StudentID,
			AdvisorID: scheduled.AdvisorID,
			BotID:     *scheduled.BotID,
		}
		if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}

		now := time.Now()
		updates := map[string]interface{}{
			"created_session_id": session.ID,
			"done_at":            now,
		}
		if err := s.db.WithContext(ctx).Model(scheduled).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to link created session: %w", err)
		}
		scheduled.CreatedSessionID = &session.ID
		scheduled.DoneAt = &now
	}

	transcriptKey := s.transcriptKeyFor(scheduled, session.ID)

	// Step 2: the transcript artifact
	transcript, err := s.ensureTranscript(ctx, info, transcriptKey)
	if err != nil {
		return nil, err
	}

	// Step 3: summary and the student's running overview
	if session.Summary == "" && transcript != "" {
		summary, err := s.summaries.SummarizeTranscript(ctx, transcript)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize session: %w", err)
		}
		if err := s.db.WithContext(ctx).Model(&session).Update("summary", summary).Error; err != nil {
			return nil, fmt.Errorf("failed to store summary: %w", err)
		}
		session.Summary = summary

		if scheduled.StudentID != nil {
			if _, err := s.summaries.MergeStudentOverview(ctx, *scheduled.StudentID, summary); err != nil {
				return nil, fmt.Errorf("failed to update student overview: %w", err)
			}
		}
	}

	// Step 4: replay video, best-effort and only once participants are known
	if scheduled.StudentID != nil {
		if err := s.fetchReplay(ctx, info, *scheduled.StudentID, session.ID); err != nil {
			log.Printf("Completion capture: replay fetch failed for session %d: %v", session.ID, err)
		}
	}

	// Notify only on the first capture; a resumed run would duplicate it
	if firstCapture && scheduled.StudentID != nil {
		_, err := s.notifications.Create(ctx, *scheduled.StudentID,
			model.NotificationTypeInfo, model.NotificationCategorySession,
			"Session recap ready",
			fmt.Sprintf("The recap for %q is ready to review.", session.Title))
		if err != nil {
			log.Printf("Completion capture: failed to notify student %d: %v", *scheduled.StudentID, err)
		}
	}

	return &session, nil
}

// ClaimAutoSyncSession attaches participants to a calendar-synced session
// after the fact and moves its transcript from the temporary prefix to the
// student's permanent prefix.
func (s *SchedulerService) ClaimAutoSyncSession(ctx context.Context, sessionID uint, studentID uint, advisorID *uint) (*model.Session, error) {
	scheduled, err := s.GetScheduledSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if scheduled.CreatedSessionID == nil {
		return nil, ErrTempTranscriptNotFound
	}

	var session model.Session
	if err := s.db.WithContext(ctx).First(&session, *scheduled.CreatedSessionID).Error; err != nil {
		return nil, fmt.Errorf("failed to load created session: %w", err)
	}

	tempKey := digitalocean.TempTranscriptKey(session.ID)
	transcript, err := s.store.Download(ctx, tempKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download transcript: %w", err)
	}
	if transcript == nil {
		return nil, ErrTempTranscriptNotFound
	}

	permanentKey := digitalocean.TranscriptKey(studentID, session.ID)
	if err := s.store.Upload(ctx, permanentKey, transcript, "text/plain"); err != nil {
		return nil, fmt.Errorf("failed to move transcript: %w", err)
	}
	if err := s.store.Delete(ctx, tempKey); err != nil {
		log.Printf("Claim: failed to delete temp transcript for session %d: %v", session.ID, err)
	}

	updates := map[string]interface{}{"student_id": studentID}
	if advisorID != nil {
		updates["advisor_id"] = *advisorID
	}
	if err := s.db.WithContext(ctx).Model(&session).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to attach participants: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(scheduled).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to attach participants: %w", err)
	}
	session.StudentID = &studentID
	session.AdvisorID = advisorID

	// The overview merge was deferred while the student was unknown
	if session.Summary != "" {
		if _, err := s.summaries.MergeStudentOverview(ctx, studentID, session.Summary); err != nil {
			log.Printf("Claim: failed to update overview for student %d: %v", studentID, err)
		}
	}

	// Replay could not be filed before the student was known
	if scheduled.BotID != nil {
		info, err := s.bot.GetMeetingInformation(ctx, *scheduled.BotID)
		if err == nil {
			if err := s.fetchReplay(ctx, info, studentID, session.ID); err != nil {
				log.Printf("Claim: replay fetch failed for session %d: %v", session.ID, err)
			}
		}
	}

	return &session, nil
}

// RegenerateTranscription re-fetches the transcript from the bot service and
// overwrites the stored artifact. Requires the bot to have finished.
func (s *SchedulerService) RegenerateTranscription(ctx context.Context, sessionID uint) error {
	scheduled, err := s.GetScheduledSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !scheduled.IsDispatched() {
		return ErrBotNotDispatched
	}
	if scheduled.CreatedSessionID == nil {
		return ErrScheduledSessionNotFound
	}

	info, err := s.bot.GetMeetingInformation(ctx, *scheduled.BotID)
	if err != nil {
		return fmt.Errorf("failed to fetch bot information: %w", err)
	}
	if !info.IsDone() {
		return ErrBotNotDone
	}

	downloadURL := info.TranscriptDownloadURL()
	if downloadURL == "" {
		return fmt.Errorf("bot has no transcript artifact")
	}
	turns, err := s.bot.FetchTranscript(ctx, downloadURL)
	if err != nil {
		return fmt.Errorf("failed to fetch transcript: %w", err)
	}

	key := s.transcriptKeyFor(scheduled, *scheduled.CreatedSessionID)
	transcript := FormatTranscript(turns)
	if err := s.store.Upload(ctx, key, []byte(transcript), "text/plain"); err != nil {
		return fmt.Errorf("failed to store transcript: %w", err)
	}
	return nil
}

// PollDispatchedBots checks every dispatched-but-unfinished session and runs
// completion capture for the ones whose bot has finished. Returns the number
// of sessions captured.
func (s *SchedulerService) PollDispatchedBots(ctx context.Context) (int, error) {
	var pending []model.ScheduledSession
	err := s.db.WithContext(ctx).
		Where("bot_id IS NOT NULL AND done_at IS NULL").
		Find(&pending).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list pending sessions: %w", err)
	}

	captured := 0
	for _, scheduled := range pending {
		_, err := s.CompleteScheduledSession(ctx, scheduled.ID)
		if err == ErrBotNotDone {
			continue
		}
		if err != nil {
			log.Printf("Bot poll: completion capture failed for session %d: %v", scheduled.ID, err)
			continue
		}
		captured++
	}
	return captured, nil
}

// transcriptKeyFor picks the storage key for a session's transcript: the
// temporary prefix while the student is unresolved, the permanent per-student
// prefix otherwise.
func (s *SchedulerService) transcriptKeyFor(scheduled *model.ScheduledSession, sessionID uint) string {
	if scheduled.StudentID == nil {
		return digitalocean.TempTranscriptKey(sessionID)
	}
	return digitalocean.TranscriptKey(*scheduled.StudentID, sessionID)
}

// ensureTranscript uploads the rendered transcript if it is not already
// stored, and returns the transcript text either way.
func (s *SchedulerService) ensureTranscript(ctx context.Context, info *MeetingInformation, key string) (string, error) {
	existing, err := s.store.Download(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to check stored transcript: %w", err)
	}
	if existing != nil {
		return string(existing), nil
	}

	downloadURL := info.TranscriptDownloadURL()
	if downloadURL == "" {
		return "", fmt.Errorf("bot has no transcript artifact")
	}
	turns, err := s.bot.FetchTranscript(ctx, downloadURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch transcript: %w", err)
	}

	transcript := FormatTranscript(turns)
	if err := s.store.Upload(ctx, key, []byte(transcript), "text/plain"); err != nil {
		return "", fmt.Errorf("failed to store transcript: %w", err)
	}
	return transcript, nil
}

// fetchReplay downloads the replay video and files it under the student's
// permanent prefix. Skips work when no video exists or it is already stored.
func (s *SchedulerService) fetchReplay(ctx context.Context, info *MeetingInformation, studentID, sessionID uint) error {
	downloadURL := info.VideoDownloadURL()
	if downloadURL == "" {
		return nil
	}

	key := digitalocean.ReplayKey(studentID, sessionID)
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	data, err := s.bot.DownloadMedia(ctx, downloadURL)
	if err != nil {
		return err
	}
	return s.store.Upload(ctx, key, data, "video/mp4")
}

// GetSession loads one durable session
func (s *SchedulerService) GetSession(ctx context.Context, sessionID uint) (*model.Session, error) {
	var session model.Session
	err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Advisor").
		First(&session, sessionID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrScheduledSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// ListSessionsForStudent returns a student's recorded sessions, newest first
func (s *SchedulerService) ListSessionsForStudent(ctx context.Context, studentID uint) ([]model.Session, error) {
	var sessions []model.Session
	err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// TranscriptURL returns a short-lived signed URL for a session's transcript
func (s *SchedulerService) TranscriptURL(ctx context.Context, session *model.Session) (string, error) {
	var key string
	if session.StudentID == nil {
		key = digitalocean.TempTranscriptKey(session.ID)
	} else {
		key = digitalocean.TranscriptKey(*session.StudentID, session.ID)
	}

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to check transcript: %w", err)
	}
	if !exists {
		return "", ErrTempTranscriptNotFound
	}
	return s.store.SignedURL(ctx, key, 15*time.Minute)
}

// DeleteSession soft-deletes a durable session
func (s *SchedulerService) DeleteSession(ctx context.Context, sessionID uint) error {
	result := s.db.WithContext(ctx).Delete(&model.Session{}, sessionID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrScheduledSessionNotFound
	}
	return nil
}
