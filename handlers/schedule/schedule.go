package schedule

import (
	"errors"
	"strconv"
	"time"

	"github.com/advisorly/api/model"
	"github.com/advisorly/api/services"
	"github.com/advisorly/api/utils/middleware"
	"github.com/advisorly/api/utils/response"
	"github.com/advisorly/api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// ScheduleHandler handles scheduled-session endpoints, including the bot
// lifecycle operations. All routes here are advisor/admin only.
type ScheduleHandler struct {
	service   *services.SchedulerService
	validator *validation.Validator
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(service *services.SchedulerService) *ScheduleHandler {
	return &ScheduleHandler{
		service:   service,
		validator: validation.NewValidator(),
	}
}

// CreateScheduledSessionRequest is the body for scheduling a meeting.
// MeetingCode accepts either a bare Google Meet code or a full meeting URL.
type CreateScheduledSessionRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=255"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	MeetingCode string    `json:"meeting_code" validate:"required"`
	StudentID   *uint     `json:"student_id" validate:"omitempty,min=1"`
}

// ClaimRequest is the body for claiming a calendar-synced session
type ClaimRequest struct {
	StudentID uint `json:"student_id" validate:"required,min=1"`
}

// CreateScheduledSession handles POST /api/v1/scheduled-sessions
func (h *ScheduleHandler) CreateScheduledSession(c *fiber.Ctx) error {
	user, err := requireAdvisor(c)
	if err != nil {
		return err
	}

	var req CreateScheduledSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	code := services.ParseMeetingCode(req.MeetingCode)
	if code == "" {
		return response.BadRequest(c, "Meeting code could not be parsed")
	}

	advisorID := user.ID
	session, err := h.service.CreateScheduledSession(c.Context(), services.CreateScheduledSessionRequest{
		Title:       req.Title,
		ScheduledAt: req.ScheduledAt,
		MeetingCode: code,
		AdvisorID:   &advisorID,
		StudentID:   req.StudentID,
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create scheduled session")
	}
	return response.Created(c, session)
}

// ListScheduledSessions handles GET /api/v1/scheduled-sessions
// Admins see everything; advisors see their own sessions
func (h *ScheduleHandler) ListScheduledSessions(c *fiber.Ctx) error {
	user, err := requireAdvisor(c)
	if err != nil {
		return err
	}

	var advisorFilter *uint
	if !user.IsAdmin() {
		advisorFilter = &user.ID
	}

	sessions, err := h.service.ListScheduledSessions(c.Context(), advisorFilter)
	if err != nil {
		return response.InternalServerError(c, "Failed to list scheduled sessions")
	}
	return response.Success(c, fiber.Map{"scheduled_sessions": sessions})
}

// GetScheduledSession handles GET /api/v1/scheduled-sessions/:id
func (h *ScheduleHandler) GetScheduledSession(c *fiber.Ctx) error {
	if _, err := requireAdvisor(c); err != nil {
		return err
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	session, err := h.service.GetScheduledSession(c.Context(), sessionID)
	if err != nil {
		return h.serviceError(c, err, "Failed to load scheduled session")
	}
	return response.Success(c, session)
}

// DeleteScheduledSession handles DELETE /api/v1/scheduled-sessions/:id
func (h *ScheduleHandler) DeleteScheduledSession(c *fiber.Ctx) error {
	if _, err := requireAdvisor(c); err != nil {
		return err
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	if err := h.service.DeleteScheduledSession(c.Context(), sessionID); err != nil {
		return h.serviceError(c, err, "Failed to delete scheduled session")
	}
	return response.Success(c, fiber.Map{"message": "Scheduled session deleted"})
}

// DispatchBot handles POST /api/v1/scheduled-sessions/:id/dispatch
func (h *ScheduleHandler) DispatchBot(c *fiber.Ctx) error {
	if _, err := requireAdvisor(c); err != nil {
		return err
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	session, err := h.service.DispatchBot(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyDispatched) {
			return response.BadRequest(c, "A bot was already dispatched for this session")
		}
		return h.serviceError(c, err, "Failed to dispatch bot")
	}
	return response.Success(c, session)
}

// SyncCalendars handles POST /api/v1/scheduled-sessions/sync
// Triggers an immediate calendar sweep outside the cron schedule
func (h *ScheduleHandler) SyncCalendars(c *fiber.Ctx) error {
	if _, err := requireAdvisor(c); err != nil {
		return err
	}

	created, err := h.service.SyncCalendars(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Calendar sync failed")
	}
	return response.Success(c, fiber.Map{"created": created})
}

// CompleteSession handles POST /api/v1/scheduled-sessions/:id/complete
// Safe to re-invoke; the capture resumes where it previously stopped
func (h *ScheduleHandler) CompleteSession(c *fiber.Ctx) error {
	if _, err := requireAdvisor(c); err != nil {
		return err
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	session, err := h.service.CompleteScheduledSession(c.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBotNotDone):
			return response.BadRequest(c, "The bot has not finished recording yet")
		case errors.Is(err, services.ErrBotNotDispatched):
			return response.BadRequest(c, "No bot has been dispatched for this session")
		default:
			return h.serviceError(c, err, "Completion capture failed")
		}
	}
	return response.Success(c, session)
}

// ClaimSession handles POST /api/v1/scheduled-sessions/:id/claim
// Attaches a student to a calendar-synced session after the fact
func (h *ScheduleHandler) ClaimSession(c *fiber.Ctx) error {
	user, err := requireAdvisor(c)
	if err != nil {
		return err
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	var req ClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	advisorID := user.ID
	session, err := h.service.ClaimAutoSyncSession(c.Context(), sessionID, req.StudentID, &advisorID)
	if err != nil {
		if errors.Is(err, services.ErrTempTranscriptNotFound) {
			return response.NotFound(c, "No transcript found for this session")
		}
		return h.serviceError(c, err, "Failed to claim session")
	}
	return response.Success(c, session)
}

// RegenerateTranscription handles POST /api/v1/scheduled-sessions/:id/regenerate
func (h *ScheduleHandler) RegenerateTranscription(c *fiber.Ctx) error {
	if _, err := requireAdvisor(c); err != nil {
		return err
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	if err := h.service.RegenerateTranscription(c.Context(), sessionID); err != nil {
		if errors.Is(err, services.ErrBotNotDone) {
			return response.BadRequest(c, "The bot has not finished recording yet")
		}
		if errors.Is(err, services.ErrBotNotDispatched) {
			return response.BadRequest(c, "No bot has been dispatched for this session")
		}
		return h.serviceError(c, err, "Failed to regenerate transcription")
	}
	return response.Success(c, fiber.Map{"message": "Transcription regenerated"})
}

func (h *ScheduleHandler) serviceError(c *fiber.Ctx, err error, fallback string) error {
	if errors.Is(err, services.ErrScheduledSessionNotFound) {
		return response.NotFound(c, "Scheduled session not found")
	}
	return response.InternalServerError(c, fallback)
}

// requireAdvisor rejects students; lifecycle operations are advisor/admin only
func requireAdvisor(c *fiber.Ctx) (*model.User, error) {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return nil, response.Unauthorized(c, "User not authenticated")
	}
	if !user.IsAdvisor() && !user.IsAdmin() {
		return nil, response.Forbidden(c, "Advisor access required")
	}
	return user, nil
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	return uint(id), err
}
