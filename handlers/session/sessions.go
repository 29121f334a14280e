package session

import (
	"errors"
	"strconv"

	"github.com/advisorly/api/services"
	"github.com/advisorly/api/utils/middleware"
	"github.com/advisorly/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// SessionHandler handles durable session endpoints. Students see their own
// sessions; advisors and admins can browse any student's.
type SessionHandler struct {
	service *services.SchedulerService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service *services.SchedulerService) *SessionHandler {
	return &SessionHandler{service: service}
}

// ListSessions handles GET /api/v1/sessions
// Students get their own sessions; advisors pass ?student_id=
func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	studentID := user.ID
	if user.IsAdvisor() || user.IsAdmin() {
		requested, err := strconv.ParseUint(c.Query("student_id", "0"), 10, 32)
		if err != nil || requested == 0 {
			return response.BadRequest(c, "student_id query parameter is required")
		}
		studentID = uint(requested)
	}

	sessions, err := h.service.ListSessionsForStudent(c.Context(), studentID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list sessions")
	}
	return response.Success(c, fiber.Map{"sessions": sessions})
}

// GetSession handles GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	sessionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	session, err := h.service.GetSession(c.Context(), uint(sessionID))
	if err != nil {
		if errors.Is(err, services.ErrScheduledSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to load session")
	}

	if !h.canAccess(c, session.StudentID) {
		return response.Forbidden(c, "You do not have access to this session")
	}
	return response.Success(c, session)
}

// GetTranscriptURL handles GET /api/v1/sessions/:id/transcript
// Returns a short-lived signed URL rather than streaming the transcript
func (h *SessionHandler) GetTranscriptURL(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	sessionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	session, err := h.service.GetSession(c.Context(), uint(sessionID))
	if err != nil {
		if errors.Is(err, services.ErrScheduledSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to load session")
	}

	if !h.canAccess(c, session.StudentID) {
		return response.Forbidden(c, "You do not have access to this session")
	}

	url, err := h.service.TranscriptURL(c.Context(), session)
	if err != nil {
		if errors.Is(err, services.ErrTempTranscriptNotFound) {
			return response.NotFound(c, "No transcript available for this session")
		}
		return response.InternalServerError(c, "Failed to generate transcript URL")
	}
	return response.Success(c, fiber.Map{"url": url})
}

// DeleteSession handles DELETE /api/v1/sessions/:id (advisor/admin only)
func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	if !user.IsAdvisor() && !user.IsAdmin() {
		return response.Forbidden(c, "Advisor access required")
	}

	sessionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	if err := h.service.DeleteSession(c.Context(), uint(sessionID)); err != nil {
		if errors.Is(err, services.ErrScheduledSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to delete session")
	}
	return response.Success(c, fiber.Map{"message": "Session deleted"})
}

// canAccess allows advisors/admins, and students for their own sessions
func (h *SessionHandler) canAccess(c *fiber.Ctx, studentID *uint) bool {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return false
	}
	if user.IsAdvisor() || user.IsAdmin() {
		return true
	}
	return studentID != nil && *studentID == user.ID
}
