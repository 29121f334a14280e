package aptitude

import (
	"errors"
	"strconv"

	"github.com/advisorly/api/services"
	"github.com/advisorly/api/utils/middleware"
	"github.com/advisorly/api/utils/response"
	"github.com/advisorly/api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// AptitudeHandler handles aptitude test session endpoints
type AptitudeHandler struct {
	service   *services.AptitudeService
	validator *validation.Validator
}

// NewAptitudeHandler creates a new aptitude handler
func NewAptitudeHandler(service *services.AptitudeService) *AptitudeHandler {
	return &AptitudeHandler{
		service:   service,
		validator: validation.NewValidator(),
	}
}

// FavoriteSubjectsRequest is the body for the wizard's first step
type FavoriteSubjectsRequest struct {
	Subjects []string `json:"subjects" validate:"required,min=1,dive,min=1,max=100"`
}

// ComfortLevelsRequest is the body for the wizard's second step
type ComfortLevelsRequest struct {
	ComfortLevels map[string]int `json:"comfort_levels" validate:"required,min=1,dive,min=1,max=5"`
}

// AnswersRequest is the body for the questionnaire step. Questions and
// answers are parallel lists in question order.
type AnswersRequest struct {
	Questions []string `json:"questions" validate:"required,min=1,dive,min=1"`
	Answers   []string `json:"answers" validate:"required,min=1,dive,min=1"`
}

// GetQuestions handles GET /api/v1/aptitude/questions
// Returns the static questionnaire so clients never hardcode it
func (h *AptitudeHandler) GetQuestions(c *fiber.Ctx) error {
	questions := make([]fiber.Map, 0, len(services.AptitudeQuestions))
	for _, q := range services.AptitudeQuestions {
		questions = append(questions, fiber.Map{
			"prompt":  q.Prompt,
			"options": q.Options,
		})
	}
	return response.Success(c, fiber.Map{"questions": questions})
}

// CreateSession handles POST /api/v1/aptitude/sessions
func (h *AptitudeHandler) CreateSession(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	if !user.IsStudent() {
		return response.Forbidden(c, "Only students can take the aptitude test")
	}

	session, err := h.service.CreateSession(c.Context(), user.ID)
	if err != nil {
		if errors.Is(err, services.ErrAptitudeQuotaExceeded) {
			return response.BadRequest(c, "You have reached the maximum number of aptitude tests")
		}
		return response.InternalServerError(c, "Failed to create aptitude test session")
	}
	return response.Created(c, session)
}

// ListSessions handles GET /api/v1/aptitude/sessions
// Hidden sessions are excluded
func (h *AptitudeHandler) ListSessions(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	sessions, err := h.service.ListSessions(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list aptitude test sessions")
	}

	canCreate, err := h.service.CanCreateNew(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list aptitude test sessions")
	}

	return response.Success(c, fiber.Map{
		"sessions":       sessions,
		"can_create_new": canCreate,
	})
}

// GetSession handles GET /api/v1/aptitude/sessions/:id
func (h *AptitudeHandler) GetSession(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	session, err := h.service.GetSession(c.Context(), user.ID, sessionID)
	if err != nil {
		if errors.Is(err, services.ErrAptitudeSessionNotFound) {
			return response.NotFound(c, "Aptitude test session not found")
		}
		return response.InternalServerError(c, "Failed to load aptitude test session")
	}
	return response.Success(c, session)
}

// UpdateFavoriteSubjects handles PUT /api/v1/aptitude/sessions/:id/subjects
func (h *AptitudeHandler) UpdateFavoriteSubjects(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	if !user.IsStudent() {
		return response.Forbidden(c, "Only students can take the aptitude test")
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	var req FavoriteSubjectsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	session, err := h.service.UpdateFavoriteSubjects(c.Context(), user.ID, sessionID, req.Subjects)
	if err != nil {
		return h.stepError(c, err)
	}
	return response.Success(c, session)
}

// UpdateComfortLevels handles PUT /api/v1/aptitude/sessions/:id/comfort-levels
func (h *AptitudeHandler) UpdateComfortLevels(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	if !user.IsStudent() {
		return response.Forbidden(c, "Only students can take the aptitude test")
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	var req ComfortLevelsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	session, err := h.service.UpdateComfortLevels(c.Context(), user.ID, sessionID, req.ComfortLevels)
	if err != nil {
		return h.stepError(c, err)
	}
	return response.Success(c, session)
}

// UpdateAnswers handles PUT /api/v1/aptitude/sessions/:id/answers
func (h *AptitudeHandler) UpdateAnswers(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	if !user.IsStudent() {
		return response.Forbidden(c, "Only students can take the aptitude test")
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	var req AnswersRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if len(req.Questions) != len(req.Answers) {
		return response.BadRequest(c, "Questions and answers must have the same length")
	}

	session, err := h.service.UpdateAnswers(c.Context(), user.ID, sessionID, req.Questions, req.Answers)
	if err != nil {
		return h.stepError(c, err)
	}
	return response.Success(c, session)
}

// GenerateRecommendations handles POST /api/v1/aptitude/sessions/:id/generate
func (h *AptitudeHandler) GenerateRecommendations(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	if !user.IsStudent() {
		return response.Forbidden(c, "Only students can take the aptitude test")
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	session, err := h.service.GenerateRecommendations(c.Context(), user.ID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAptitudeSessionNotFound):
			return response.NotFound(c, "Aptitude test session not found")
		case errors.Is(err, services.ErrIncompleteAnswers):
			return response.BadRequest(c, "Answer every question before generating recommendations")
		default:
			return response.InternalServerError(c, "Failed to generate recommendations")
		}
	}
	return response.Success(c, session)
}

// HideSession handles POST /api/v1/aptitude/sessions/:id/hide
// Hidden sessions disappear from listings but still count toward the quota
func (h *AptitudeHandler) HideSession(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	if !user.IsStudent() {
		return response.Forbidden(c, "Only students can take the aptitude test")
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	if err := h.service.HideSession(c.Context(), user.ID, sessionID); err != nil {
		if errors.Is(err, services.ErrAptitudeSessionNotFound) {
			return response.NotFound(c, "Aptitude test session not found")
		}
		return response.InternalServerError(c, "Failed to hide aptitude test session")
	}
	return response.Success(c, fiber.Map{"message": "Session hidden"})
}

func (h *AptitudeHandler) stepError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrAptitudeSessionNotFound):
		return response.NotFound(c, "Aptitude test session not found")
	case errors.Is(err, services.ErrSessionCompleted):
		return response.BadRequest(c, "Completed sessions cannot be modified")
	default:
		return response.InternalServerError(c, "Failed to update aptitude test session")
	}
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	return uint(id), err
}
