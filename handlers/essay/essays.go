package essay

import (
	"errors"
	"io"
	"strconv"

	"github.com/advisorly/api/services"
	"github.com/advisorly/api/utils/middleware"
	"github.com/advisorly/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// EssayHandler handles essay upload and feedback endpoints
type EssayHandler struct {
	service *services.EssayService
}

// NewEssayHandler creates a new essay handler
func NewEssayHandler(service *services.EssayService) *EssayHandler {
	return &EssayHandler{service: service}
}

// UploadEssay handles POST /api/v1/essays (multipart form)
// Expects a "file" PDF plus "title" and optional "prompt" fields
func (h *EssayHandler) UploadEssay(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	if !user.IsStudent() {
		return response.Forbidden(c, "Only students can upload essays")
	}

	title := c.FormValue("title")
	if title == "" {
		return response.BadRequest(c, "Title is required")
	}
	prompt := c.FormValue("prompt")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "No file uploaded")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read uploaded file")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return response.InternalServerError(c, "Failed to read uploaded file")
	}

	essay, err := h.service.UploadEssay(c.Context(), user.ID, title, prompt, content)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEssayPDF) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to upload essay")
	}
	return response.Created(c, essay)
}

// ListEssays handles GET /api/v1/essays
// Students get their own essays; advisors pass ?student_id=
func (h *EssayHandler) ListEssays(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	studentID := user.ID
	if (user.IsAdvisor() || user.IsAdmin()) && c.Query("student_id") != "" {
		requested, err := strconv.ParseUint(c.Query("student_id"), 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid student_id")
		}
		studentID = uint(requested)
	}

	essays, err := h.service.ListEssays(c.Context(), studentID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list essays")
	}
	return response.Success(c, fiber.Map{"essays": essays})
}

// GetEssay handles GET /api/v1/essays/:id
func (h *EssayHandler) GetEssay(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	essayID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid essay ID")
	}

	essay, err := h.service.GetEssay(c.Context(), user.ID, uint(essayID))
	if err != nil {
		if errors.Is(err, services.ErrEssayNotFound) {
			return response.NotFound(c, "Essay not found")
		}
		return response.InternalServerError(c, "Failed to load essay")
	}
	return response.Success(c, essay)
}

// GenerateFeedback handles POST /api/v1/essays/:id/feedback
func (h *EssayHandler) GenerateFeedback(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	essayID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid essay ID")
	}

	essay, err := h.service.GenerateFeedback(c.Context(), user.ID, uint(essayID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEssayNotFound):
			return response.NotFound(c, "Essay not found")
		case errors.Is(err, services.ErrEssayNotExtracted):
			return response.BadRequest(c, "Essay text is not available for feedback")
		default:
			return response.InternalServerError(c, "Failed to generate feedback")
		}
	}
	return response.Success(c, essay)
}

// GetDownloadURL handles GET /api/v1/essays/:id/download
// Returns a short-lived signed URL for the original PDF
func (h *EssayHandler) GetDownloadURL(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	essayID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid essay ID")
	}

	url, err := h.service.DownloadURL(c.Context(), user.ID, uint(essayID))
	if err != nil {
		if errors.Is(err, services.ErrEssayNotFound) {
			return response.NotFound(c, "Essay not found")
		}
		return response.InternalServerError(c, "Failed to generate download URL")
	}
	return response.Success(c, fiber.Map{"url": url})
}

// DeleteEssay handles DELETE /api/v1/essays/:id
func (h *EssayHandler) DeleteEssay(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	essayID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid essay ID")
	}

	if err := h.service.DeleteEssay(c.Context(), user.ID, uint(essayID)); err != nil {
		if errors.Is(err, services.ErrEssayNotFound) {
			return response.NotFound(c, "Essay not found")
		}
		return response.InternalServerError(c, "Failed to delete essay")
	}
	return response.Success(c, fiber.Map{"message": "Essay deleted"})
}
