package shortlist

import (
	"strconv"

	"github.com/advisorly/api/model"
	"github.com/advisorly/api/utils/middleware"
	"github.com/advisorly/api/utils/response"
	"github.com/advisorly/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ShortlistHandler handles university shortlist endpoints
type ShortlistHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewShortlistHandler creates a new shortlist handler
func NewShortlistHandler(db *gorm.DB) *ShortlistHandler {
	return &ShortlistHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateEntryRequest represents the request body for adding a shortlist entry
type CreateEntryRequest struct {
	University string `json:"university" validate:"required,min=1,max=255"`
	Country    string `json:"country" validate:"omitempty,max=100"`
	Major      string `json:"major" validate:"omitempty,max=255"`
	Notes      string `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateEntryRequest represents the request body for updating a shortlist entry
type UpdateEntryRequest struct {
	University string  `json:"university" validate:"omitempty,min=1,max=255"`
	Country    string  `json:"country" validate:"omitempty,max=100"`
	Major      string  `json:"major" validate:"omitempty,max=255"`
	Status     string  `json:"status" validate:"omitempty,oneof=considering applying applied accepted rejected"`
	Notes      *string `json:"notes" validate:"omitempty,max=2000"`
}

// CreateEntry handles POST /api/v1/shortlist
func (h *ShortlistHandler) CreateEntry(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	entry := model.ShortlistEntry{
		StudentID:  user.ID,
		University: req.University,
		Country:    req.Country,
		Major:      req.Major,
		Status:     model.ShortlistStatusConsidering,
		Notes:      req.Notes,
	}
	if err := h.db.WithContext(c.Context()).Create(&entry).Error; err != nil {
		return response.InternalServerError(c, "Failed to add shortlist entry")
	}
	return response.Created(c, entry)
}

// ListEntries handles GET /api/v1/shortlist
// Students get their own shortlist; advisors pass ?student_id=
func (h *ShortlistHandler) ListEntries(c *fiber.Ctx) error {
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

	var entries []model.ShortlistEntry
	err := h.db.WithContext(c.Context()).
		Where("student_id = ?", studentID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to list shortlist entries")
	}
	return response.Success(c, fiber.Map{"shortlist": entries})
}

// UpdateEntry handles PUT /api/v1/shortlist/:id
func (h *ShortlistHandler) UpdateEntry(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	entry, err := h.loadOwned(c, user.ID)
	if err != nil {
		return err
	}

	var req UpdateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.University != "" {
		updates["university"] = req.University
	}
	if req.Country != "" {
		updates["country"] = req.Country
	}
	if req.Major != "" {
		updates["major"] = req.Major
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(c.Context()).Model(entry).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update shortlist entry")
		}
	}
	return response.Success(c, entry)
}

// DeleteEntry handles DELETE /api/v1/shortlist/:id
func (h *ShortlistHandler) DeleteEntry(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	entry, err := h.loadOwned(c, user.ID)
	if err != nil {
		return err
	}

	if err := h.db.WithContext(c.Context()).Delete(entry).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete shortlist entry")
	}
	return response.Success(c, fiber.Map{"message": "Shortlist entry removed"})
}

func (h *ShortlistHandler) loadOwned(c *fiber.Ctx, studentID uint) (*model.ShortlistEntry, error) {
	entryID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, response.BadRequest(c, "Invalid entry ID")
	}

	var entry model.ShortlistEntry
	dbErr := h.db.WithContext(c.Context()).
		Where("id = ? AND student_id = ?", entryID, studentID).
		First(&entry).Error
	if dbErr == gorm.ErrRecordNotFound {
		return nil, response.NotFound(c, "Shortlist entry not found")
	}
	if dbErr != nil {
		return nil, response.InternalServerError(c, "Failed to load shortlist entry")
	}
	return &entry, nil
}
