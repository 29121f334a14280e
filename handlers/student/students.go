package student

import (
	"strconv"

	"github.com/advisorly/api/model"
	"github.com/advisorly/api/services"
	"github.com/advisorly/api/utils/middleware"
	"github.com/advisorly/api/utils/response"
	"github.com/advisorly/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StudentHandler handles the advisor-facing student roster and the
// per-student running overview
type StudentHandler struct {
	db        *gorm.DB
	summaries *services.SummaryService
	validator *validation.Validator
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(db *gorm.DB, summaries *services.SummaryService) *StudentHandler {
	return &StudentHandler{
		db:        db,
		summaries: summaries,
		validator: validation.NewValidator(),
	}
}

// AssignAdvisorRequest represents the request body for assigning an advisor
type AssignAdvisorRequest struct {
	AdvisorID uint `json:"advisor_id" validate:"required,min=1"`
}

// ListStudents handles GET /api/v1/students
// Advisors see their assigned students; admins see all students
func (h *StudentHandler) ListStudents(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	if !user.IsAdvisor() && !user.IsAdmin() {
		return response.Forbidden(c, "Advisor access required")
	}

	query := h.db.WithContext(c.Context()).Where("role = ?", model.RoleStudent)
	if user.IsAdvisor() {
		query = query.Where("advisor_id = ?", user.ID)
	}

	var students []model.User
	if err := query.Order("name ASC").Find(&students).Error; err != nil {
		return response.InternalServerError(c, "Failed to list students")
	}
	return response.Success(c, fiber.Map{"students": students})
}

// GetStudentOverview handles GET /api/v1/students/:id/overview
// Returns the running narrative folded together from session summaries
func (h *StudentHandler) GetStudentOverview(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	studentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	if user.IsStudent() && user.ID != uint(studentID) {
		return response.Forbidden(c, "You do not have access to this overview")
	}

	overview, err := h.summaries.GetStudentOverview(c.Context(), uint(studentID))
	if err != nil {
		return response.InternalServerError(c, "Failed to load student overview")
	}
	return response.Success(c, fiber.Map{
		"student_id": studentID,
		"overview":   overview,
	})
}

// AssignAdvisor handles PUT /api/v1/students/:id/advisor (admin only)
func (h *StudentHandler) AssignAdvisor(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	if !user.IsAdmin() {
		return response.Forbidden(c, "Admin access required")
	}

	studentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	var req AssignAdvisorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var advisor model.User
	err = h.db.WithContext(c.Context()).
		Where("id = ? AND role = ?", req.AdvisorID, model.RoleAdvisor).
		First(&advisor).Error
	if err == gorm.ErrRecordNotFound {
		return response.NotFound(c, "Advisor not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to look up advisor")
	}

	result := h.db.WithContext(c.Context()).Model(&model.User{}).
		Where("id = ? AND role = ?", studentID, model.RoleStudent).
		Update("advisor_id", req.AdvisorID)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to assign advisor")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Student not found")
	}

	return response.Success(c, fiber.Map{"message": "Advisor assigned"})
}
