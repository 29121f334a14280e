package task

import (
	"strconv"
	"time"

	"github.com/advisorly/api/model"
	"github.com/advisorly/api/utils/middleware"
	"github.com/advisorly/api/utils/response"
	"github.com/advisorly/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TaskHandler handles student task endpoints. Students manage their own
// tasks; advisors can assign tasks to their students.
type TaskHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateTaskRequest represents the request body for creating a task
type CreateTaskRequest struct {
	StudentID uint       `json:"student_id" validate:"omitempty,min=1"` // advisors only
	Title     string     `json:"title" validate:"required,min=1,max=255"`
	Notes     string     `json:"notes" validate:"omitempty,max=2000"`
	Priority  string     `json:"priority" validate:"omitempty,oneof=low normal high"`
	DueAt     *time.Time `json:"due_at"`
}

// UpdateTaskRequest represents the request body for updating a task
type UpdateTaskRequest struct {
	Title    string     `json:"title" validate:"omitempty,min=1,max=255"`
	Notes    *string    `json:"notes" validate:"omitempty,max=2000"`
	Status   string     `json:"status" validate:"omitempty,oneof=pending in_progress done"`
	Priority string     `json:"priority" validate:"omitempty,oneof=low normal high"`
	DueAt    *time.Time `json:"due_at"`
}

// CreateTask handles POST /api/v1/tasks
func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	studentID := user.ID
	if req.StudentID != 0 && req.StudentID != user.ID {
		if !user.IsAdvisor() && !user.IsAdmin() {
			return response.Forbidden(c, "Only advisors can assign tasks to students")
		}
		studentID = req.StudentID
	}

	task := model.Task{
		StudentID:   studentID,
		CreatedByID: user.ID,
		Title:       req.Title,
		Notes:       req.Notes,
		Status:      model.TaskStatusPending,
		Priority:    req.Priority,
		DueAt:       req.DueAt,
	}
	if task.Priority == "" {
		task.Priority = "normal"
	}

	if err := h.db.WithContext(c.Context()).Create(&task).Error; err != nil {
		return response.InternalServerError(c, "Failed to create task")
	}
	return response.Created(c, task)
}

// ListTasks handles GET /api/v1/tasks
// Students get their own tasks; advisors pass ?student_id=
func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
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

	query := h.db.WithContext(c.Context()).Where("student_id = ?", studentID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var tasks []model.Task
	if err := query.Order("due_at ASC NULLS LAST, created_at DESC").Find(&tasks).Error; err != nil {
		return response.InternalServerError(c, "Failed to list tasks")
	}
	return response.Success(c, fiber.Map{"tasks": tasks})
}

// UpdateTask handles PUT /api/v1/tasks/:id
func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	taskID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid task ID")
	}

	task, err := h.loadOwned(c, user, uint(taskID))
	if err != nil {
		return err
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.Priority != "" {
		updates["priority"] = req.Priority
	}
	if req.DueAt != nil {
		updates["due_at"] = req.DueAt
	}
	if req.Status != "" {
		updates["status"] = req.Status
		if req.Status == model.TaskStatusDone {
			now := time.Now()
			updates["completed_at"] = &now
		} else {
			updates["completed_at"] = nil
		}
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(c.Context()).Model(task).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update task")
		}
	}

	if err := h.db.WithContext(c.Context()).First(task, task.ID).Error; err != nil {
		return response.InternalServerError(c, "Failed to reload task")
	}
	return response.Success(c, task)
}

// DeleteTask handles DELETE /api/v1/tasks/:id
func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	taskID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid task ID")
	}

	task, err := h.loadOwned(c, user, uint(taskID))
	if err != nil {
		return err
	}

	if err := h.db.WithContext(c.Context()).Delete(task).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete task")
	}
	return response.Success(c, fiber.Map{"message": "Task deleted"})
}

// loadOwned loads a task and enforces ownership: students can only touch
// their own tasks, advisors/admins any
func (h *TaskHandler) loadOwned(c *fiber.Ctx, user *model.User, taskID uint) (*model.Task, error) {
	var task model.Task
	err := h.db.WithContext(c.Context()).First(&task, taskID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, response.NotFound(c, "Task not found")
	}
	if err != nil {
		return nil, response.InternalServerError(c, "Failed to load task")
	}

	if task.StudentID != user.ID && !user.IsAdvisor() && !user.IsAdmin() {
		return nil, response.Forbidden(c, "You do not have access to this task")
	}
	return &task, nil
}
