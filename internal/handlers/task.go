package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskforge/task-manager-api/internal/dto"
	apierrors "github.com/taskforge/task-manager-api/internal/errors"
	"github.com/taskforge/task-manager-api/internal/middleware"
	"github.com/taskforge/task-manager-api/internal/models"
	"github.com/taskforge/task-manager-api/internal/repository"
	"github.com/taskforge/task-manager-api/internal/services"
)

// TaskHandler coordinates task-related HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// requesterScope resolves the visibility scope of the current request.
func requesterScope(c *gin.Context) (repository.TaskScope, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		return repository.TaskScope{}, false
	}
	role, exists := middleware.GetUserRole(c)
	if !exists {
		return repository.TaskScope{}, false
	}
	return repository.TaskScope{UserID: userID, Role: role}, true
}

// taskIDParam parses the :id path parameter.
func taskIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return 0, false
	}
	return id, true
}

// ListTasks returns the tasks visible to the requester with a status summary.
// Admins see everything, members only tasks assigned to them.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	scope, ok := requesterScope(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var status *models.TaskStatus
	if raw := c.Query("status"); raw != "" && raw != "all" {
		s := models.TaskStatus(raw)
		status = &s
	}

	tasks, summary, err := h.taskService.ListTasks(scope, status)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, summary))
}

// GetTask returns a single task with assignee details resolved.
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task. Admin only (enforced by route middleware).
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title       string                        `json:"title" binding:"required"`
		Description string                        `json:"description"`
		Priority    models.TaskPriority           `json:"priority"`
		Status      models.TaskStatus             `json:"status"`
		DueDate     *time.Time                    `json:"due_date"`
		AssignedTo  []uint64                      `json:"assigned_to"`
		Checklist   []services.ChecklistItemInput `json:"checklist"`
		Attachments []string                      `json:"attachments"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
		Checklist:   req.Checklist,
		Attachments: req.Attachments,
		CreatorID:   userID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update. Absent fields are left unchanged; a
// field set to its zero value overwrites.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title       *string                        `json:"title"`
		Description *string                        `json:"description"`
		Priority    *models.TaskPriority           `json:"priority"`
		DueDate     *time.Time                     `json:"due_date"`
		AssignedTo  *[]uint64                      `json:"assigned_to"`
		Checklist   *[]services.ChecklistItemInput `json:"checklist"`
		Attachments *[]string                      `json:"attachments"`
	}

	// Raw pass to distinguish "due_date": null (clear) from an absent key
	var raw map[string]any
	if err := c.ShouldBindBodyWithJSON(&raw); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	clearDueDate := false
	if v, present := raw["due_date"]; present && v == nil {
		clearDueDate = true
	}

	task, err := h.taskService.UpdateTask(taskID, services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		ClearDueDate: clearDueDate,
		AssignedTo:   req.AssignedTo,
		Checklist:    req.Checklist,
		Attachments:  req.Attachments,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask permanently removes a task. Admin only (enforced by route middleware).
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// UpdateTaskStatus sets the status directly. Assignees and admins only.
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	scope, ok := requesterScope(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateStatusRequest struct {
		Status models.TaskStatus `json:"status" binding:"required"`
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	task, err := h.taskService.UpdateStatus(taskID, scope.UserID, scope.Role, req.Status)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTaskChecklist replaces the checklist wholesale. Assignees and admins only.
func (h *TaskHandler) UpdateTaskChecklist(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	scope, ok := requesterScope(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateChecklistRequest struct {
		Checklist *[]services.ChecklistItemInput `json:"checklist"`
	}

	var req UpdateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Checklist == nil {
		apierrors.BadRequest(c, "checklist must be an array")
		return
	}

	task, err := h.taskService.UpdateChecklist(taskID, scope.UserID, scope.Role, *req.Checklist)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// GetDashboardData returns aggregate statistics over all tasks.
func (h *TaskHandler) GetDashboardData(c *gin.Context) {
	if _, exists := middleware.GetUserID(c); !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	data, err := h.taskService.Dashboard(repository.Global())
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDashboardResponse(data))
}

// GetUserDashboardData returns aggregate statistics over the requester's
// assigned tasks.
func (h *TaskHandler) GetUserDashboardData(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	data, err := h.taskService.Dashboard(repository.AssignedOnly(userID))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDashboardResponse(data))
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotTaskAssignee):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrAssigneesRequired),
		errors.Is(err, services.ErrInvalidAssignee),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrChecklistItemText):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
