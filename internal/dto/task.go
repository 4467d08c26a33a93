package dto

import (
	"time"

	"github.com/taskforge/task-manager-api/internal/models"
	"github.com/taskforge/task-manager-api/internal/services"
)

// AssigneeDTO is the resolved detail of an assigned user
type AssigneeDTO struct {
	ID              uint64  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	ProfileImageURL *string `json:"profile_image_url"`
}

// ChecklistItemDTO represents a checklist entry in API responses
type ChecklistItemDTO struct {
	ID        uint64 `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID                 uint64              `json:"id"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	Priority           models.TaskPriority `json:"priority"`
	Status             models.TaskStatus   `json:"status"`
	DueDate            *time.Time          `json:"due_date"`
	Progress           int                 `json:"progress"`
	CreatorID          uint64              `json:"creator_id"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	AssignedTo         []AssigneeDTO       `json:"assigned_to"`
	Checklist          []ChecklistItemDTO  `json:"checklist"`
	Attachments        []string            `json:"attachments"`
	CompletedTodoCount int                 `json:"completed_todo_count"`
}

// StatusSummaryDTO is the per-status count block returned with task lists
type StatusSummaryDTO struct {
	All             int64 `json:"all"`
	PendingTasks    int64 `json:"pending_tasks"`
	InProgressTasks int64 `json:"in_progress_tasks"`
	CompletedTasks  int64 `json:"completed_tasks"`
}

// TaskListResponse is the task list plus its status summary
type TaskListResponse struct {
	Tasks         []TaskDTO        `json:"tasks"`
	StatusSummary StatusSummaryDTO `json:"status_summary"`
}

// ToAssigneeDTO converts a User model to AssigneeDTO
func ToAssigneeDTO(user models.User) AssigneeDTO {
	return AssigneeDTO{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		ProfileImageURL: user.ProfileImageURL,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Status:      task.Status,
		DueDate:     task.DueDate,
		Progress:    task.Progress,
		CreatorID:   task.CreatorID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		AssignedTo:  []AssigneeDTO{},
		Checklist:   []ChecklistItemDTO{},
		Attachments: []string{},

		CompletedTodoCount: task.CompletedChecklistCount(),
	}

	for _, assignment := range task.Assignments {
		dto.AssignedTo = append(dto.AssignedTo, ToAssigneeDTO(assignment.User))
	}

	for _, item := range task.Checklist {
		dto.Checklist = append(dto.Checklist, ChecklistItemDTO{
			ID:        item.ID,
			Text:      item.Text,
			Completed: item.Completed,
		})
	}

	for _, attachment := range task.Attachments {
		dto.Attachments = append(dto.Attachments, attachment.URL)
	}

	return dto
}

// ToTaskListResponse converts tasks and their summary to a list response
func ToTaskListResponse(tasks []models.Task, summary services.StatusSummary) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks: items,
		StatusSummary: StatusSummaryDTO{
			All:             summary.All,
			PendingTasks:    summary.Pending,
			InProgressTasks: summary.InProgress,
			CompletedTasks:  summary.Completed,
		},
	}
}
