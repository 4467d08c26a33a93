package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/taskforge/task-manager-api/internal/constants"
	"github.com/taskforge/task-manager-api/internal/models"
	"github.com/taskforge/task-manager-api/internal/repository"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrTitleRequired     = errors.New("title is required")
	ErrAssigneesRequired = errors.New("assignedTo must be a non-empty array of user IDs")
	ErrInvalidAssignee   = errors.New("one or more assigned users do not exist")
	ErrInvalidStatus     = errors.New("invalid task status")
	ErrInvalidPriority   = errors.New("invalid task priority")
	ErrChecklistItemText = errors.New("each checklist item must have a non-empty text property")
	ErrNotTaskAssignee   = errors.New("not authorized")
)

// taskPreloads loads every relation a full task response needs.
var taskPreloads = []string{"Creator", "Assignments", "Assignments.User", "Checklist", "Attachments"}

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

// ChecklistItemInput is one checklist entry as supplied by a client.
type ChecklistItemInput struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// ComputeProgress returns the completion percentage of a checklist: the
// rounded share of completed items, 0 for an empty checklist.
func ComputeProgress(items []models.ChecklistItem) int {
	if len(items) == 0 {
		return 0
	}

	completed := 0
	for _, item := range items {
		if item.Completed {
			completed++
		}
	}

	return int(math.Round(float64(completed) / float64(len(items)) * 100))
}

// DeriveStatus maps a progress percentage onto the task status space.
func DeriveStatus(progress int) models.TaskStatus {
	switch {
	case progress == 100:
		return models.TaskStatusCompleted
	case progress > 0:
		return models.TaskStatusInProgress
	default:
		return models.TaskStatusPending
	}
}

// StatusSummary holds per-status task counts within a visibility scope.
type StatusSummary struct {
	All        int64
	Pending    int64
	InProgress int64
	Completed  int64
}

// ListTasks returns the tasks visible to the requester, optionally filtered
// by status, together with a status summary over the full visibility scope.
func (s *TaskService) ListTasks(scope repository.TaskScope, status *models.TaskStatus) ([]models.Task, StatusSummary, error) {
	if status != nil {
		if err := validateStatus(*status); err != nil {
			return nil, StatusSummary{}, err
		}
	}

	tasks, err := s.taskRepo.List(repository.TaskFilter{Scope: scope, Status: status})
	if err != nil {
		return nil, StatusSummary{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	// The summary ignores the status filter: it always reflects the whole
	// visibility scope
	counts, err := s.taskRepo.CountByStatus(scope)
	if err != nil {
		return nil, StatusSummary{}, fmt.Errorf("failed to count tasks: %w", err)
	}

	summary := StatusSummary{
		Pending:    counts[models.TaskStatusPending],
		InProgress: counts[models.TaskStatusInProgress],
		Completed:  counts[models.TaskStatusCompleted],
	}
	summary.All = summary.Pending + summary.InProgress + summary.Completed

	return tasks, summary, nil
}

// GetTask returns a task with assignees, checklist and attachments resolved.
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	Status      models.TaskStatus
	DueDate     *time.Time
	AssignedTo  []uint64
	Checklist   []ChecklistItemInput
	Attachments []string
	CreatorID   uint64
}

// CreateTask creates a new task. Progress is derived from the supplied
// checklist; status falls back to the derived one when not supplied.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if len(input.AssignedTo) == 0 {
		return nil, ErrAssigneesRequired
	}

	checklist, err := buildChecklist(input.Checklist)
	if err != nil {
		return nil, err
	}

	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	} else if err := validatePriority(input.Priority); err != nil {
		return nil, err
	}

	progress := ComputeProgress(checklist)
	status := input.Status
	if status == "" {
		status = DeriveStatus(progress)
	} else if err := validateStatus(status); err != nil {
		return nil, err
	}

	assigneeIDs := uniqueUint64(input.AssignedTo)
	if err := s.verifyAssignees(assigneeIDs); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      status,
		DueDate:     input.DueDate,
		Progress:    progress,
		CreatorID:   input.CreatorID,
		Checklist:   checklist,
	}

	for _, userID := range assigneeIDs {
		task.Assignments = append(task.Assignments, models.TaskAssignment{UserID: userID})
	}
	for _, url := range input.Attachments {
		task.Attachments = append(task.Attachments, models.Attachment{URL: url})
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// UpdateTaskInput represents a partial task update. Nil fields are left
// unchanged; a non-nil pointer to a zero value overwrites.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	AssignedTo   *[]uint64
	Checklist    *[]ChecklistItemInput
	Attachments  *[]string
}

// UpdateTask applies a partial update. Supplying a checklist replaces it and
// re-derives progress and status.
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	// Validate everything before the first write so a rejected update leaves
	// the task untouched
	var checklist []models.ChecklistItem
	if input.Checklist != nil {
		checklist, err = buildChecklist(*input.Checklist)
		if err != nil {
			return nil, err
		}
	}

	var assigneeIDs []uint64
	if input.AssignedTo != nil {
		if len(*input.AssignedTo) == 0 {
			return nil, ErrAssigneesRequired
		}
		assigneeIDs = uniqueUint64(*input.AssignedTo)
		if err := s.verifyAssignees(assigneeIDs); err != nil {
			return nil, err
		}
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleRequired
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		if err := validatePriority(*input.Priority); err != nil {
			return nil, err
		}
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if input.Checklist != nil {
		if err := s.taskRepo.ReplaceChecklist(task.ID, checklist); err != nil {
			return nil, fmt.Errorf("failed to replace checklist: %w", err)
		}
		task.Progress = ComputeProgress(checklist)
		task.Status = DeriveStatus(task.Progress)
	}

	if input.Attachments != nil {
		if err := s.taskRepo.ReplaceAttachments(task.ID, *input.Attachments); err != nil {
			return nil, fmt.Errorf("failed to replace attachments: %w", err)
		}
	}

	if input.AssignedTo != nil {
		if err := s.taskRepo.ReplaceAssignments(task.ID, assigneeIDs); err != nil {
			return nil, fmt.Errorf("failed to replace assignments: %w", err)
		}
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// DeleteTask permanently removes a task
func (s *TaskService) DeleteTask(taskID uint64) error {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// UpdateStatus sets the task status directly. Only assignees and admins may
// do this. Moving to Completed forces the checklist to fully completed.
func (s *TaskService) UpdateStatus(taskID, requesterID uint64, requesterRole models.UserRole, status models.TaskStatus) (*models.Task, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.FindByID(taskID, "Assignments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if requesterRole != models.RoleAdmin && !task.IsAssignee(requesterID) {
		return nil, ErrNotTaskAssignee
	}

	task.Status = status
	if status == models.TaskStatusCompleted {
		if err := s.taskRepo.SetAllChecklistCompleted(task.ID); err != nil {
			return nil, fmt.Errorf("failed to complete checklist: %w", err)
		}
		task.Progress = 100
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// UpdateChecklist replaces the checklist wholesale and re-derives progress
// and status. Only assignees and admins may do this.
func (s *TaskService) UpdateChecklist(taskID, requesterID uint64, requesterRole models.UserRole, items []ChecklistItemInput) (*models.Task, error) {
	checklist, err := buildChecklist(items)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.FindByID(taskID, "Assignments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if requesterRole != models.RoleAdmin && !task.IsAssignee(requesterID) {
		return nil, ErrNotTaskAssignee
	}

	if err := s.taskRepo.ReplaceChecklist(task.ID, checklist); err != nil {
		return nil, fmt.Errorf("failed to replace checklist: %w", err)
	}

	task.Progress = ComputeProgress(checklist)
	task.Status = DeriveStatus(task.Progress)

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// DashboardStatistics holds the headline dashboard counters.
type DashboardStatistics struct {
	TotalTasks     int64
	PendingTasks   int64
	CompletedTasks int64
	OverdueTasks   int64
}

// DashboardData aggregates task statistics within a visibility scope.
type DashboardData struct {
	Statistics       DashboardStatistics
	TaskDistribution map[string]int64
	PriorityLevels   map[string]int64
	RecentTasks      []models.Task
}

// Dashboard computes the aggregate statistics for the given scope: the global
// dashboard passes repository.Global(), the per-user one
// repository.AssignedOnly(userID).
func (s *TaskService) Dashboard(scope repository.TaskScope) (*DashboardData, error) {
	statusCounts, err := s.taskRepo.CountByStatus(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to count task statuses: %w", err)
	}

	priorityCounts, err := s.taskRepo.CountByPriority(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to count task priorities: %w", err)
	}

	overdue, err := s.taskRepo.CountOverdue(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %w", err)
	}

	recent, err := s.taskRepo.Recent(scope, constants.RecentTasksLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent tasks: %w", err)
	}

	total := statusCounts[models.TaskStatusPending] +
		statusCounts[models.TaskStatusInProgress] +
		statusCounts[models.TaskStatusCompleted]

	// Chart keys carry no spaces ("InProgress"), matching the consumers
	distribution := map[string]int64{
		"Pending":    statusCounts[models.TaskStatusPending],
		"InProgress": statusCounts[models.TaskStatusInProgress],
		"Completed":  statusCounts[models.TaskStatusCompleted],
		"All":        total,
	}

	priorities := map[string]int64{
		"Low":    priorityCounts[models.TaskPriorityLow],
		"Medium": priorityCounts[models.TaskPriorityMedium],
		"High":   priorityCounts[models.TaskPriorityHigh],
	}

	return &DashboardData{
		Statistics: DashboardStatistics{
			TotalTasks:     total,
			PendingTasks:   statusCounts[models.TaskStatusPending],
			CompletedTasks: statusCounts[models.TaskStatusCompleted],
			OverdueTasks:   overdue,
		},
		TaskDistribution: distribution,
		PriorityLevels:   priorities,
		RecentTasks:      recent,
	}, nil
}

// verifyAssignees ensures every referenced user exists
func (s *TaskService) verifyAssignees(userIDs []uint64) error {
	count, err := s.taskRepo.CountUsersByIDs(userIDs)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(userIDs) {
		return ErrInvalidAssignee
	}
	return nil
}

// buildChecklist validates checklist input and converts it to model rows
func buildChecklist(items []ChecklistItemInput) ([]models.ChecklistItem, error) {
	checklist := make([]models.ChecklistItem, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			return nil, ErrChecklistItemText
		}
		checklist[i] = models.ChecklistItem{
			Position:  i,
			Text:      item.Text,
			Completed: item.Completed,
		}
	}
	return checklist, nil
}

func validateStatus(status models.TaskStatus) error {
	switch status {
	case models.TaskStatusPending, models.TaskStatusInProgress, models.TaskStatusCompleted:
		return nil
	default:
		return ErrInvalidStatus
	}
}

func validatePriority(priority models.TaskPriority) error {
	switch priority {
	case models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh:
		return nil
	default:
		return ErrInvalidPriority
	}
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
