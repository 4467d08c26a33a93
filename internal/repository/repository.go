package repository

import (
	"github.com/taskforge/task-manager-api/internal/models"
)

// TaskScope narrows task queries to what a requester may see. Admins see all
// tasks, members only those they are assigned to.
type TaskScope struct {
	UserID uint64
	Role   models.UserRole
}

// AssignedOnly returns a scope limited to tasks assigned to the user
// regardless of their role. Used by the per-user dashboard.
func AssignedOnly(userID uint64) TaskScope {
	return TaskScope{UserID: userID, Role: models.RoleMember}
}

// Global returns a scope covering every task.
func Global() TaskScope {
	return TaskScope{Role: models.RoleAdmin}
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Scope  TaskScope
	Status *models.TaskStatus
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task with its checklist, attachments and assignments
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks visible in the filter's scope
	List(filter TaskFilter) ([]models.Task, error)

	// Update persists changes to a task's own columns
	Update(task *models.Task) error

	// Delete permanently removes a task and its child records
	Delete(id uint64) error

	// ReplaceAssignments replaces the task's assignee set
	ReplaceAssignments(taskID uint64, userIDs []uint64) error

	// ReplaceChecklist replaces the task's checklist wholesale
	ReplaceChecklist(taskID uint64, items []models.ChecklistItem) error

	// ReplaceAttachments replaces the task's attachment references
	ReplaceAttachments(taskID uint64, urls []string) error

	// SetAllChecklistCompleted marks every checklist item of a task completed
	SetAllChecklistCompleted(taskID uint64) error

	// CountByStatus counts tasks per status within a scope
	CountByStatus(scope TaskScope) (map[models.TaskStatus]int64, error)

	// CountByPriority counts tasks per priority within a scope
	CountByPriority(scope TaskScope) (map[models.TaskPriority]int64, error)

	// CountOverdue counts tasks past their due date and not completed
	CountOverdue(scope TaskScope) (int64, error)

	// Recent returns the most recently created tasks within a scope
	Recent(scope TaskScope, limit int) ([]models.Task, error)

	// CountUsersByIDs counts how many of the given user IDs exist
	CountUsersByIDs(userIDs []uint64) (int64, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// Update persists changes to a user
	Update(user *models.User) error

	// List retrieves member users with pagination
	List(page, pageSize int) ([]models.User, int64, error)

	// TaskStatusCountsByUser returns per-status assigned-task counts for the
	// given users, keyed by user ID
	TaskStatusCountsByUser(userIDs []uint64) (map[uint64]map[models.TaskStatus]int64, error)
}
