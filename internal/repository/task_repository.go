package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/taskforge/task-manager-api/internal/database"
	"github.com/taskforge/task-manager-api/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// scoped applies the visibility scope to a task query
func (r *GormTaskRepository) scoped(scope TaskScope) *gorm.DB {
	return r.db.Model(&models.Task{}).Scopes(database.VisibleTasks(scope.UserID, scope.Role))
}

// Create creates a new task along with its children
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Omit("Creator", "Assignments.User").Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks visible in the filter's scope
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, error) {
	var tasks []models.Task

	query := r.scoped(filter.Scope)
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}

	err := query.
		Preload("Assignments").
		Preload("Assignments.User").
		Preload("Checklist", func(db *gorm.DB) *gorm.DB {
			return db.Order("checklist_items.position ASC")
		}).
		Preload("Attachments").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// Update persists changes to a task's own columns
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Omit("Creator", "Assignments", "Checklist", "Attachments").Save(task).Error
}

// Delete permanently removes a task and its child records
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.ChecklistItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// ReplaceAssignments replaces the task's assignee set
func (r *GormTaskRepository) ReplaceAssignments(taskID uint64, userIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		assignments := make([]models.TaskAssignment, len(userIDs))
		for i, userID := range userIDs {
			assignments[i] = models.TaskAssignment{
				TaskID: taskID,
				UserID: userID,
			}
		}

		return tx.Create(&assignments).Error
	})
}

// ReplaceChecklist replaces the task's checklist wholesale
func (r *GormTaskRepository) ReplaceChecklist(taskID uint64, items []models.ChecklistItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.ChecklistItem{}).Error; err != nil {
			return err
		}

		if len(items) == 0 {
			return nil
		}

		for i := range items {
			items[i].ID = 0
			items[i].TaskID = taskID
			items[i].Position = i
		}

		return tx.Create(&items).Error
	})
}

// ReplaceAttachments replaces the task's attachment references
func (r *GormTaskRepository) ReplaceAttachments(taskID uint64, urls []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}

		if len(urls) == 0 {
			return nil
		}

		attachments := make([]models.Attachment, len(urls))
		for i, url := range urls {
			attachments[i] = models.Attachment{
				TaskID: taskID,
				URL:    url,
			}
		}

		return tx.Create(&attachments).Error
	})
}

// SetAllChecklistCompleted marks every checklist item of a task completed
func (r *GormTaskRepository) SetAllChecklistCompleted(taskID uint64) error {
	return r.db.Model(&models.ChecklistItem{}).
		Where("task_id = ?", taskID).
		Update("completed", true).Error
}

// CountByStatus counts tasks per status within a scope
func (r *GormTaskRepository) CountByStatus(scope TaskScope) (map[models.TaskStatus]int64, error) {
	var rows []struct {
		Status models.TaskStatus
		Count  int64
	}

	err := r.scoped(scope).
		Select("tasks.status AS status, COUNT(*) AS count").
		Group("tasks.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountByPriority counts tasks per priority within a scope
func (r *GormTaskRepository) CountByPriority(scope TaskScope) (map[models.TaskPriority]int64, error) {
	var rows []struct {
		Priority models.TaskPriority
		Count    int64
	}

	err := r.scoped(scope).
		Select("tasks.priority AS priority, COUNT(*) AS count").
		Group("tasks.priority").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.TaskPriority]int64, len(rows))
	for _, row := range rows {
		counts[row.Priority] = row.Count
	}
	return counts, nil
}

// CountOverdue counts tasks past their due date and not completed
func (r *GormTaskRepository) CountOverdue(scope TaskScope) (int64, error) {
	var count int64
	err := r.scoped(scope).
		Where("tasks.due_date < ?", time.Now()).
		Where("tasks.status <> ?", models.TaskStatusCompleted).
		Count(&count).Error
	return count, err
}

// Recent returns the most recently created tasks within a scope
func (r *GormTaskRepository) Recent(scope TaskScope, limit int) ([]models.Task, error) {
	var tasks []models.Task
	err := r.scoped(scope).
		Order("tasks.created_at DESC").
		Limit(limit).
		Preload("Assignments").
		Preload("Assignments.User").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountUsersByIDs counts how many of the given user IDs exist
func (r *GormTaskRepository) CountUsersByIDs(userIDs []uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("users.id IN ?", userIDs).
		Count(&count).Error
	return count, err
}
