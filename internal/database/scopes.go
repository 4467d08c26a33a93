package database

import (
	"gorm.io/gorm"

	"github.com/taskforge/task-manager-api/internal/models"
	"github.com/taskforge/task-manager-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// VisibleTasks scopes a task query to what the requester may see: admins see
// every task, members only tasks they are assigned to. All listing, counting
// and dashboard queries go through this single scope.
func VisibleTasks(userID uint64, role models.UserRole) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if role == models.RoleAdmin {
			return db
		}
		assignmentSubQuery := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.TaskAssignment{}).
			Select("1").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id = ?", userID)
		return db.Where("EXISTS (?)", assignmentSubQuery)
	}
}
