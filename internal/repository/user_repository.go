package repository

import (
	"gorm.io/gorm"

	"github.com/taskforge/task-manager-api/internal/database"
	"github.com/taskforge/task-manager-api/internal/models"
	"github.com/taskforge/task-manager-api/internal/utils"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update persists changes to a user
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// List retrieves member users with pagination. Admin accounts are not part
// of the managed user list.
func (r *GormUserRepository) List(page, pageSize int) ([]models.User, int64, error) {
	var users []models.User

	var total int64
	if err := r.db.Model(&models.User{}).Where("users.role = ?", models.RoleMember).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Where("users.role = ?", models.RoleMember).Order("users.created_at ASC")
	if page > 0 && pageSize > 0 {
		query = query.Scopes(database.Paginate(utils.PaginationParams{
			Limit:  pageSize,
			Offset: (page - 1) * pageSize,
		}))
	}

	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// TaskStatusCountsByUser returns per-status assigned-task counts keyed by user ID
func (r *GormUserRepository) TaskStatusCountsByUser(userIDs []uint64) (map[uint64]map[models.TaskStatus]int64, error) {
	counts := make(map[uint64]map[models.TaskStatus]int64, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		UserID uint64
		Status models.TaskStatus
		Count  int64
	}

	err := r.db.Model(&models.TaskAssignment{}).
		Select("task_assignments.user_id AS user_id, tasks.status AS status, COUNT(*) AS count").
		Joins("JOIN tasks ON tasks.id = task_assignments.task_id").
		Where("task_assignments.user_id IN ?", userIDs).
		Group("task_assignments.user_id, tasks.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if counts[row.UserID] == nil {
			counts[row.UserID] = make(map[models.TaskStatus]int64)
		}
		counts[row.UserID][row.Status] = row.Count
	}

	return counts, nil
}
