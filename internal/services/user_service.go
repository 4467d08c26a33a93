package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/taskforge/task-manager-api/internal/models"
	"github.com/taskforge/task-manager-api/internal/repository"
)

var ErrInvalidRole = errors.New("role must be admin or member")

// UserService handles the admin-facing user management operations.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// UserTaskCounts holds the assigned-task counts shown in the admin user list.
type UserTaskCounts struct {
	Pending    int64
	InProgress int64
	Completed  int64
}

// UserOverview pairs a user with their assigned-task counts.
type UserOverview struct {
	User       models.User
	TaskCounts UserTaskCounts
}

// ListUsers returns member users annotated with their per-status
// assigned-task counts.
func (s *UserService) ListUsers(page, pageSize int) ([]UserOverview, int64, error) {
	users, total, err := s.userRepo.List(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	userIDs := make([]uint64, len(users))
	for i, user := range users {
		userIDs[i] = user.ID
	}

	counts, err := s.userRepo.TaskStatusCountsByUser(userIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count user tasks: %w", err)
	}

	overviews := make([]UserOverview, len(users))
	for i, user := range users {
		overviews[i] = UserOverview{
			User: user,
			TaskCounts: UserTaskCounts{
				Pending:    counts[user.ID][models.TaskStatusPending],
				InProgress: counts[user.ID][models.TaskStatusInProgress],
				Completed:  counts[user.ID][models.TaskStatusCompleted],
			},
		}
	}

	return overviews, total, nil
}

// GetUser retrieves a single user by ID.
func (s *UserService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateRole changes a user's role.
func (s *UserService) UpdateRole(userID uint64, role models.UserRole) (*models.User, error) {
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.Role = role
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	return user, nil
}
