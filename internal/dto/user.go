package dto

import (
	"time"

	"github.com/taskforge/task-manager-api/internal/models"
	"github.com/taskforge/task-manager-api/internal/services"
	"github.com/taskforge/task-manager-api/internal/utils"
)

// UserDTO represents a user's public fields in API responses
type UserDTO struct {
	ID              uint64          `json:"id"`
	Name            string          `json:"name"`
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	ProfileImageURL *string         `json:"profile_image_url"`
	Role            models.UserRole `json:"role"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// AuthResponse is a user's public fields plus a freshly issued token
type AuthResponse struct {
	UserDTO
	Token string `json:"token"`
}

// UserOverviewDTO is a user annotated with assigned-task counts for the
// admin user list
type UserOverviewDTO struct {
	UserDTO
	PendingTasks    int64 `json:"pending_tasks"`
	InProgressTasks int64 `json:"in_progress_tasks"`
	CompletedTasks  int64 `json:"completed_tasks"`
}

// UserListResponse is a paginated list of user overviews
type UserListResponse struct {
	Users      []UserOverviewDTO        `json:"users"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:              user.ID,
		Name:            user.Name,
		Username:        user.Username,
		Email:           user.Email,
		ProfileImageURL: user.ProfileImageURL,
		Role:            user.Role,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

// ToAuthResponse converts a user and token to AuthResponse
func ToAuthResponse(user models.User, token string) AuthResponse {
	return AuthResponse{
		UserDTO: ToUserDTO(user),
		Token:   token,
	}
}

// ToUserOverviewDTO converts a service UserOverview to its DTO
func ToUserOverviewDTO(overview services.UserOverview) UserOverviewDTO {
	return UserOverviewDTO{
		UserDTO:         ToUserDTO(overview.User),
		PendingTasks:    overview.TaskCounts.Pending,
		InProgressTasks: overview.TaskCounts.InProgress,
		CompletedTasks:  overview.TaskCounts.Completed,
	}
}

// ToUserListResponse converts user overviews to a paginated response
func ToUserListResponse(overviews []services.UserOverview, params utils.PaginationParams, total int64) UserListResponse {
	users := make([]UserOverviewDTO, len(overviews))
	for i, overview := range overviews {
		users[i] = ToUserOverviewDTO(overview)
	}

	return UserListResponse{
		Users:      users,
		Pagination: params.Response(total),
	}
}
