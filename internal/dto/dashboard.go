package dto

import (
	"time"

	"github.com/taskforge/task-manager-api/internal/models"
	"github.com/taskforge/task-manager-api/internal/services"
)

// DashboardStatisticsDTO holds the headline dashboard counters
type DashboardStatisticsDTO struct {
	TotalTasks     int64 `json:"total_tasks"`
	PendingTasks   int64 `json:"pending_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	OverdueTasks   int64 `json:"overdue_tasks"`
}

// DashboardChartsDTO holds the distribution breakdowns
type DashboardChartsDTO struct {
	TaskDistribution   map[string]int64 `json:"task_distribution"`
	TaskPriorityLevels map[string]int64 `json:"task_priority_levels"`
}

// RecentTaskDTO is the trimmed task shape shown in the recent-tasks panel
type RecentTaskDTO struct {
	ID         uint64              `json:"id"`
	Title      string              `json:"title"`
	Status     models.TaskStatus   `json:"status"`
	Priority   models.TaskPriority `json:"priority"`
	DueDate    *time.Time          `json:"due_date"`
	CreatedAt  time.Time           `json:"created_at"`
	AssignedTo []AssigneeDTO       `json:"assigned_to"`
}

// DashboardResponse is the full dashboard payload
type DashboardResponse struct {
	Statistics  DashboardStatisticsDTO `json:"statistics"`
	Charts      DashboardChartsDTO     `json:"charts"`
	RecentTasks []RecentTaskDTO        `json:"recent_tasks"`
}

// ToDashboardResponse converts service dashboard data to its response shape
func ToDashboardResponse(data *services.DashboardData) DashboardResponse {
	recent := make([]RecentTaskDTO, len(data.RecentTasks))
	for i, task := range data.RecentTasks {
		item := RecentTaskDTO{
			ID:         task.ID,
			Title:      task.Title,
			Status:     task.Status,
			Priority:   task.Priority,
			DueDate:    task.DueDate,
			CreatedAt:  task.CreatedAt,
			AssignedTo: []AssigneeDTO{},
		}
		for _, assignment := range task.Assignments {
			item.AssignedTo = append(item.AssignedTo, ToAssigneeDTO(assignment.User))
		}
		recent[i] = item
	}

	return DashboardResponse{
		Statistics: DashboardStatisticsDTO{
			TotalTasks:     data.Statistics.TotalTasks,
			PendingTasks:   data.Statistics.PendingTasks,
			CompletedTasks: data.Statistics.CompletedTasks,
			OverdueTasks:   data.Statistics.OverdueTasks,
		},
		Charts: DashboardChartsDTO{
			TaskDistribution:   data.TaskDistribution,
			TaskPriorityLevels: data.PriorityLevels,
		},
		RecentTasks: recent,
	}
}
