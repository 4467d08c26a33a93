package models

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "Pending"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityHigh   TaskPriority = "High"
)

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'Medium'" json:"priority"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	DueDate     *time.Time   `json:"due_date"`
	Progress    int          `gorm:"not null;default:0" json:"progress"`
	CreatorID   uint64       `gorm:"not null" json:"creator_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Creator     User             `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
	Checklist   []ChecklistItem  `gorm:"foreignKey:TaskID" json:"checklist,omitempty"`
	Attachments []Attachment     `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
}

// CompletedChecklistCount returns the number of completed checklist items.
// Requires the Checklist relation to be loaded.
func (t *Task) CompletedChecklistCount() int {
	count := 0
	for _, item := range t.Checklist {
		if item.Completed {
			count++
		}
	}
	return count
}

// IsAssignee reports whether the given user is assigned to the task.
// Requires the Assignments relation to be loaded.
func (t *Task) IsAssignee(userID uint64) bool {
	for _, a := range t.Assignments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}
