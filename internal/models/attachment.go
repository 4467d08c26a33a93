package models

import "time"

type Attachment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	URL       string    `gorm:"type:varchar(1024);not null" json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
