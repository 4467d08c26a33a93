package models

type ChecklistItem struct {
	ID        uint64 `gorm:"primarykey" json:"id"`
	TaskID    uint64 `gorm:"not null;index" json:"task_id"`
	Position  int    `gorm:"not null" json:"position"`
	Text      string `gorm:"type:varchar(500);not null" json:"text"`
	Completed bool   `gorm:"not null;default:false" json:"completed"`
}
