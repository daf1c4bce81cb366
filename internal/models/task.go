package models

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether s is one of the known statuses. Any known status may
// be set directly from any other.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

type Task struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	OwnerUserID *uint64    `gorm:"index" json:"ownerUserId"`
	GroupID     *uint64    `gorm:"index" json:"groupId"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
	DueDate     *time.Time `json:"dueDate"`
}

// TaskStats holds per-status task counts.
type TaskStats struct {
	Total         int64 `json:"total"`
	Pending       int64 `json:"pending"`
	InProgress    int64 `json:"inProgress"`
	Done          int64 `json:"done"`
	AssignedUser  int64 `json:"assignedUser"`
	AssignedGroup int64 `json:"assignedGroup"`
}
