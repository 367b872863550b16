package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// TaskStatuses lists the accepted statuses in display order.
var TaskStatuses = []TaskStatus{TaskStatusPending, TaskStatusCompleted}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusCompleted:
		return true
	}
	return false
}

const (
	TaskNameMaxLength        = 200
	TaskDescriptionMaxLength = 1000
)

type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:varchar(36);not null;index"`
	Name        string     `json:"name" gorm:"size:200;not null"`
	Description *string    `json:"description" gorm:"size:1000"`
	Status      TaskStatus `json:"status" gorm:"size:20;not null;default:'pending'"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskStatistics summarises one owner's tasks.
type TaskStatistics struct {
	Total          int64   `json:"total"`
	Pending        int64   `json:"pending"`
	Completed      int64   `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

// PageInfo describes one page of a paginated listing.
type PageInfo struct {
	Page    int   `json:"page"`
	Pages   int   `json:"pages"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}
