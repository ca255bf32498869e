package model

import (
	"time"

	"github.com/google/uuid"
)

// Task belongs to exactly one List.
type Task struct {
	UUID        uuid.UUID
	ListUUID    uuid.UUID
	CreatedAt   time.Time
	Title       string
	Description string
	DueDate     time.Time
	Done        bool
}

// TaskPatch carries a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Done        *bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && p.Done == nil
}
