package model

import (
	"time"

	"github.com/google/uuid"
)

// List is a named collection of tasks. It has no owner column; who may use
// it is recorded in ListAccess rows.
type List struct {
	UUID        uuid.UUID
	CreatedAt   time.Time
	Title       string
	Description string
}

// ListSummary is a List plus aggregates over its tasks.
type ListSummary struct {
	List
	TotalTasks      int
	TasksCompleted  int
	EarliestDueDate *time.Time // nil when the list has no tasks
}

// ListAccess grants OwnerUUID the right to read and modify ListUUID.
// At most one row exists per (ListUUID, OwnerUUID).
type ListAccess struct {
	UUID      uuid.UUID
	ListUUID  uuid.UUID
	OwnerUUID uuid.UUID
}
