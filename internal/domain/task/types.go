// Package task contains the domain types for task records.
package task

import (
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	// StatusPending marks a task that is not yet done.
	StatusPending Status = "pending"
	// StatusCompleted marks a finished task.
	StatusCompleted Status = "completed"
)

// IsValid returns true if the status is one of the enumerated values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted:
		return true
	default:
		return false
	}
}

// Field length bounds, enforced on create and update.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

// Task is a single task record. CreatedBy is set server-side from the
// requesting actor and is immutable after creation.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Title is a short summary, 1..100 characters.
	Title string `json:"title"`
	// Description is the task body, 1..500 characters.
	Description string `json:"description"`
	// Status is "pending" or "completed".
	Status Status `json:"status"`
	// CreatedBy is the ID of the user who created the task.
	CreatedBy string `json:"createdBy"`
	// CreatedAt is when the task was created (UTC).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is when the task was last modified (UTC).
	UpdatedAt time.Time `json:"updatedAt"`
}
