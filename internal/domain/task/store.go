package task

import (
	"context"
	"errors"
)

// ErrTaskNotFound is returned when a task doesn't exist.
var ErrTaskNotFound = errors.New("task not found")

// Filter restricts which tasks a List call returns.
// The zero value matches all tasks.
type Filter struct {
	// CreatedBy, when non-empty, matches only tasks created by that user.
	CreatedBy string
}

// Patch is a partial update. Nil fields are left unchanged; non-nil
// fields replace the stored value after validation. CreatedBy is not
// representable here on purpose: it is immutable.
type Patch struct {
	Title       *string
	Description *string
	Status      *Status
}

// IsEmpty returns true when the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// TaskStore provides task persistence.
// This interface is defined in the domain to avoid circular imports.
// Implementations: SQLite (prod), in-memory (test/dev).
type TaskStore interface {
	// List returns tasks matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]*Task, error)

	// Get retrieves a task by ID.
	// Returns ErrTaskNotFound if the task doesn't exist.
	Get(ctx context.Context, id string) (*Task, error)

	// Create stores a new task.
	Create(ctx context.Context, t *Task) error

	// Update applies a patch to an existing task and returns the updated
	// record. Returns ErrTaskNotFound if the task doesn't exist.
	Update(ctx context.Context, id string, patch Patch) (*Task, error)

	// Delete removes a task.
	// Returns ErrTaskNotFound if the task doesn't exist.
	Delete(ctx context.Context, id string) error
}
