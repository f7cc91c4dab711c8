// Package policy is the single authorization decision point for task
// operations. Every handler goes through Authorize with the same
// ordering: existence is checked by the caller first (a missing task is
// 404 for everyone), then ownership, then role. The policy holds no
// mutable state; decisions are pure functions of the actor and the
// task's owner.
package policy

import (
	"errors"

	"github.com/taskdeck/taskdeck/internal/domain/auth"
	"github.com/taskdeck/taskdeck/internal/domain/task"
)

// ErrNotAuthorized is returned when a valid identity lacks the rights
// for an operation. It is never retried and never triggers a refresh.
var ErrNotAuthorized = errors.New("not authorized")

// Operation is a task operation subject to authorization.
type Operation string

const (
	// OpRead is reading a single task.
	OpRead Operation = "read"
	// OpCreate is creating a task.
	OpCreate Operation = "create"
	// OpUpdate is modifying a task's fields.
	OpUpdate Operation = "update"
	// OpDelete is removing a task.
	OpDelete Operation = "delete"
)

// Authorize decides whether the actor may perform op on a task owned by
// ownerID. The rules:
//
//	read/update: owner or admin
//	create:      any authenticated actor
//	delete:      admin only (ownership alone is insufficient)
//
// Unknown operations are denied.
func Authorize(actor auth.Actor, op Operation, ownerID string) error {
	switch op {
	case OpCreate:
		return nil
	case OpRead, OpUpdate:
		if actor.ID == ownerID || actor.IsAdmin() {
			return nil
		}
		return ErrNotAuthorized
	case OpDelete:
		if actor.IsAdmin() {
			return nil
		}
		return ErrNotAuthorized
	default:
		return ErrNotAuthorized
	}
}

// ListScope returns the store filter an actor's list request must run
// under: admins see all tasks, everyone else only their own.
func ListScope(actor auth.Actor) task.Filter {
	if actor.IsAdmin() {
		return task.Filter{}
	}
	return task.Filter{CreatedBy: actor.ID}
}
