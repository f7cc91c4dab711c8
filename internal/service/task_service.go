package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/domain/auth"
	"github.com/taskdeck/taskdeck/internal/domain/policy"
	"github.com/taskdeck/taskdeck/internal/domain/task"
)

// TaskService applies the authorization policy to every task operation.
// Existence is always checked before ownership, so a caller who is not
// allowed to see a task cannot distinguish it from one that does not
// exist by probing IDs.
type TaskService struct {
	store  task.TaskStore
	logger *slog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(store task.TaskStore, logger *slog.Logger) *TaskService {
	return &TaskService{
		store:  store,
		logger: logger,
	}
}

// List returns the tasks visible to the actor: admins see everything,
// regular users only their own.
func (s *TaskService) List(ctx context.Context, actor auth.Actor) ([]*task.Task, error) {
	return s.store.List(ctx, policy.ListScope(actor))
}

// Get retrieves a single task, subject to the read policy.
func (s *TaskService) Get(ctx context.Context, actor auth.Actor, id string) (*task.Task, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.OpRead, t.CreatedBy); err != nil {
		return nil, err
	}
	return t, nil
}

// Create creates a new task owned by the actor. The creator recorded on
// the task is always the requesting actor; nothing in the input can
// override it.
func (s *TaskService) Create(ctx context.Context, actor auth.Actor, input task.CreateInput) (*task.Task, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.OpCreate, actor.ID); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = task.StatusPending
	}

	now := time.Now().UTC()
	t := &task.Task{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("task created", "task_id", t.ID, "user_id", actor.ID)
	return t, nil
}

// Update applies a partial update, subject to the update policy.
// Fields absent from the input are left unchanged.
func (s *TaskService) Update(ctx context.Context, actor auth.Actor, id string, input task.UpdateInput) (*task.Task, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.OpUpdate, existing.CreatedBy); err != nil {
		return nil, err
	}

	patch := input.Patch()
	if patch.IsEmpty() {
		return existing, nil
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("task updated", "task_id", id, "user_id", actor.ID)
	return updated, nil
}

// Delete removes a task. Only admins pass the delete policy, owners
// included.
func (s *TaskService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.OpDelete, existing.CreatedBy); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("task deleted", "task_id", id, "user_id", actor.ID)
	return nil
}
