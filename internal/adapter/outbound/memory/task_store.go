package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/internal/domain/task"
)

// TaskStore implements task.TaskStore with an in-memory map.
// Thread-safe for concurrent access. For development/testing only.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*task.Task
}

// NewTaskStore creates a new in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*task.Task),
	}
}

// List returns tasks matching the filter, newest first.
func (s *TaskStore) List(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter.CreatedBy != "" && t.CreatedBy != filter.CreatedBy {
			continue
		}
		taskCopy := *t
		result = append(result, &taskCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Get retrieves a task by ID.
func (s *TaskStore) Get(ctx context.Context, id string) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	taskCopy := *t
	return &taskCopy, nil
}

// Create stores a new task.
func (s *TaskStore) Create(ctx context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	taskCopy := *t
	s.tasks[t.ID] = &taskCopy
	return nil
}

// Update applies a patch atomically and returns the updated task.
// CreatedBy and CreatedAt are never touched.
func (s *TaskStore) Update(ctx context.Context, id string, patch task.Patch) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	t.UpdatedAt = time.Now().UTC()

	taskCopy := *t
	return &taskCopy, nil
}

// Delete removes a task.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return task.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

// Compile-time interface verification.
var _ task.TaskStore = (*TaskStore)(nil)
