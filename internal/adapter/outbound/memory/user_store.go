// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/taskdeck/taskdeck/internal/domain/auth"
)

// UserStore implements auth.UserStore with an in-memory map.
// Thread-safe for concurrent access. For development/testing only.
type UserStore struct {
	mu      sync.RWMutex
	users   map[string]*auth.User // keyed by ID
	byEmail map[string]string     // lowercased email -> ID
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[string]*auth.User),
		byEmail: make(map[string]string),
	}
}

// Create stores a new user.
// Returns auth.ErrEmailTaken if the email is already registered.
func (s *UserStore) Create(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return auth.ErrEmailTaken
	}

	u := *user
	s.users[u.ID] = &u
	s.byEmail[email] = u.ID
	return nil
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	userCopy := *u
	return &userCopy, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	userCopy := *s.users[id]
	return &userCopy, nil
}

// Update saves changes to an existing user.
func (s *UserStore) Update(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return auth.ErrUserNotFound
	}

	if !strings.EqualFold(existing.Email, user.Email) {
		email := strings.ToLower(user.Email)
		if _, taken := s.byEmail[email]; taken {
			return auth.ErrEmailTaken
		}
		delete(s.byEmail, strings.ToLower(existing.Email))
		s.byEmail[email] = user.ID
	}

	u := *user
	s.users[u.ID] = &u
	return nil
}

// Compile-time interface verification.
var _ auth.UserStore = (*UserStore)(nil)
