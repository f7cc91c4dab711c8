package auth

import (
	"context"
	"errors"
)

// Sentinel errors for store operations.
var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering with an email that is in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrSessionNotFound is returned when a refresh session doesn't exist
	// or has expired.
	ErrSessionNotFound = errors.New("session not found")
)

// UserStore provides user account persistence.
// This interface is defined in the domain to avoid circular imports.
// Implementations: SQLite (prod), in-memory (test/dev).
type UserStore interface {
	// Create stores a new user.
	// Returns ErrEmailTaken if the email is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	// Returns ErrUserNotFound if the user doesn't exist.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by email.
	// Returns ErrUserNotFound if the user doesn't exist.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update saves changes to an existing user.
	// Returns ErrUserNotFound if the user doesn't exist.
	Update(ctx context.Context, user *User) error
}

// SessionStore provides refresh session persistence.
// Implementations must support lookup by token hash so clients can
// present the raw token on refresh and logout.
type SessionStore interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by the hash of its refresh token.
	// Returns ErrSessionNotFound if the session doesn't exist or is expired.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUser removes all sessions belonging to a user.
	DeleteByUser(ctx context.Context, userID string) error
}
