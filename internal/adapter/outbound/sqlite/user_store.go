package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/internal/domain/auth"
)

// UserStore implements auth.UserStore on a SQLite database.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a SQLite-backed user store.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user.
// Returns auth.ErrEmailTaken if the email is already registered.
func (s *UserStore) Create(ctx context.Context, user *auth.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash,
		string(user.Role), user.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*auth.User, error) {
	return s.getUser(ctx, `SELECT id, name, email, password_hash, role, created_at
		 FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email. The column collates NOCASE, so
// lookups are case-insensitive.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.getUser(ctx, `SELECT id, name, email, password_hash, role, created_at
		 FROM users WHERE email = ?`, email)
}

func (s *UserStore) getUser(ctx context.Context, query string, arg any) (*auth.User, error) {
	var u auth.User
	var role, createdAt string

	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	u.Role = auth.Role(role)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

// Update saves changes to an existing user.
func (s *UserStore) Update(ctx context.Context, user *auth.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, password_hash = ?, role = ? WHERE id = ?`,
		user.Name, user.Email, user.PasswordHash, string(user.Role), user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("updating user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if n == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Compile-time interface verification.
var _ auth.UserStore = (*UserStore)(nil)
