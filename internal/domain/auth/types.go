// Package auth contains the domain types and logic for authentication.
package auth

import (
	"time"
)

// Role represents a user role for authorization purposes.
type Role string

const (
	// RoleAdmin has full access to all tasks, including delete.
	RoleAdmin Role = "admin"
	// RoleUser has standard access scoped to tasks they created.
	RoleUser Role = "user"
)

// IsValid returns true if the role is a known valid role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// Actor is the identity performing a request, derived from a verified
// access token. It is recomputed per request and never stored.
type Actor struct {
	// ID is the unique identifier of the authenticated user.
	ID string
	// Role is the actor's role.
	Role Role
}

// IsAdmin returns true if the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// User represents a registered account.
type User struct {
	// ID is the unique identifier for this user.
	ID string
	// Name is the display name.
	Name string
	// Email is the login identifier, unique across users.
	Email string
	// PasswordHash is the Argon2id hash of the password (PHC format).
	// Never serialized to API responses.
	PasswordHash string
	// Role is the user's role.
	Role Role
	// CreatedAt is when the account was created (UTC).
	CreatedAt time.Time
}

// Actor returns the Actor corresponding to this user.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// TokenPair is an access token plus the refresh token that renews it.
// Returned by login, registration, and every successful refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
