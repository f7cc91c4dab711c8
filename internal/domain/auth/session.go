package auth

import (
	"time"
)

// DefaultSessionTTL is the refresh token lifetime when none is configured.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Session tracks one issued refresh token server-side.
// A session is replaced on every successful refresh (rotation): the
// presented token's session is deleted and a new one created, so a
// rotated-out token can never be exchanged again.
type Session struct {
	// ID is a unique identifier for this session.
	ID string
	// UserID references the user this session belongs to.
	UserID string
	// TokenHash is the SHA-256 hash of the raw refresh token.
	TokenHash string
	// CreatedAt is when the session was created (UTC).
	CreatedAt time.Time
	// ExpiresAt is when the refresh token stops being exchangeable (UTC).
	ExpiresAt time.Time
}

// IsExpired checks if the session's refresh token has expired.
func (s *Session) IsExpired() bool {
	return time.Now().UTC().After(s.ExpiresAt)
}
