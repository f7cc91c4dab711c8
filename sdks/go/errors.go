package taskdeck

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrAuthRequired is returned when a request needs a token the
	// client does not have.
	ErrAuthRequired = errors.New("authentication required")

	// ErrSessionExpired is returned when the refresh token was rejected
	// and the session has been terminated. The caller must log in again.
	ErrSessionExpired = errors.New("session expired")

	// ErrForbidden is returned when the server refuses access to a
	// resource the caller is authenticated for. Never retried.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when the server rejects the request body.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when the request conflicts with existing
	// state, such as registering an email that is already taken.
	ErrConflict = errors.New("conflict")

	// ErrRateLimited is returned when the server throttles the request.
	ErrRateLimited = errors.New("rate limited")
)

// APIError is returned for any non-success response from the server.
// It carries the HTTP status and the server's message, and matches the
// corresponding sentinel error via errors.Is.
type APIError struct {
	// Status is the HTTP status code.
	Status int
	// Message is the server-provided failure message.
	Message string
}

// Error returns a human-readable description of the API failure.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("taskdeck: server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("taskdeck: server returned %d", e.Status)
}

// Is maps the HTTP status onto the package sentinel errors, so callers
// can write errors.Is(err, taskdeck.ErrForbidden) without inspecting
// status codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAuthRequired:
		return e.Status == 401
	case ErrForbidden:
		return e.Status == 403
	case ErrNotFound:
		return e.Status == 404
	case ErrValidation:
		return e.Status == 400
	case ErrConflict:
		return e.Status == 409
	case ErrRateLimited:
		return e.Status == 429
	}
	return false
}

// RefreshError is returned when the coordinated token refresh fails.
// After a RefreshError the credential store is empty and the session is
// over; it matches ErrSessionExpired via errors.Is.
type RefreshError struct {
	// Cause is the underlying failure.
	Cause error
}

// Error returns a human-readable description of the refresh failure.
func (e *RefreshError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("token refresh failed: %v", e.Cause)
	}
	return "token refresh failed"
}

// Unwrap returns the underlying error.
func (e *RefreshError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrSessionExpired).
func (e *RefreshError) Is(target error) bool {
	return target == ErrSessionExpired
}
