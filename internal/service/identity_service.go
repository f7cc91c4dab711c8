// Package service implements the application services that sit between
// the inbound adapters and the domain stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/domain/auth"
)

// IdentityService errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRefreshInvalid     = errors.New("refresh token invalid or expired")
)

// IdentityService handles registration, login, and refresh token
// rotation. Passwords are hashed with Argon2id; refresh tokens are
// stored only as SHA-256 hashes.
type IdentityService struct {
	users      auth.UserStore
	sessions   auth.SessionStore
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *slog.Logger
}

// NewIdentityService creates a new IdentityService. Zero TTLs fall back
// to the domain defaults.
func NewIdentityService(users auth.UserStore, sessions auth.SessionStore, jwtSecret []byte, accessTTL, refreshTTL time.Duration, logger *slog.Logger) *IdentityService {
	if accessTTL <= 0 {
		accessTTL = auth.DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = auth.DefaultSessionTTL
	}
	return &IdentityService{
		users:      users,
		sessions:   sessions,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// Register creates a new user account and opens its first session.
// New accounts always get the user role; admins are provisioned through
// the seed-admin command.
func (s *IdentityService) Register(ctx context.Context, input auth.RegisterInput) (*auth.User, *auth.TokenPair, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &auth.User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        strings.ToLower(input.Email),
		PasswordHash: hash,
		Role:         auth.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, pair, nil
}

// Login verifies credentials and opens a new session. Unknown emails
// and wrong passwords both map to ErrInvalidCredentials.
func (s *IdentityService) Login(ctx context.Context, input auth.LoginInput) (*auth.User, *auth.TokenPair, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	ok, err := auth.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Warn("login failed", "email", input.Email)
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The old
// session is terminated and a new one created, so each refresh token
// works exactly once. Invalid or expired tokens map to ErrRefreshInvalid.
func (s *IdentityService) Refresh(ctx context.Context, rawRefreshToken string) (*auth.TokenPair, error) {
	if rawRefreshToken == "" {
		return nil, ErrRefreshInvalid
	}

	sess, err := s.sessions.GetByTokenHash(ctx, auth.HashToken(rawRefreshToken))
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			// Session for a deleted account. Clean it up.
			_ = s.sessions.Delete(ctx, sess.ID)
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	// Rotate: the presented token is consumed before the new pair is
	// issued, whatever happens next.
	if err := s.sessions.Delete(ctx, sess.ID); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		return nil, err
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("session rotated", "user_id", user.ID)
	return pair, nil
}

// Logout terminates the session bound to the given refresh token.
// Unknown tokens are treated as already logged out.
func (s *IdentityService) Logout(ctx context.Context, rawRefreshToken string) error {
	if rawRefreshToken == "" {
		return nil
	}

	sess, err := s.sessions.GetByTokenHash(ctx, auth.HashToken(rawRefreshToken))
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if err := s.sessions.Delete(ctx, sess.ID); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		return err
	}

	s.logger.Info("user logged out", "user_id", sess.UserID)
	return nil
}

// GetUser returns the account behind an actor ID.
func (s *IdentityService) GetUser(ctx context.Context, id string) (*auth.User, error) {
	return s.users.GetByID(ctx, id)
}

// EnsureAdmin creates an admin account with the given credentials, or
// promotes the existing account with that email to admin. Used by the
// seed-admin command.
func (s *IdentityService) EnsureAdmin(ctx context.Context, name, email, password string) (*auth.User, error) {
	input := auth.RegisterInput{Name: name, Email: email, Password: password}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == auth.RoleAdmin {
			return existing, nil
		}
		existing.Role = auth.RoleAdmin
		if err := s.users.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.logger.Info("user promoted to admin", "user_id", existing.ID)
		return existing, nil
	case errors.Is(err, auth.ErrUserNotFound):
		// Fall through to creation.
	default:
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &auth.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("admin account created", "user_id", admin.ID, "email", admin.Email)
	return admin, nil
}

// openSession mints an access token and a fresh refresh token, storing
// the session under the token's hash.
func (s *IdentityService) openSession(ctx context.Context, user *auth.User) (*auth.TokenPair, error) {
	access, err := auth.GenerateAccessToken(user, s.jwtSecret, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refresh, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	sess := &auth.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: auth.HashToken(refresh),
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &auth.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
