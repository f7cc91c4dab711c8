package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/adapter/outbound/memory"
	"github.com/taskdeck/taskdeck/internal/domain/auth"
)

var testSecret = []byte("test-secret-0123456789abcdef")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testIdentityEnv sets up an IdentityService on in-memory stores.
func testIdentityEnv(t *testing.T) (*IdentityService, *memory.SessionStore) {
	t.Helper()
	sessions := memory.NewSessionStore()
	svc := NewIdentityService(memory.NewUserStore(), sessions, testSecret, 15*time.Minute, time.Hour, testLogger())
	return svc, sessions
}

func TestIdentityService_Register(t *testing.T) {
	svc, _ := testIdentityEnv(t)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, auth.RegisterInput{
		Name:     "Ada",
		Email:    "Ada@Example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	if user.ID == "" {
		t.Error("Register() did not generate an ID")
	}
	if user.Email != "ada@example.com" {
		t.Errorf("Register() Email = %q, want lowercased", user.Email)
	}
	if user.Role != auth.RoleUser {
		t.Errorf("Register() Role = %q, want %q", user.Role, auth.RoleUser)
	}
	if user.PasswordHash == "correct horse" || user.PasswordHash == "" {
		t.Error("Register() stored the password in cleartext or not at all")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("Register() returned an incomplete token pair")
	}

	// The access token must carry the new user's identity.
	actor, err := auth.ParseAccessToken(pair.AccessToken, testSecret)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if actor.ID != user.ID || actor.Role != auth.RoleUser {
		t.Errorf("unexpected actor: %+v", actor)
	}
}

func TestIdentityService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := testIdentityEnv(t)
	ctx := context.Background()

	in := auth.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"}
	if _, _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("Register() first: %v", err)
	}
	_, _, err := svc.Register(ctx, auth.RegisterInput{Name: "Imposter", Email: "ADA@example.com", Password: "correct horse"})
	if !errors.Is(err, auth.ErrEmailTaken) {
		t.Errorf("Register() error = %v, want ErrEmailTaken", err)
	}
}

func TestIdentityService_Register_InvalidInput(t *testing.T) {
	svc, _ := testIdentityEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input auth.RegisterInput
	}{
		{"missing name", auth.RegisterInput{Email: "a@b.com", Password: "correct horse"}},
		{"bad email", auth.RegisterInput{Name: "Ada", Email: "not-an-email", Password: "correct horse"}},
		{"short password", auth.RegisterInput{Name: "Ada", Email: "a@b.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tt.input)
			if !errors.Is(err, auth.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestIdentityService_Login(t *testing.T) {
	svc, _ := testIdentityEnv(t)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, auth.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Register(): %v", err)
	}

	user, pair, err := svc.Login(ctx, auth.LoginInput{Email: "ada@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("Login() returned user %q, want %q", user.ID, registered.ID)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("Login() returned an incomplete token pair")
	}
}

func TestIdentityService_Login_BadCredentials(t *testing.T) {
	svc, _ := testIdentityEnv(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, auth.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"}); err != nil {
		t.Fatalf("Register(): %v", err)
	}

	// Wrong password and unknown email are indistinguishable.
	_, _, err := svc.Login(ctx, auth.LoginInput{Email: "ada@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() wrong password error = %v, want ErrInvalidCredentials", err)
	}
	_, _, err = svc.Login(ctx, auth.LoginInput{Email: "nobody@example.com", Password: "correct horse"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestIdentityService_Refresh_Rotation(t *testing.T) {
	svc, sessions := testIdentityEnv(t)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, auth.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Register(): %v", err)
	}

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() unexpected error: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Error("Refresh() did not rotate the refresh token")
	}
	if next.AccessToken == "" {
		t.Error("Refresh() returned an empty access token")
	}
	if sessions.Size() != 1 {
		t.Errorf("session count after rotation = %d, want 1", sessions.Size())
	}

	// The consumed token is dead: replaying it must fail.
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("Refresh() replay error = %v, want ErrRefreshInvalid", err)
	}

	// The rotated token still works.
	if _, err := svc.Refresh(ctx, next.RefreshToken); err != nil {
		t.Errorf("Refresh() rotated token: %v", err)
	}
}

func TestIdentityService_Refresh_Invalid(t *testing.T) {
	svc, _ := testIdentityEnv(t)
	ctx := context.Background()

	for _, raw := range []string{"", "not-a-real-token"} {
		if _, err := svc.Refresh(ctx, raw); !errors.Is(err, ErrRefreshInvalid) {
			t.Errorf("Refresh(%q) error = %v, want ErrRefreshInvalid", raw, err)
		}
	}
}

func TestIdentityService_Logout(t *testing.T) {
	svc, sessions := testIdentityEnv(t)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, auth.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Register(): %v", err)
	}

	if err := svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Logout() unexpected error: %v", err)
	}
	if sessions.Size() != 0 {
		t.Errorf("session count after logout = %d, want 0", sessions.Size())
	}
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("Refresh() after logout error = %v, want ErrRefreshInvalid", err)
	}

	// Logging out twice is a no-op.
	if err := svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Errorf("Logout() repeat error = %v", err)
	}
}

func TestIdentityService_EnsureAdmin(t *testing.T) {
	svc, _ := testIdentityEnv(t)
	ctx := context.Background()

	admin, err := svc.EnsureAdmin(ctx, "Root", "root@example.com", "correct horse")
	if err != nil {
		t.Fatalf("EnsureAdmin() unexpected error: %v", err)
	}
	if admin.Role != auth.RoleAdmin {
		t.Errorf("EnsureAdmin() Role = %q, want admin", admin.Role)
	}

	// Idempotent: a second call returns the existing account.
	again, err := svc.EnsureAdmin(ctx, "Root", "root@example.com", "correct horse")
	if err != nil {
		t.Fatalf("EnsureAdmin() second call: %v", err)
	}
	if again.ID != admin.ID {
		t.Errorf("EnsureAdmin() created a second account: %q vs %q", again.ID, admin.ID)
	}
}

func TestIdentityService_EnsureAdmin_PromotesExisting(t *testing.T) {
	svc, _ := testIdentityEnv(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, auth.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Register(): %v", err)
	}

	promoted, err := svc.EnsureAdmin(ctx, "Ada", "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("EnsureAdmin() unexpected error: %v", err)
	}
	if promoted.ID != user.ID {
		t.Errorf("EnsureAdmin() created a new account instead of promoting")
	}
	if promoted.Role != auth.RoleAdmin {
		t.Errorf("EnsureAdmin() Role = %q, want admin", promoted.Role)
	}
}
