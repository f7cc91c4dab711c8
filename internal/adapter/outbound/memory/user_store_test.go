package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/domain/auth"
)

func TestUserStoreCreateAndLookup(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	user := &auth.User{
		ID:        "u-1",
		Name:      "Ada",
		Email:     "Ada@Example.com",
		Role:      auth.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	byID, err := store.GetByID(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if byID.Name != "Ada" {
		t.Errorf("unexpected user: %+v", byID)
	}

	// Email lookup is case-insensitive.
	byEmail, err := store.GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail.ID != "u-1" {
		t.Errorf("unexpected user: %+v", byEmail)
	}

	if _, err := store.GetByID(ctx, "u-999"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserStoreDuplicateEmail(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	if err := store.Create(ctx, &auth.User{ID: "u-1", Email: "ada@example.com"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := store.Create(ctx, &auth.User{ID: "u-2", Email: "ADA@example.com"})
	if !errors.Is(err, auth.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserStoreUpdate(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	_ = store.Create(ctx, &auth.User{ID: "u-1", Email: "ada@example.com", Role: auth.RoleUser})
	_ = store.Create(ctx, &auth.User{ID: "u-2", Email: "bob@example.com", Role: auth.RoleUser})

	// Promote to admin.
	if err := store.Update(ctx, &auth.User{ID: "u-1", Email: "ada@example.com", Role: auth.RoleAdmin}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := store.GetByID(ctx, "u-1")
	if got.Role != auth.RoleAdmin {
		t.Errorf("role not updated: %s", got.Role)
	}

	// Changing email to a taken one fails.
	err := store.Update(ctx, &auth.User{ID: "u-1", Email: "bob@example.com", Role: auth.RoleAdmin})
	if !errors.Is(err, auth.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	// Unknown user fails.
	err = store.Update(ctx, &auth.User{ID: "u-404", Email: "x@example.com"})
	if !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
