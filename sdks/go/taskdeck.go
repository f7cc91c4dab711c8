// Package taskdeck provides a Go SDK for the taskdeck task-tracking API.
//
// The client handles the full token lifecycle: it attaches the access
// token to every request, and when the server reports an expired token
// it refreshes once and replays the request transparently. Concurrent
// requests that hit an expired token share a single refresh exchange.
// It uses only the Go standard library (net/http) with zero external
// dependencies.
//
// Quick start:
//
//	client := taskdeck.NewClient(taskdeck.WithServerAddr("http://localhost:8080"))
//
//	if _, err := client.Login(ctx, "ada@example.com", "password"); err != nil {
//	    return err
//	}
//
//	tasks, err := client.ListTasks(ctx)
//	if err != nil {
//	    if errors.Is(err, taskdeck.ErrSessionExpired) {
//	        // Credentials cleared; the user must log in again.
//	    }
//	    return err
//	}
package taskdeck

// TokenPair is an access token plus the refresh token that renews it.
// Both rotate together on every successful refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// User is a taskdeck account as returned by the API.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// Task is a tracked task. CreatedBy is set by the server to the
// authenticated user and cannot be chosen by the client.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedBy   string `json:"createdBy"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Task status values.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Session is the result of a successful login or registration.
type Session struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// CreateTaskInput is the payload for creating a task.
type CreateTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
}

// UpdateTaskInput is the payload for a partial task update.
// Nil fields are left unchanged on the server.
type UpdateTaskInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}
