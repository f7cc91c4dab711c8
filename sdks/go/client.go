package taskdeck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// Client is the taskdeck SDK client. All task operations go through the
// authenticated request pipeline: the access token is attached to every
// call, an expired token triggers one coordinated refresh, and the
// original call is replayed exactly once with the new token.
type Client struct {
	serverAddr string
	timeout    time.Duration
	httpClient *http.Client
	creds      CredentialStore
	logger     *slog.Logger

	// Refresh coordination state. Guarded by refreshMu; at most one
	// refresh exchange is outstanding per Client at any instant.
	refreshMu  sync.Mutex
	refreshing bool
	waiters    []chan refreshResult
}

// NewClient creates a new taskdeck SDK client.
// It reads TASKDECK_SERVER_ADDR from the environment by default.
// Options can be used to override the defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		serverAddr: os.Getenv("TASKDECK_SERVER_ADDR"),
		timeout:    10 * time.Second,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.creds == nil {
		c.creds = NewMemoryCredentialStore()
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}

	return c
}

// --- Identity operations ---

// Register creates a new account and stores its session tokens.
func (c *Client) Register(ctx context.Context, name, email, password string) (*Session, error) {
	var sess Session
	err := c.bareRequest(ctx, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"name": name, "email": email, "password": password}, &sess)
	if err != nil {
		return nil, err
	}
	if err := c.creds.Set(sess.Tokens); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Login authenticates and stores the session tokens in the credential
// store, replacing any previous session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var sess Session
	err := c.bareRequest(ctx, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": email, "password": password}, &sess)
	if err != nil {
		return nil, err
	}
	if err := c.creds.Set(sess.Tokens); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Logout terminates the server-side session and clears the credential
// store. The local store is cleared even if the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	pair, err := c.creds.Tokens()
	if err != nil {
		return err
	}

	var serverErr error
	if pair.RefreshToken != "" {
		serverErr = c.bareRequest(ctx, http.MethodPost, "/api/v1/auth/logout",
			map[string]string{"refreshToken": pair.RefreshToken}, nil)
	}

	if err := c.creds.Clear(); err != nil {
		return err
	}
	return serverErr
}

// Me returns the authenticated user's account.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- Task operations ---

// ListTasks returns the tasks visible to the authenticated user,
// newest first. Admins see every task.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns a single task by ID.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks/"+id, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask creates a task owned by the authenticated user.
func (c *Client) CreateTask(ctx context.Context, input CreateTaskInput) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks", input, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, id string, input UpdateTaskInput) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodPut, "/api/v1/tasks/"+id, input, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask removes a task. The server allows this for admins only.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tasks/"+id, nil, nil)
}

// --- Request pipeline ---

// envelope is the server's standard response shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
}

// do runs an authenticated request through the pipeline:
//
//  1. Attach the current access token and dispatch.
//  2. On authentication failure (401), trigger one coordinated refresh
//     and replay the original request with the new token.
//  3. If the replay fails authentication again, return the failure —
//     never a second refresh for the same call.
//
// Authorization denials (403) and every other error pass through
// unchanged; only 401 engages the refresh path.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	// Marshal once; the same payload is reused on replay.
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	pair, err := c.creds.Tokens()
	if err != nil {
		return err
	}
	accessToken := pair.AccessToken

	retried := false
	for {
		status, respBody, err := c.dispatch(ctx, method, path, payload, accessToken)
		if err != nil {
			return err
		}

		if status == http.StatusUnauthorized && !retried {
			retried = true
			c.logger.Debug("access token rejected, refreshing", "path", path)

			accessToken, err = c.coordinateRefresh(ctx)
			if err != nil {
				return err
			}
			continue
		}

		return decodeEnvelope(status, respBody, result)
	}
}

// bareRequest runs a request outside the authenticated pipeline: no
// bearer token, no refresh, no replay. Used by the credential
// endpoints, which the pipeline itself depends on.
func (c *Client) bareRequest(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	status, respBody, err := c.dispatch(ctx, method, path, payload, "")
	if err != nil {
		return err
	}
	return decodeEnvelope(status, respBody, result)
}

// dispatch performs one HTTP round trip.
func (c *Client) dispatch(ctx context.Context, method, path string, payload []byte, accessToken string) (int, []byte, error) {
	url := strings.TrimRight(c.serverAddr, "/") + path

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// decodeEnvelope unwraps the server envelope, mapping failures to an
// APIError and unmarshalling the data payload into result.
func decodeEnvelope(status int, body []byte, result any) error {
	var env envelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			if status < 200 || status >= 300 {
				return &APIError{Status: status}
			}
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	if status < 200 || status >= 300 {
		return &APIError{Status: status, Message: env.Message}
	}

	if result != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("failed to unmarshal response data: %w", err)
		}
	}
	return nil
}
