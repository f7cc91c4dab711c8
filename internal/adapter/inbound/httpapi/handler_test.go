package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/adapter/outbound/memory"
	"github.com/taskdeck/taskdeck/internal/service"
)

var testSecret = []byte("test-secret-0123456789abcdef")

type testEnv struct {
	handler  http.Handler
	identity *service.IdentityService
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	identity := service.NewIdentityService(
		memory.NewUserStore(), memory.NewSessionStore(),
		testSecret, 15*time.Minute, time.Hour, logger,
	)
	tasks := service.NewTaskService(memory.NewTaskStore(), logger)

	base := []Option{
		WithIdentityService(identity),
		WithTaskService(tasks),
		WithJWTSecret(testSecret),
		WithLogger(logger),
	}
	h := NewHandler(append(base, opts...)...)

	return &testEnv{handler: h.Routes(), identity: identity}
}

// do performs a request against the handler and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.1:4242"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// decodeEnvelope parses the response envelope and fails on bad JSON.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, rec.Body.String())
	}
	return env
}

// registerUser registers an account and returns its token pair.
func (e *testEnv) registerUser(t *testing.T, name, email string) (accessToken, refreshToken string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "correct horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d (body: %s)", email, rec.Code, rec.Body.String())
	}

	var env struct {
		Data struct {
			Tokens struct {
				AccessToken  string `json:"accessToken"`
				RefreshToken string `json:"refreshToken"`
			} `json:"tokens"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return env.Data.Tokens.AccessToken, env.Data.Tokens.RefreshToken
}

// adminToken provisions an admin and logs it in.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	if _, err := e.identity.EnsureAdmin(t.Context(), "Root", "root@example.com", "correct horse"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "root@example.com", "password": "correct horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login: status %d", rec.Code)
	}
	var env struct {
		Data struct {
			Tokens struct {
				AccessToken string `json:"accessToken"`
			} `json:"tokens"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return env.Data.Tokens.AccessToken
}

// createTask creates a task and returns its ID.
func (e *testEnv) createTask(t *testing.T, token, title string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]string{
		"title": title, "description": "some details",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status %d (body: %s)", rec.Code, rec.Body.String())
	}
	var env struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return env.Data.ID
}

// --- Auth endpoints ---

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "correct horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if !resp.Success {
		t.Error("envelope success = false, want true")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "Ada", "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Imposter", "email": "ada@example.com", "password": "correct horse",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestRegister_InvalidInput(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "not-an-email", "password": "correct horse",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Success || resp.Message == "" {
		t.Errorf("envelope = %+v, want failure with message", resp)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "Ada", "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.registerUser(t, "Ada", "ada@example.com")

	rec := env.do(t, http.MethodGet, "/api/v1/auth/me", access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var env2 struct {
		Data struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env2); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env2.Data.Email != "ada@example.com" || env2.Data.Role != "user" {
		t.Errorf("unexpected me response: %+v", env2.Data)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("passwordHash")) {
		t.Error("response leaked the password hash")
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	for _, token := range []string{"", "garbage-token"} {
		rec := env.do(t, http.MethodGet, "/api/v1/tasks", token, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", token, rec.Code)
		}
		resp := decodeEnvelope(t, rec)
		if resp.Success {
			t.Errorf("token %q: envelope success = true, want false", token)
		}
	}
}

func TestRefresh_RotationAndReplay(t *testing.T) {
	env := newTestEnv(t)
	_, refresh := env.registerUser(t, "Ada", "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": refresh})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var env2 struct {
		Data struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env2); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env2.Data.RefreshToken == refresh {
		t.Error("refresh token was not rotated")
	}
	if env2.Data.AccessToken == "" {
		t.Error("no access token in refresh response")
	}

	// Replaying the consumed token fails.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": refresh})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("replay status = %d, want 401", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	_, refresh := env.registerUser(t, "Ada", "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/logout", "", map[string]string{"refreshToken": refresh})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": refresh})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want 401", rec.Code)
	}
}

// --- Task endpoints ---

func TestCreateTask_CreatorForced(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.registerUser(t, "Ada", "ada@example.com")

	// A client-supplied createdBy must be ignored.
	rec := env.do(t, http.MethodPost, "/api/v1/tasks", access, map[string]string{
		"title": "sneaky", "description": "d", "createdBy": "someone-else",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}

	var env2 struct {
		Data struct {
			CreatedBy string `json:"createdBy"`
			Status    string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env2); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env2.Data.CreatedBy == "someone-else" || env2.Data.CreatedBy == "" {
		t.Errorf("createdBy = %q, want the requesting user's ID", env2.Data.CreatedBy)
	}
	if env2.Data.Status != "pending" {
		t.Errorf("default status = %q, want pending", env2.Data.Status)
	}
}

func TestGetTask_Policy(t *testing.T) {
	env := newTestEnv(t)
	adaToken, _ := env.registerUser(t, "Ada", "ada@example.com")
	bobToken, _ := env.registerUser(t, "Bob", "bob@example.com")
	admin := env.adminToken(t)

	id := env.createTask(t, adaToken, "ada's task")

	if rec := env.do(t, http.MethodGet, "/api/v1/tasks/"+id, adaToken, nil); rec.Code != http.StatusOK {
		t.Errorf("owner get status = %d, want 200", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/tasks/"+id, admin, nil); rec.Code != http.StatusOK {
		t.Errorf("admin get status = %d, want 200", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/tasks/"+id, bobToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("non-owner get status = %d, want 403", rec.Code)
	}

	// A missing task is 404 for everyone: not-found wins over forbidden.
	if rec := env.do(t, http.MethodGet, "/api/v1/tasks/no-such-task", bobToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing task status = %d, want 404", rec.Code)
	}
}

func TestListTasks_Scoped(t *testing.T) {
	env := newTestEnv(t)
	adaToken, _ := env.registerUser(t, "Ada", "ada@example.com")
	bobToken, _ := env.registerUser(t, "Bob", "bob@example.com")
	admin := env.adminToken(t)

	env.createTask(t, adaToken, "a1")
	env.createTask(t, adaToken, "a2")
	env.createTask(t, bobToken, "b1")

	count := func(rec *httptest.ResponseRecorder) int {
		t.Helper()
		resp := decodeEnvelope(t, rec)
		if resp.Count == nil {
			t.Fatalf("envelope has no count (body: %s)", rec.Body.String())
		}
		return *resp.Count
	}

	if got := count(env.do(t, http.MethodGet, "/api/v1/tasks", adaToken, nil)); got != 2 {
		t.Errorf("ada's list count = %d, want 2", got)
	}
	if got := count(env.do(t, http.MethodGet, "/api/v1/tasks", admin, nil)); got != 3 {
		t.Errorf("admin list count = %d, want 3", got)
	}
}

func TestUpdateTask_Partial(t *testing.T) {
	env := newTestEnv(t)
	adaToken, _ := env.registerUser(t, "Ada", "ada@example.com")
	bobToken, _ := env.registerUser(t, "Bob", "bob@example.com")

	id := env.createTask(t, adaToken, "original")

	rec := env.do(t, http.MethodPut, "/api/v1/tasks/"+id, adaToken, map[string]string{"status": "completed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	var env2 struct {
		Data struct {
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env2); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env2.Data.Status != "completed" || env2.Data.Title != "original" {
		t.Errorf("partial update result = %+v", env2.Data)
	}

	// Non-owner cannot update.
	rec = env.do(t, http.MethodPut, "/api/v1/tasks/"+id, bobToken, map[string]string{"status": "pending"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner update status = %d, want 403", rec.Code)
	}

	// Bad status value is a 400.
	rec = env.do(t, http.MethodPut, "/api/v1/tasks/"+id, adaToken, map[string]string{"status": "done"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status update = %d, want 400", rec.Code)
	}
}

func TestDeleteTask_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	adaToken, _ := env.registerUser(t, "Ada", "ada@example.com")
	admin := env.adminToken(t)

	id := env.createTask(t, adaToken, "doomed")

	// The owner cannot delete their own task.
	if rec := env.do(t, http.MethodDelete, "/api/v1/tasks/"+id, adaToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("owner delete status = %d, want 403", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/v1/tasks/"+id, admin, nil); rec.Code != http.StatusOK {
		t.Errorf("admin delete status = %d, want 200", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/tasks/"+id, admin, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestGetTask_ETag(t *testing.T) {
	env := newTestEnv(t)
	adaToken, _ := env.registerUser(t, "Ada", "ada@example.com")
	id := env.createTask(t, adaToken, "cached")

	rec := env.do(t, http.MethodGet, "/api/v1/tasks/"+id, adaToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("no ETag header on task read")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+adaToken)
	req.Header.Set("If-None-Match", etag)
	rec2 := httptest.NewRecorder()
	env.handler.ServeHTTP(rec2, req)

	if rec2.Code != http.StatusNotModified {
		t.Errorf("conditional get status = %d, want 304", rec2.Code)
	}
}

// --- Rate limiting ---

func TestRateLimit_CredentialEndpoints(t *testing.T) {
	env := newTestEnv(t, WithRateLimit(2))

	login := map[string]string{"email": "nobody@example.com", "password": "guess"}
	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", login); rec.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d rate limited too early", i+1)
		}
	}

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", login)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response has no Retry-After header")
	}

	// Authenticated task routes are not rate limited.
	access, _ := env2NoLimit(t, env)
	if rec := env.do(t, http.MethodGet, "/api/v1/tasks", access, nil); rec.Code == http.StatusTooManyRequests {
		t.Error("task route was rate limited")
	}
}

// env2NoLimit registers a user from a different IP so the limiter does
// not interfere.
func env2NoLimit(t *testing.T, env *testEnv) (string, string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"name": "Other", "email": fmt.Sprintf("other-%d@example.com", time.Now().UnixNano()), "password": "correct horse",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.RemoteAddr = "198.51.100.7:999"
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register from second IP: status %d", rec.Code)
	}

	var resp struct {
		Data struct {
			Tokens struct {
				AccessToken  string `json:"accessToken"`
				RefreshToken string `json:"refreshToken"`
			} `json:"tokens"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Data.Tokens.AccessToken, resp.Data.Tokens.RefreshToken
}

// TestTaskLifecycle walks one task through creation, cross-user denial,
// admin access, scoped listing, and admin-only deletion.
func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t)

	uToken, _ := env.registerUser(t, "Ursula", "ursula@example.com")
	vToken, _ := env.registerUser(t, "Victor", "victor@example.com")
	aToken := env.adminToken(t)

	// U creates T.
	rec := env.do(t, http.MethodPost, "/api/v1/tasks", uToken, map[string]string{
		"title": "Buy milk", "description": "2% milk", "status": "pending",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created struct {
		Data struct {
			ID        string `json:"id"`
			CreatedBy string `json:"createdBy"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	taskID := created.Data.ID

	// V cannot read T.
	if rec := env.do(t, http.MethodGet, "/api/v1/tasks/"+taskID, vToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("stranger get: status %d, want 403", rec.Code)
	}

	// Admin reads the full record.
	rec = env.do(t, http.MethodGet, "/api/v1/tasks/"+taskID, aToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin get: status %d", rec.Code)
	}
	var fetched struct {
		Data struct {
			Title     string `json:"title"`
			CreatedBy string `json:"createdBy"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode admin get: %v", err)
	}
	if fetched.Data.Title != "Buy milk" || fetched.Data.CreatedBy != created.Data.CreatedBy {
		t.Errorf("admin sees %+v, want full record", fetched.Data)
	}

	// T is absent from V's list.
	rec = env.do(t, http.MethodGet, "/api/v1/tasks", vToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stranger list: status %d", rec.Code)
	}
	env2 := decodeEnvelope(t, rec)
	if env2.Count == nil || *env2.Count != 0 {
		t.Errorf("stranger list count = %v, want 0", env2.Count)
	}

	// Owner cannot delete; admin can.
	if rec := env.do(t, http.MethodDelete, "/api/v1/tasks/"+taskID, uToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("owner delete: status %d, want 403", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/v1/tasks/"+taskID, aToken, nil); rec.Code != http.StatusOK {
		t.Errorf("admin delete: status %d, want 200", rec.Code)
	}

	// Gone for everyone afterwards.
	for name, token := range map[string]string{"owner": uToken, "stranger": vToken, "admin": aToken} {
		if rec := env.do(t, http.MethodGet, "/api/v1/tasks/"+taskID, token, nil); rec.Code != http.StatusNotFound {
			t.Errorf("%s get after delete: status %d, want 404", name, rec.Code)
		}
	}
}
