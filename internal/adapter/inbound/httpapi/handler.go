// Package httpapi provides the JSON API transport for taskdeck.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/domain/auth"
	"github.com/taskdeck/taskdeck/internal/domain/policy"
	"github.com/taskdeck/taskdeck/internal/domain/task"
	"github.com/taskdeck/taskdeck/internal/service"
)

// Handler serves the /api/v1 routes.
type Handler struct {
	identity  *service.IdentityService
	tasks     *service.TaskService
	jwtSecret []byte
	metrics   *Metrics
	rateLimit *rateLimiter
	logger    *slog.Logger
}

// Option configures a Handler dependency.
type Option func(*Handler)

// WithIdentityService sets the identity service.
func WithIdentityService(s *service.IdentityService) Option {
	return func(h *Handler) { h.identity = s }
}

// WithTaskService sets the task service.
func WithTaskService(s *service.TaskService) Option {
	return func(h *Handler) { h.tasks = s }
}

// WithJWTSecret sets the access token verification key.
func WithJWTSecret(secret []byte) Option {
	return func(h *Handler) { h.jwtSecret = secret }
}

// WithMetrics sets the Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithRateLimit enables per-IP rate limiting on the credential endpoints
// (register, login, refresh) at the given requests per minute.
func WithRateLimit(perMinute int) Option {
	return func(h *Handler) { h.rateLimit = newRateLimiter(perMinute) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// NewHandler creates a new Handler with the given options.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns an http.Handler with all API routes registered.
// Credential endpoints are rate limited; everything under /api/v1/tasks
// and /api/v1/auth/me requires a valid bearer token.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// Credential endpoints: no bearer token, rate limited per IP.
	mux.Handle("POST /api/v1/auth/register", h.limitByIP(http.HandlerFunc(h.handleRegister)))
	mux.Handle("POST /api/v1/auth/login", h.limitByIP(http.HandlerFunc(h.handleLogin)))
	mux.Handle("POST /api/v1/auth/refresh", h.limitByIP(http.HandlerFunc(h.handleRefresh)))
	mux.HandleFunc("POST /api/v1/auth/logout", h.handleLogout)

	// Authenticated routes.
	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/v1/auth/me", h.handleMe)
	protected.HandleFunc("GET /api/v1/tasks", h.handleListTasks)
	protected.HandleFunc("POST /api/v1/tasks", h.handleCreateTask)
	protected.HandleFunc("GET /api/v1/tasks/{id}", h.handleGetTask)
	protected.HandleFunc("PUT /api/v1/tasks/{id}", h.handleUpdateTask)
	protected.HandleFunc("DELETE /api/v1/tasks/{id}", h.handleDeleteTask)

	mux.Handle("GET /api/v1/auth/me", h.authMiddleware(protected))
	mux.Handle("/api/v1/tasks", h.authMiddleware(protected))
	mux.Handle("/api/v1/tasks/", h.authMiddleware(protected))

	return mux
}

// envelope is the JSON shape of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// respondJSON writes a success envelope with the given status and data.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	h.writeEnvelope(w, status, envelope{Success: true, Data: data})
}

// respondList writes a success envelope with a count for collections.
func (h *Handler) respondList(w http.ResponseWriter, status int, count int, data any) {
	h.writeEnvelope(w, status, envelope{Success: true, Count: &count, Data: data})
}

// respondError writes a failure envelope with the given status and message.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.writeEnvelope(w, status, envelope{Success: false, Message: message})
}

func (h *Handler) writeEnvelope(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

// respondServiceError maps a service error to an HTTP status.
// Not-found errors surface before authorization errors, so callers can
// never distinguish a hidden resource from a missing one.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, task.ErrValidation), errors.Is(err, auth.ErrValidation):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrRefreshInvalid):
		h.respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, policy.ErrNotAuthorized):
		h.respondError(w, http.StatusForbidden, "not authorized to access this task")
	case errors.Is(err, task.ErrTaskNotFound):
		h.respondError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, auth.ErrUserNotFound):
		h.respondError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, auth.ErrEmailTaken):
		h.respondError(w, http.StatusConflict, "email already registered")
	default:
		LoggerFromContext(r.Context(), h.logger).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// readJSON decodes the request body into v.
func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
