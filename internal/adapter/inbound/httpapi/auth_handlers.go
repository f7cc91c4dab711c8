package httpapi

import (
	"net/http"
	"time"

	"github.com/taskdeck/taskdeck/internal/domain/auth"
)

// userResponse is the public view of a user. The password hash never
// leaves the server.
type userResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// sessionResponse pairs the user with a fresh token pair.
type sessionResponse struct {
	User   userResponse    `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// handleRegister creates a new account and returns its first session.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input auth.RegisterInput
	if err := h.readJSON(r, &input); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, pair, err := h.identity.Register(r.Context(), input)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.sessionOpened()

	h.respondJSON(w, http.StatusCreated, sessionResponse{User: toUserResponse(user), Tokens: pair})
}

// handleLogin verifies credentials and returns a new session.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input auth.LoginInput
	if err := h.readJSON(r, &input); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, pair, err := h.identity.Login(r.Context(), input)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.sessionOpened()

	h.respondJSON(w, http.StatusOK, sessionResponse{User: toUserResponse(user), Tokens: pair})
}

// refreshRequest carries the raw refresh token for rotation and logout.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// handleRefresh rotates a refresh token into a new token pair.
// The presented token is consumed whether or not rotation succeeds.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := h.readJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	pair, err := h.identity.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RefreshFailures.Inc()
		}
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, pair)
}

// handleLogout terminates the session for the given refresh token.
// Always succeeds: an unknown token is already logged out.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := h.readJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.identity.Logout(r.Context(), req.RefreshToken); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.sessionClosed()

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// sessionOpened and sessionClosed track the session gauge: opens minus
// explicit logouts. Expiry does not move it.
func (h *Handler) sessionOpened() {
	if h.metrics != nil {
		h.metrics.ActiveSessions.Inc()
	}
}

func (h *Handler) sessionClosed() {
	if h.metrics != nil {
		h.metrics.ActiveSessions.Dec()
	}
}

// handleMe returns the authenticated user's account.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		h.unauthorized(w, "missing bearer token")
		return
	}

	user, err := h.identity.GetUser(r.Context(), actor.ID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toUserResponse(user))
}
