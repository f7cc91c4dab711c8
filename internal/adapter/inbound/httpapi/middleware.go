package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskdeck/taskdeck/internal/ctxkey"
	"github.com/taskdeck/taskdeck/internal/domain/auth"
)

// authMiddleware verifies the bearer token and stores the resulting
// actor in the request context. Requests without a valid token get a
// 401 envelope and never reach the wrapped handler.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			h.unauthorized(w, "missing bearer token")
			return
		}

		actor, err := auth.ParseAccessToken(raw, h.jwtSecret)
		if err != nil {
			h.unauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxkey.ActorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) unauthorized(w http.ResponseWriter, message string) {
	if h.metrics != nil {
		h.metrics.AuthFailures.Inc()
	}
	h.respondError(w, http.StatusUnauthorized, message)
}

// bearerToken extracts the token from the Authorization header.
// Returns "" when the header is absent or not a Bearer scheme.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// actorFrom returns the authenticated actor placed in the context by
// authMiddleware. The empty actor means the middleware did not run.
func actorFrom(ctx context.Context) (auth.Actor, bool) {
	actor, ok := ctx.Value(ctxkey.ActorKey{}).(auth.Actor)
	return actor, ok
}
