package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cespare/xxhash/v2"

	"github.com/taskdeck/taskdeck/internal/domain/task"
)

// handleListTasks returns the tasks visible to the actor, newest first.
// Admins see all tasks; users see only their own.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		h.unauthorized(w, "missing bearer token")
		return
	}

	tasks, err := h.tasks.List(r.Context(), actor)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	if h.serveCached(w, r, tasks) {
		return
	}
	h.respondList(w, http.StatusOK, len(tasks), tasks)
}

// handleGetTask returns a single task.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		h.unauthorized(w, "missing bearer token")
		return
	}

	t, err := h.tasks.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	if h.serveCached(w, r, t) {
		return
	}
	h.respondJSON(w, http.StatusOK, t)
}

// handleCreateTask creates a task owned by the actor.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		h.unauthorized(w, "missing bearer token")
		return
	}

	var input task.CreateInput
	if err := h.readJSON(r, &input); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := h.tasks.Create(r.Context(), actor, input)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, created)
}

// handleUpdateTask applies a partial update to a task.
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		h.unauthorized(w, "missing bearer token")
		return
	}

	var input task.UpdateInput
	if err := h.readJSON(r, &input); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated, err := h.tasks.Update(r.Context(), actor, r.PathValue("id"), input)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, updated)
}

// handleDeleteTask removes a task. Admin only.
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		h.unauthorized(w, "missing bearer token")
		return
	}

	if err := h.tasks.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// serveCached computes a weak ETag over the response data and answers
// 304 when it matches If-None-Match. Returns true when the response has
// been fully handled.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, data any) bool {
	body, err := json.Marshal(data)
	if err != nil {
		return false
	}

	etag := fmt.Sprintf(`W/"%x"`, xxhash.Sum64(body))
	w.Header().Set("ETag", etag)

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}
