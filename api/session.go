package api

import (
	"errors"
	"net/http"

	"github.com/smithers-ai/smithers/internal/log"
	"github.com/smithers-ai/smithers/internal/session"
)

// SessionHandler handles session-related HTTP endpoints.
type SessionHandler struct {
	store  *session.Store
	logger log.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(store *session.Store, logger log.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", h.list)
	mux.HandleFunc("GET /api/sessions/{id}/history", h.history)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.remove)
}

// list returns all sessions, most recently active first.
func (h *SessionHandler) list(w http.ResponseWriter, _ *http.Request) {
	sessions := h.store.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// history returns the committed transcript of one session.
func (h *SessionHandler) history(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	meta, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		h.logger.Error("failed to load session", "sessionId", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session": meta,
		"turns":   h.store.History(id),
	})
}

// remove deletes a session and its history.
func (h *SessionHandler) remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		h.logger.Error("failed to delete session", "sessionId", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
