package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithers-ai/smithers/internal/agent"
	"github.com/smithers-ai/smithers/internal/log"
	"github.com/smithers-ai/smithers/internal/session"
)

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.New(session.Config{Logger: log.NewNop()})
	require.NoError(t, err)
	return store
}

// serveMux routes the request through a mux so PathValue is populated.
func serveMux(h *SessionHandler, r *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	return rec
}

func TestSessionList(t *testing.T) {
	store := newTestStore(t)
	store.Append("s-1", agent.NewUserTurn("hi"), agent.NewAssistantTurn("hello"))
	store.Append("s-2", agent.NewUserTurn("yo"), agent.NewAssistantTurn("hey"))

	h := NewSessionHandler(store, log.NewNop())
	rec := serveMux(h, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sessions []session.Meta `json:"sessions"`
		Total    int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Sessions, 2)
}

func TestSessionHistory(t *testing.T) {
	t.Run("returns transcript", func(t *testing.T) {
		store := newTestStore(t)
		store.Append("s-1", agent.NewUserTurn("hi"), agent.NewAssistantTurn("hello"))

		h := NewSessionHandler(store, log.NewNop())
		rec := serveMux(h, httptest.NewRequest(http.MethodGet, "/api/sessions/s-1/history", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Session session.Meta `json:"session"`
			Turns   []agent.Turn `json:"turns"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "s-1", resp.Session.ID)
		require.Len(t, resp.Turns, 2)
		assert.Equal(t, agent.RoleUser, resp.Turns[0].Role)
		assert.Equal(t, "hi", resp.Turns[0].Content)
	})

	t.Run("unknown session is 404", func(t *testing.T) {
		h := NewSessionHandler(newTestStore(t), log.NewNop())
		rec := serveMux(h, httptest.NewRequest(http.MethodGet, "/api/sessions/nope/history", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSessionDelete(t *testing.T) {
	t.Run("deletes existing session", func(t *testing.T) {
		store := newTestStore(t)
		store.Append("s-1", agent.NewUserTurn("hi"), agent.NewAssistantTurn("hello"))

		h := NewSessionHandler(store, log.NewNop())
		rec := serveMux(h, httptest.NewRequest(http.MethodDelete, "/api/sessions/s-1", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("unknown session is 404", func(t *testing.T) {
		h := NewSessionHandler(newTestStore(t), log.NewNop())
		rec := serveMux(h, httptest.NewRequest(http.MethodDelete, "/api/sessions/nope", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
