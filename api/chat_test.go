package api

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithers-ai/smithers/internal/agent"
	"github.com/smithers-ai/smithers/internal/log"
	"github.com/smithers-ai/smithers/internal/session"
)

// fakeAgent is a canned Agent implementation for handler tests.
type fakeAgent struct {
	text      string
	err       error
	events    []agent.Event
	streamErr error

	gotSessionID string
	gotMessage   string
}

func (f *fakeAgent) RunTurn(_ context.Context, sessionID, message string) (string, error) {
	f.gotSessionID = sessionID
	f.gotMessage = message
	return f.text, f.err
}

func (f *fakeAgent) Stream(_ context.Context, sessionID, message string) iter.Seq2[agent.Event, error] {
	f.gotSessionID = sessionID
	f.gotMessage = message
	return func(yield func(agent.Event, error) bool) {
		if f.streamErr != nil {
			yield(agent.Event{}, f.streamErr)
			return
		}
		for _, ev := range f.events {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func chatRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
}

func TestHandleChat(t *testing.T) {
	t.Run("returns response with supplied session id", func(t *testing.T) {
		fa := &fakeAgent{text: "Bells is firing today."}
		h := NewChatHandler(fa, log.NewNop())

		rec := httptest.NewRecorder()
		h.handleChat(rec, chatRequest(t, `{"message":"how is bells?","sessionId":"s-1"}`))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp ChatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Bells is firing today.", resp.Response)
		assert.Equal(t, "s-1", resp.SessionID)
		assert.Equal(t, "s-1", fa.gotSessionID)
		assert.Equal(t, "how is bells?", fa.gotMessage)
	})

	t.Run("generates session id when omitted", func(t *testing.T) {
		fa := &fakeAgent{text: "hello"}
		h := NewChatHandler(fa, log.NewNop())

		rec := httptest.NewRecorder()
		h.handleChat(rec, chatRequest(t, `{"message":"hi"}`))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp ChatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.SessionID)
		assert.Equal(t, resp.SessionID, fa.gotSessionID)
	})

	t.Run("rejects missing message", func(t *testing.T) {
		h := NewChatHandler(&fakeAgent{}, log.NewNop())

		rec := httptest.NewRecorder()
		h.handleChat(rec, chatRequest(t, `{"sessionId":"s-1"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		h := NewChatHandler(&fakeAgent{}, log.NewNop())

		rec := httptest.NewRecorder()
		h.handleChat(rec, chatRequest(t, `{not json`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects oversized message", func(t *testing.T) {
		h := NewChatHandler(&fakeAgent{}, log.NewNop())

		body, err := json.Marshal(ChatRequest{Message: strings.Repeat("x", MaxMessageLength+1)})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		h.handleChat(rec, chatRequest(t, string(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps busy session to conflict", func(t *testing.T) {
		h := NewChatHandler(&fakeAgent{err: session.ErrBusy}, log.NewNop())

		rec := httptest.NewRecorder()
		h.handleChat(rec, chatRequest(t, `{"message":"hi","sessionId":"s-1"}`))

		require.Equal(t, http.StatusConflict, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "session_busy", resp.Error)
	})

	t.Run("decision failures stay generic", func(t *testing.T) {
		h := NewChatHandler(&fakeAgent{err: agent.ErrDecision}, log.NewNop())

		rec := httptest.NewRecorder()
		h.handleChat(rec, chatRequest(t, `{"message":"hi","sessionId":"s-1"}`))

		require.Equal(t, http.StatusBadGateway, rec.Code)
		assert.NotContains(t, rec.Body.String(), agent.ErrDecision.Error())
	})

	t.Run("iteration limit maps to bad gateway", func(t *testing.T) {
		h := NewChatHandler(&fakeAgent{err: agent.ErrIterationLimit}, log.NewNop())

		rec := httptest.NewRecorder()
		h.handleChat(rec, chatRequest(t, `{"message":"hi","sessionId":"s-1"}`))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("open circuit maps to service unavailable", func(t *testing.T) {
		h := NewChatHandler(&fakeAgent{err: agent.ErrCircuitOpen}, log.NewNop())

		rec := httptest.NewRecorder()
		h.handleChat(rec, chatRequest(t, `{"message":"hi","sessionId":"s-1"}`))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleStream(t *testing.T) {
	call := agent.ToolCall{Ref: "r-1", Name: "get_surf_forecast", Input: json.RawMessage(`{"location":"bells"}`)}
	result := agent.ToolResult{Ref: "r-1", Name: "get_surf_forecast", OK: true}

	t.Run("emits event sequence", func(t *testing.T) {
		fa := &fakeAgent{events: []agent.Event{
			{Kind: agent.EventToolStart, Call: &call},
			{Kind: agent.EventToolResult, Result: &result},
			{Kind: agent.EventChunk, Text: "Bells is "},
			{Kind: agent.EventChunk, Text: "firing."},
			{Kind: agent.EventDone, Text: "Bells is firing."},
		}}
		h := NewChatHandler(fa, log.NewNop())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat/stream",
			strings.NewReader(`{"message":"how is bells?","sessionId":"s-1"}`))
		h.handleStream(rec, req)

		body := rec.Body.String()
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		assert.Contains(t, body, "event: tool_start\n")
		assert.Contains(t, body, "event: tool_result\n")
		assert.Contains(t, body, "event: chunk\n")
		assert.Contains(t, body, "event: done\n")
		assert.Contains(t, body, `"Bells is firing."`)

		// Events arrive in loop order: tools before chunks before done.
		assert.Less(t, strings.Index(body, "tool_start"), strings.Index(body, "event: chunk"))
		assert.Less(t, strings.Index(body, "event: chunk"), strings.Index(body, "event: done"))
	})

	t.Run("turn failure becomes error event", func(t *testing.T) {
		fa := &fakeAgent{streamErr: agent.ErrDecision}
		h := NewChatHandler(fa, log.NewNop())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat/stream",
			strings.NewReader(`{"message":"hi","sessionId":"s-1"}`))
		h.handleStream(rec, req)

		body := rec.Body.String()
		assert.Contains(t, body, "event: error\n")
		assert.Contains(t, body, "decision_failed")
		assert.NotContains(t, body, agent.ErrDecision.Error())
	})

	t.Run("invalid body becomes error event", func(t *testing.T) {
		h := NewChatHandler(&fakeAgent{}, log.NewNop())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(`{}`))
		h.handleStream(rec, req)

		assert.Contains(t, rec.Body.String(), "event: error\n")
		assert.Contains(t, rec.Body.String(), "invalid_request")
	})
}
