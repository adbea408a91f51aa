package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/smithers-ai/smithers/internal/agent"
	"github.com/smithers-ai/smithers/internal/log"
	"github.com/smithers-ai/smithers/internal/session"
)

// MaxMessageLength bounds the chat message body.
const MaxMessageLength = 10000

// Agent runs conversation turns. Satisfied by *agent.Runner.
type Agent interface {
	RunTurn(ctx context.Context, sessionID, message string) (string, error)
	Stream(ctx context.Context, sessionID, message string) iter.Seq2[agent.Event, error]
}

// ChatHandler handles chat-related HTTP endpoints.
//
// Endpoints:
//   - POST /api/chat        - synchronous chat (JSON request/response)
//   - POST /api/chat/stream - streaming chat (SSE - Server-Sent Events)
type ChatHandler struct {
	agent  Agent
	logger log.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(agent Agent, logger log.Logger) *ChatHandler {
	return &ChatHandler{agent: agent, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
	mux.HandleFunc("POST /api/chat/stream", h.handleStream)
}

// ChatRequest is the request body for both chat endpoints.
// SessionID is optional; a new session is created when it is empty.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// ChatResponse is the response body for the synchronous chat endpoint.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

// decodeChatRequest parses and validates the request body.
// An empty session id is replaced with a fresh UUID.
func decodeChatRequest(r *http.Request) (ChatRequest, error) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	if strings.TrimSpace(req.Message) == "" {
		return req, errors.New("message is required")
	}
	if len(req.Message) > MaxMessageLength {
		return req, fmt.Errorf("message too long (max %d characters)", MaxMessageLength)
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	return req, nil
}

// turnError maps agent/session errors onto an HTTP status, an error code,
// and a client-safe message. Internal details are logged, never returned.
func turnError(err error) (int, string, string) {
	switch {
	case errors.Is(err, agent.ErrEmptyMessage):
		return http.StatusBadRequest, "empty_message", "message is required"
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "session_busy", "another turn is already in progress for this session"
	case errors.Is(err, agent.ErrIterationLimit):
		return http.StatusBadGateway, "iteration_limit", "the assistant could not complete the request"
	case errors.Is(err, agent.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "unavailable", "the assistant is temporarily unavailable, try again shortly"
	case errors.Is(err, agent.ErrDecisionTimeout), errors.Is(err, agent.ErrDecision):
		return http.StatusBadGateway, "decision_failed", "the assistant could not produce a response"
	default:
		return http.StatusInternalServerError, "internal", "internal server error"
	}
}

// handleChat handles the synchronous chat endpoint.
func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	text, err := h.agent.RunTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		status, code, message := turnError(err)
		h.logger.Error("chat turn failed", "sessionId", req.SessionID, "error", err)
		writeError(w, status, code, message)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Response: text, SessionID: req.SessionID})
}

// SSEDoneData is the data payload for "done" events.
type SSEDoneData struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

// SSEErrorData is the data payload for "error" events.
type SSEErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleStream handles the SSE streaming endpoint.
//
// Request body: {"message": "...", "sessionId": "..."}
// Response: Server-Sent Events stream
//
// Event types:
//   - chunk:       partial response text {"text": "..."}
//   - tool_start:  a tool invocation began {"kind": "tool_start", "call": {...}}
//   - tool_result: a tool invocation finished {"kind": "tool_result", "result": {...}}
//   - done:        final response {"response": "...", "sessionId": "..."}
//   - error:       turn failed {"code": "...", "message": "..."}
func (h *ChatHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	req, err := decodeChatRequest(r)
	if err != nil {
		h.writeSSEError(w, flusher, "invalid_request", err.Error())
		return
	}

	ctx := r.Context()
	h.logger.Info("SSE stream started", "sessionId", req.SessionID)

	for event, streamErr := range h.agent.Stream(ctx, req.SessionID, req.Message) {
		// Stop writing once the client disconnects; the runner observes the
		// closed body via the request context and winds the turn down.
		select {
		case <-ctx.Done():
			h.logger.Info("client disconnected", "sessionId", req.SessionID)
			return
		default:
		}

		if streamErr != nil {
			_, code, message := turnError(streamErr)
			h.logger.Error("stream failed", "sessionId", req.SessionID, "error", streamErr)
			h.writeSSEError(w, flusher, code, message)
			return
		}

		switch event.Kind {
		case agent.EventChunk:
			h.writeSSEEvent(w, flusher, "chunk", map[string]string{"text": event.Text})
		case agent.EventToolStart, agent.EventToolResult:
			h.writeSSEEvent(w, flusher, string(event.Kind), event)
		case agent.EventDone:
			h.writeSSEEvent(w, flusher, "done", SSEDoneData{Response: event.Text, SessionID: req.SessionID})
			h.logger.Info("SSE stream completed",
				"sessionId", req.SessionID,
				"responseLen", len(event.Text))
		}
	}
}

// writeSSEEvent writes a named event to the SSE stream.
func (h *ChatHandler) writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal SSE payload", "event", name, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	flusher.Flush()
}

// writeSSEError writes an error event to the SSE stream.
func (h *ChatHandler) writeSSEError(w http.ResponseWriter, flusher http.Flusher, code, message string) {
	h.writeSSEEvent(w, flusher, "error", SSEErrorData{Code: code, Message: message})
}
