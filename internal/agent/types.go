package agent

import (
	"encoding/json"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
)

// Role identifies who produced a Turn.
type Role string

// Valid turn roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one atomic unit of conversation history. Exactly one of Content,
// Call, or Result carries the payload: user and assistant turns carry text,
// an assistant turn may instead carry a tool call, and a tool turn carries
// the matching result. Turns are immutable once appended to a session.
type Turn struct {
	Role      Role        `json:"role"`
	Content   string      `json:"content,omitempty"`
	Call      *ToolCall   `json:"call,omitempty"`
	Result    *ToolResult `json:"result,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewUserTurn creates a user text turn.
func NewUserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: text, CreatedAt: time.Now()}
}

// NewAssistantTurn creates an assistant text turn.
func NewAssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Content: text, CreatedAt: time.Now()}
}

// NewCallTurn creates an assistant turn carrying a tool call.
func NewCallTurn(call ToolCall) Turn {
	return Turn{Role: RoleAssistant, Call: &call, CreatedAt: time.Now()}
}

// NewResultTurn creates a tool turn carrying a tool result.
func NewResultTurn(result ToolResult) Turn {
	return Turn{Role: RoleTool, Result: &result, CreatedAt: time.Now()}
}

// ToolCall is a requested capability invocation. Ref correlates the call
// with its eventual ToolResult within one loop iteration.
type ToolCall struct {
	Ref   string          `json:"ref"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input,omitempty"`
}

// NewRef returns a fresh correlation id for a ToolCall.
func NewRef() string {
	return uuid.NewString()
}

// Tool failure codes carried in ToolError.Code. These mirror the loop's
// recoverable error taxonomy; the model sees them as data, never as a
// crashed turn.
const (
	CodeUnknownTool = "unknown_tool"
	CodeTimeout     = "timeout"
	CodeExecution   = "execution_error"
)

// ToolError describes a failed tool call in a form the model can reason
// about.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e == nil {
		return "<nil ToolError>"
	}
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// ToolResult is the outcome of a ToolCall, correlated by Ref.
// On success Output holds the tool's structured payload; on failure Err
// describes what went wrong.
type ToolResult struct {
	Ref    string     `json:"ref"`
	Name   string     `json:"name"`
	OK     bool       `json:"ok"`
	Output any        `json:"output,omitempty"`
	Err    *ToolError `json:"error,omitempty"`
}

// Decision is the Decider's verdict for one loop iteration: either a final
// text response (terminal) or a batch of tool calls (non-terminal).
type Decision struct {
	Text  string
	Calls []ToolCall
}

// Respond builds a terminal Decision carrying final text.
func Respond(text string) Decision {
	return Decision{Text: text}
}

// Invoke builds a non-terminal Decision carrying tool calls.
func Invoke(calls ...ToolCall) Decision {
	return Decision{Calls: calls}
}

// Terminal reports whether the decision ends the loop.
func (d Decision) Terminal() bool {
	return len(d.Calls) == 0
}

// ToolInfo describes a registered tool to the Decider: its name, what it
// does, and the JSON schema of its arguments.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// State is the loop's position in its state machine. Exposed mainly for
// logging and tests.
type State int

// Loop states.
const (
	StateAwaitingDecision State = iota
	StateExecutingTools
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAwaitingDecision:
		return "awaiting_decision"
	case StateExecutingTools:
		return "executing_tools"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
