package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecision_Terminal(t *testing.T) {
	assert.True(t, Respond("hi").Terminal())
	assert.True(t, Respond("").Terminal())
	assert.False(t, Invoke(ToolCall{Ref: "r", Name: "x"}).Terminal())
}

func TestTurnConstructors(t *testing.T) {
	user := NewUserTurn("hello")
	assert.Equal(t, RoleUser, user.Role)
	assert.Equal(t, "hello", user.Content)
	assert.False(t, user.CreatedAt.IsZero())

	assistant := NewAssistantTurn("hi")
	assert.Equal(t, RoleAssistant, assistant.Role)

	call := ToolCall{Ref: NewRef(), Name: "lookup", Input: json.RawMessage(`{}`)}
	callTurn := NewCallTurn(call)
	assert.Equal(t, RoleAssistant, callTurn.Role)
	require.NotNil(t, callTurn.Call)
	assert.Equal(t, call.Ref, callTurn.Call.Ref)

	resultTurn := NewResultTurn(ToolResult{Ref: call.Ref, Name: "lookup", OK: true})
	assert.Equal(t, RoleTool, resultTurn.Role)
	require.NotNil(t, resultTurn.Result)
}

func TestNewRef_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		ref := NewRef()
		assert.NotEmpty(t, ref)
		assert.False(t, seen[ref], "refs must be unique")
		seen[ref] = true
	}
}

func TestToolError_Error(t *testing.T) {
	err := &ToolError{Code: CodeTimeout, Message: "took too long"}
	assert.Contains(t, err.Error(), CodeTimeout)
	assert.Contains(t, err.Error(), "took too long")
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateAwaitingDecision, "awaiting_decision"},
		{StateExecutingTools, "executing_tools"},
		{StateDone, "done"},
		{StateFailed, "failed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestTurn_JSONRoundTrip(t *testing.T) {
	turn := NewResultTurn(ToolResult{
		Ref:  "r1",
		Name: "lookup",
		Err:  &ToolError{Code: CodeExecution, Message: "boom"},
	})

	data, err := json.Marshal(turn)
	require.NoError(t, err)

	var got Turn
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, RoleTool, got.Role)
	require.NotNil(t, got.Result)
	assert.Equal(t, CodeExecution, got.Result.Err.Code)
}
