package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

type echoOutput struct {
	Echoed string `json:"echoed"`
}

func newEchoTool(t *testing.T) *ExecutableTool {
	t.Helper()
	tool, err := NewTool("echo", "Echo the message back.",
		func(ctx context.Context, in echoInput) (echoOutput, error) {
			return echoOutput{Echoed: in.Message}, nil
		})
	require.NoError(t, err)
	return tool
}

func TestNewTool_Metadata(t *testing.T) {
	tool := newEchoTool(t)

	assert.Equal(t, "echo", tool.Name())
	assert.Equal(t, "Echo the message back.", tool.Description())

	schema := tool.InputSchema()
	require.NotNil(t, schema)
	assert.Contains(t, schema.Properties, "message")
	assert.Contains(t, schema.Properties, "count")
}

func TestExecutableTool_Execute(t *testing.T) {
	tool := newEchoTool(t)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"message":"hello"}`))
	require.NoError(t, err)
	assert.Equal(t, echoOutput{Echoed: "hello"}, out)
}

func TestExecutableTool_Execute_EmptyInput(t *testing.T) {
	tool := newEchoTool(t)

	// No raw arguments means the zero-value input.
	out, err := tool.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, echoOutput{}, out)
}

func TestExecutableTool_Execute_InvalidJSON(t *testing.T) {
	tool := newEchoTool(t)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{broken`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments for tool echo")
}

func TestExecutableTool_Execute_HandlerError(t *testing.T) {
	boom := errors.New("handler blew up")
	tool, err := NewTool("boom", "Always fails.",
		func(ctx context.Context, in echoInput) (echoOutput, error) {
			return echoOutput{}, boom
		})
	require.NoError(t, err)

	_, err = tool.Execute(context.Background(), json.RawMessage(`{}`))
	assert.ErrorIs(t, err, boom)
}

func TestExecutableTool_Execute_RespectsContext(t *testing.T) {
	tool, err := NewTool("wait", "Waits for cancellation.",
		func(ctx context.Context, in echoInput) (echoOutput, error) {
			<-ctx.Done()
			return echoOutput{}, ctx.Err()
		})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tool.Execute(ctx, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, context.Canceled)
}
