package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool is a named, schema-described unit of work the agent can invoke.
type Tool interface {
	// Name returns the unique identifier of the tool.
	Name() string

	// Description returns a description of the tool's functionality.
	// The model uses this to decide when to call the tool.
	Description() string

	// InputSchema returns the JSON schema of the tool's arguments.
	InputSchema() *jsonschema.Schema

	// Execute runs the tool with raw JSON arguments as produced by the
	// model. The returned value must be JSON-serializable.
	Execute(ctx context.Context, input json.RawMessage) (any, error)
}

// ExecutableTool is the standard Tool implementation. It encapsulates
// metadata and a type-erased execution function so tools with different
// input types can be stored uniformly.
type ExecutableTool struct {
	name        string
	description string
	schema      *jsonschema.Schema
	handler     func(context.Context, json.RawMessage) (any, error)
}

// Name returns the tool's unique identifier.
func (t *ExecutableTool) Name() string { return t.name }

// Description returns the tool's functionality description.
func (t *ExecutableTool) Description() string { return t.description }

// InputSchema returns the schema derived from the tool's input type.
func (t *ExecutableTool) InputSchema() *jsonschema.Schema { return t.schema }

// Execute runs the tool with the given context and raw arguments.
func (t *ExecutableTool) Execute(ctx context.Context, input json.RawMessage) (any, error) {
	return t.handler(ctx, input)
}

// NewTool creates a tool from a typed handler.
//
// Type safety is guaranteed at compile time via generics [In, Out]; the
// argument schema is inferred from In, and type erasure happens internally
// so the Registry can store heterogeneous tools.
//
// Example:
//
//	tool, err := NewTool(
//	    "get_surf_forecast",
//	    "Get the surf forecast for a known surf spot.",
//	    func(ctx context.Context, input ForecastInput) (*forecast.Report, error) {
//	        return client.Forecast(ctx, input.Location, input.When)
//	    },
//	)
func NewTool[In, Out any](
	name string,
	description string,
	handler func(context.Context, In) (Out, error),
) (*ExecutableTool, error) {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return nil, fmt.Errorf("derive schema for tool %s: %w", name, err)
	}

	erased := func(ctx context.Context, raw json.RawMessage) (any, error) {
		var input In
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &input); err != nil {
				return nil, fmt.Errorf("invalid arguments for tool %s: %w", name, err)
			}
		}
		return handler(ctx, input)
	}

	return &ExecutableTool{
		name:        name,
		description: description,
		schema:      schema,
		handler:     erased,
	}, nil
}
