package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/smithers-ai/smithers/internal/agent"
	"github.com/smithers-ai/smithers/internal/log"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "googleai/gemini-2.5-flash"

// DefaultSystemPrompt frames the assistant and its two tools.
const DefaultSystemPrompt = `You are Smithers, a helpful surf assistant with access to tools.

You can:
- Search the knowledge base for surfing information (use search_knowledge_base)
- Get surf forecasts for Australian surf spots (use get_surf_forecast)

For surf forecasts:
- Extract the spot name and time reference from the user's question
- Time references: "today", "tomorrow", or a weekday name within the next three days
- If no time is given, default to "today"
- Reports cover morning, midday and afternoon sessions, each with a 1-10 rating
- Wave heights are reported in feet

Be concise and helpful. Use tools when they would improve your answer.`

// Config holds Gemini decider dependencies.
type Config struct {
	Genkit *genkit.Genkit // Required
	Logger log.Logger     // Required

	// ModelName overrides DefaultModel.
	ModelName string
	// SystemPrompt overrides DefaultSystemPrompt.
	SystemPrompt string
}

// Gemini is the production Decider. It declares the tool catalog to the
// model and returns tool requests unexecuted, leaving execution to the
// agent loop.
type Gemini struct {
	g            *genkit.Genkit
	logger       log.Logger
	modelName    string
	systemPrompt string

	// Genkit tool definitions are process-global per name, so cache them.
	mu      sync.Mutex
	defined map[string]ai.Tool
}

// New creates a Gemini decider.
func New(cfg Config) (*Gemini, error) {
	if cfg.Genkit == nil {
		return nil, errors.New("genkit instance is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}

	return &Gemini{
		g:            cfg.Genkit,
		logger:       cfg.Logger,
		modelName:    cfg.ModelName,
		systemPrompt: cfg.SystemPrompt,
		defined:      make(map[string]ai.Tool),
	}, nil
}

// Decide runs one generation over the conversation and maps the outcome
// onto a Decision: tool requests become an invoke decision, otherwise the
// response text is final.
func (m *Gemini) Decide(ctx context.Context, history []agent.Turn, tools []agent.ToolInfo, cb agent.ChunkCallback) (agent.Decision, error) {
	messages, err := toMessages(history)
	if err != nil {
		return agent.Decision{}, err
	}

	opts := []ai.GenerateOption{
		ai.WithModelName(m.modelName),
		ai.WithSystem(m.systemPrompt),
		ai.WithMessages(messages...),
		// The agent loop owns tool execution; Genkit must hand requests back.
		ai.WithReturnToolRequests(true),
	}
	if refs := m.toolRefs(tools); len(refs) > 0 {
		opts = append(opts, ai.WithTools(refs...))
	}
	if cb != nil {
		opts = append(opts, ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			text := chunk.Text()
			if text == "" {
				return nil
			}
			return cb(ctx, text)
		}))
	}

	resp, err := genkit.Generate(ctx, m.g, opts...)
	if err != nil {
		return agent.Decision{}, fmt.Errorf("generate: %w", err)
	}

	if requests := resp.ToolRequests(); len(requests) > 0 {
		calls, err := callsFromRequests(requests)
		if err != nil {
			return agent.Decision{}, err
		}
		m.logger.Debug("model requested tools", "calls", len(calls))
		return agent.Invoke(calls...), nil
	}

	return agent.Respond(resp.Text()), nil
}

// toolRefs lazily defines each tool on the Genkit instance so the model
// sees its schema. Handlers are never invoked; they exist only because a
// Genkit tool definition requires one.
func (m *Gemini) toolRefs(tools []agent.ToolInfo) []ai.ToolRef {
	m.mu.Lock()
	defer m.mu.Unlock()

	refs := make([]ai.ToolRef, 0, len(tools))
	for _, info := range tools {
		tool, ok := m.defined[info.Name]
		if !ok {
			name := info.Name
			tool = genkit.DefineToolWithInputSchema(m.g, name, info.Description, schemaToMap(info.InputSchema),
				func(_ *ai.ToolContext, _ any) (any, error) {
					return nil, fmt.Errorf("tool %s is executed by the agent loop, not genkit", name)
				})
			m.defined[name] = tool
		}
		refs = append(refs, tool)
	}
	return refs
}

// toMessages converts stored turns into Genkit messages, replaying tool
// requests and responses in the roles Gemini expects.
func toMessages(history []agent.Turn) ([]*ai.Message, error) {
	messages := make([]*ai.Message, 0, len(history))
	for _, turn := range history {
		switch {
		case turn.Role == agent.RoleUser:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(turn.Content)))

		case turn.Role == agent.RoleAssistant && turn.Call != nil:
			messages = append(messages, &ai.Message{
				Role: ai.RoleModel,
				Content: []*ai.Part{ai.NewToolRequestPart(&ai.ToolRequest{
					Name:  turn.Call.Name,
					Ref:   turn.Call.Ref,
					Input: decodeJSON(turn.Call.Input),
				})},
			})

		case turn.Role == agent.RoleAssistant:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(turn.Content)))

		case turn.Role == agent.RoleTool && turn.Result != nil:
			messages = append(messages, &ai.Message{
				Role: ai.RoleTool,
				Content: []*ai.Part{ai.NewToolResponsePart(&ai.ToolResponse{
					Name:   turn.Result.Name,
					Ref:    turn.Result.Ref,
					Output: resultOutput(turn.Result),
				})},
			})

		default:
			return nil, fmt.Errorf("turn with role %q has no content to convert", turn.Role)
		}
	}
	return messages, nil
}

// resultOutput folds failed tool results into structured output the model
// can reason about, instead of dropping them.
func resultOutput(result *agent.ToolResult) any {
	if result.OK {
		return result.Output
	}
	return map[string]any{
		"error":   result.Err.Code,
		"message": result.Err.Message,
	}
}

func callsFromRequests(requests []*ai.ToolRequest) ([]agent.ToolCall, error) {
	calls := make([]agent.ToolCall, 0, len(requests))
	for _, req := range requests {
		input, err := json.Marshal(req.Input)
		if err != nil {
			return nil, fmt.Errorf("marshal arguments for tool %s: %w", req.Name, err)
		}
		ref := req.Ref
		if ref == "" {
			// Gemini does not always correlate requests; synthesize one.
			ref = agent.NewRef()
		}
		calls = append(calls, agent.ToolCall{Ref: ref, Name: req.Name, Input: input})
	}
	return calls, nil
}

// schemaToMap converts a JSON schema into the map form genkit's
// DefineToolWithInputSchema expects, preserving the schema verbatim.
func schemaToMap(schema *jsonschema.Schema) map[string]any {
	if schema == nil {
		return nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func decodeJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
