package agent

import (
	"context"
	"encoding/json"
)

// ChunkCallback receives partial response text as the Decider streams it.
// Chunk boundaries carry no meaning; consumers concatenate chunks to
// recover the full text. Returning an error aborts the stream.
type ChunkCallback func(ctx context.Context, text string) error

// Decider is the external reasoning service that chooses between responding
// and invoking tools. Implementations wrap a language-model call.
//
// Decide must respect ctx cancellation and deadlines. cb may be nil, in
// which case the implementation must not stream. A failure to decide is
// reported as an error, never as a Decision.
type Decider interface {
	Decide(ctx context.Context, history []Turn, tools []ToolInfo, cb ChunkCallback) (Decision, error)
}

// Executor runs one tool with already-validated structured arguments.
type Executor interface {
	Execute(ctx context.Context, input json.RawMessage) (any, error)
}

// ToolSource is the Runner's view of the tool registry.
// Resolve fails with ErrUnknownTool for unregistered names.
type ToolSource interface {
	Describe() []ToolInfo
	Resolve(name string) (Executor, error)
}

// Sessions is the Runner's view of the conversation store.
//
// BeginTurn serializes turns per session: it fails while another turn for
// the same session is in flight. History has get-or-create semantics and
// returns a consistent snapshot. Append must linearize calls for the same
// session; the Runner calls it exactly once per successful turn, with the
// complete batch of new turns.
type Sessions interface {
	BeginTurn(sessionID string) error
	EndTurn(sessionID string)
	History(sessionID string) []Turn
	Append(sessionID string, turns ...Turn)
}
