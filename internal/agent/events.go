package agent

// EventKind discriminates streamed turn events.
type EventKind string

const (
	// EventChunk carries a fragment of the assistant's response text.
	EventChunk EventKind = "chunk"
	// EventToolStart announces a tool invocation before it runs.
	EventToolStart EventKind = "tool_start"
	// EventToolResult carries the outcome of one tool invocation.
	EventToolResult EventKind = "tool_result"
	// EventDone closes the turn with the complete response text. It is
	// emitted after the turn has been committed to the session store.
	EventDone EventKind = "done"
)

// Event is a single observable step of an in-flight turn. Exactly one of
// Call, Result or Text is populated depending on Kind; EventDone always
// carries the full response text, equal to the concatenation of all
// EventChunk texts for the same turn.
type Event struct {
	Kind   EventKind   `json:"kind"`
	Call   *ToolCall   `json:"call,omitempty"`
	Result *ToolResult `json:"result,omitempty"`
	Text   string      `json:"text,omitempty"`
}

func chunkEvent(text string) Event       { return Event{Kind: EventChunk, Text: text} }
func toolStartEvent(c ToolCall) Event    { return Event{Kind: EventToolStart, Call: &c} }
func toolResultEvent(r ToolResult) Event { return Event{Kind: EventToolResult, Result: &r} }
func doneEvent(text string) Event        { return Event{Kind: EventDone, Text: text} }
