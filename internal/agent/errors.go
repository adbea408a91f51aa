package agent

import "errors"

// Sentinel errors for loop outcomes. These are part of the Runner's public
// API and should be checked with errors.Is().
//
// Tool-level failures are not represented here: an unknown tool, a tool
// timeout, or a tool execution error becomes a failed ToolResult turn and
// the loop continues. Only Decider failures and the iteration bound are
// fatal to a turn.
var (
	// ErrUnknownTool indicates a requested tool is not registered.
	// Surfaced by tool resolution; inside a batch it is folded into a
	// failed ToolResult rather than aborting sibling calls.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrDecision indicates the decision function itself failed.
	// Fatal for the current turn; nothing is committed.
	ErrDecision = errors.New("decision function failed")

	// ErrDecisionTimeout indicates the decision function exceeded its
	// deadline. Fatal for the current turn.
	ErrDecisionTimeout = errors.New("decision function timed out")

	// ErrIterationLimit indicates the loop hit its decision/execute cycle
	// bound without a final response. Distinguishable from ErrDecision so
	// callers can message users differently.
	ErrIterationLimit = errors.New("iteration limit exceeded")

	// ErrEmptyMessage indicates the user message was blank.
	ErrEmptyMessage = errors.New("empty message")
)

// errStreamClosed signals that the event consumer stopped reading. It is
// internal: Stream swallows it after draining in-flight work.
var errStreamClosed = errors.New("event stream closed by consumer")
