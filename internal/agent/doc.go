// Package agent implements the decision/execution loop that turns one user
// message plus prior conversation history into tool invocations and a final
// assistant reply.
//
// The loop is a bounded state machine. Each iteration consults a Decider
// (an external language-model call) which either responds with final text or
// requests a batch of tool calls. Tool calls in one batch run concurrently;
// their results are appended to the working history in the order the calls
// were issued, and the loop goes back to the Decider with the extended
// history. A configured iteration bound converts runaway tool-calling into
// ErrIterationLimit instead of an infinite loop.
//
// Tool-level failures (unknown tool, timeout, execution error) never abort a
// turn: they are folded into the history as failed ToolResults the model can
// reason about. Decider failures are fatal for the turn, and a failed turn
// commits nothing to the conversation store.
//
// Two result surfaces exist over the same loop: RunTurn returns the final
// text, Stream yields an event sequence (tool starts, tool results, text
// chunks, final text). Stopping the stream early drains in-flight tool calls
// but starts no further decision cycle and commits nothing.
package agent
