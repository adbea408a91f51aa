// Package session provides the in-memory conversation store.
//
// A session is an ordered list of turns keyed by an opaque session ID.
// History reads have get-or-create semantics so callers never need an
// explicit create step. The store serializes turns per session through
// BeginTurn/EndTurn: a second turn for a busy session is rejected with
// ErrBusy rather than queued.
//
// Memory is bounded three ways: a cap on total sessions (oldest-idle
// evicted first), an idle TTL enforced lazily on access, and a per-session
// turn cap that trims whole user-to-assistant exchange groups from the
// front so the remaining history never starts mid-exchange.
//
// Sessions live only in process memory. A restart loses them, which is
// acceptable for conversational state.
package session
