// Package tools provides tool registration and management for the agent loop.
//
// A tool couples metadata the model reads (name, description, JSON schema
// for its arguments) with an execution function the loop invokes. NewTool
// builds both from one typed Go function: the schema is derived from the
// input struct via reflection, and arguments arrive as raw JSON that is
// unmarshaled into that struct before the handler runs.
//
// The Registry holds tools by unique name and presents them to the agent
// loop in registration order, so the model sees a stable catalog.
package tools
