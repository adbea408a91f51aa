// Package model adapts Genkit's Gemini integration to the agent loop's
// Decider interface.
//
// The decider declares the tool catalog to the model but never lets Genkit
// execute a tool: generation runs with tool requests returned to the
// caller, and the agent loop performs the execution itself. Conversation
// turns are converted to Genkit messages, including tool request and
// response parts, so the model sees its own prior tool use.
package model
