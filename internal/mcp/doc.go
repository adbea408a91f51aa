// Package mcp exposes the surf assistant's tools over the Model Context
// Protocol, so external MCP clients (editors, other agents) can call the
// same knowledge search and surf forecast the agent loop uses.
//
// The server is built on the official MCP Go SDK and is normally run on a
// stdio transport by the `smithers mcp` command. Handlers build responses
// inline, net/http.Handler style, with no conversion layer.
package mcp
