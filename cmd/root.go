// Package cmd provides the Smithers CLI commands.
//
// Commands:
//   - serve: HTTP API server with SSE streaming
//   - ask: one-shot question with streamed output
//   - index: load a documentation directory into the knowledge base
//   - spots: list the known surf spots
//   - mcp: Model Context Protocol server for editor integration
//   - version: build and configuration info
//
// Signal handling and graceful shutdown are implemented for the
// long-running commands via context cancellation.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/smithers-ai/smithers/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "smithers",
	Short: "Smithers - a surf forecast assistant for the Victorian coast",
	Long: `Smithers is a conversational surf assistant. It combines live marine
forecasts from Open-Meteo with a local knowledge base to answer questions
like "how's Bells looking tomorrow morning?".

Run 'smithers serve' for the HTTP API, or 'smithers ask' for a one-shot
question from the terminal.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger. DEBUG=1 lowers the level.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})
	slog.SetDefault(logger)
	return logger
}
