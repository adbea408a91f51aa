package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/smithers-ai/smithers/internal/agent"
	"github.com/smithers-ai/smithers/internal/app"
	"github.com/smithers-ai/smithers/internal/config"
)

var askNoDB bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question with streamed output",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().BoolVar(&askNoDB, "no-db", false, "run without the knowledge base (forecast tool only)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(ctx context.Context, question string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger()

	a, err := app.Setup(ctx, cfg, logger, app.Options{SkipDatabase: askNoDB})
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	// One-shot turn against a throwaway session; text streams to stdout
	// as it arrives, tool activity goes to stderr.
	sessionID := uuid.NewString()

	streamed := false
	for event, err := range a.Runner.Stream(ctx, sessionID, question) {
		if err != nil {
			return fmt.Errorf("turn failed: %w", err)
		}
		switch event.Kind {
		case agent.EventChunk:
			streamed = true
			fmt.Print(event.Text)
		case agent.EventToolStart:
			fmt.Fprintf(os.Stderr, "… %s\n", event.Call.Name)
		case agent.EventDone:
			// Chunks already carried the text when the model streamed.
			if !streamed {
				fmt.Print(event.Text)
			}
			fmt.Println()
		}
	}

	return nil
}
