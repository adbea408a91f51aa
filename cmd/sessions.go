package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/smithers-ai/smithers/internal/session"
)

var sessionsAddr string

// Sessions live in the server process, so this command asks a running
// server over its HTTP API rather than opening a store of its own.
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List active sessions on a running server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSessions(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsAddr, "addr", "http://localhost:8080", "base URL of the running server")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(ctx context.Context, out io.Writer) error {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, sessionsAddr+"/api/sessions", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting sessions (is the server running?): %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Sessions []session.Meta `json:"sessions"`
		Total    int            `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if payload.Total == 0 {
		fmt.Fprintln(out, "No active sessions.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTURNS\tLAST ACTIVE")
	for _, meta := range payload.Sessions {
		fmt.Fprintf(w, "%s\t%d\t%s\n",
			meta.ID, meta.TurnCount, meta.LastActive.Format(time.RFC3339))
	}
	return w.Flush()
}
