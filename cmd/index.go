package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smithers-ai/smithers/internal/app"
	"github.com/smithers-ai/smithers/internal/config"
	"github.com/smithers-ai/smithers/internal/knowledge"
)

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Load a documentation directory into the knowledge base",
	Long: `Index walks a directory of markdown and text files, chunks them,
embeds each chunk, and upserts them into the knowledge base. Re-running
on the same content is idempotent: chunk ids are derived from the
content, so unchanged chunks overwrite themselves.

Without an argument the configured knowledge.docs_dir is indexed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		}
		return runIndex(cmd.Context(), dir)
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(ctx context.Context, dir string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if dir == "" {
		dir = cfg.Knowledge.DocsDir
	}

	logger := newLogger()

	a, err := app.Setup(ctx, cfg, logger, app.Options{})
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	indexer, err := knowledge.NewIndexer(a.Knowledge, logger)
	if err != nil {
		return fmt.Errorf("creating indexer: %w", err)
	}

	result, err := indexer.IndexDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", dir, err)
	}

	fmt.Printf("Indexed %d files (%d chunks, %d skipped) from %s\n",
		result.Files, result.Chunks, result.Skipped, dir)
	return nil
}
