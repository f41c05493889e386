package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flintbot/flint/internal/config"
	"github.com/flintbot/flint/internal/todoist"
)

func newExportTodoistCmd() *cobra.Command {
	var (
		projectID        string
		filterExpr       string
		outputDir        string
		includeCompleted bool
		noComments       bool
	)

	cmd := &cobra.Command{
		Use:   "export-todoist",
		Short: "Mirror Todoist tasks into markdown notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnvCLI()
			if err != nil {
				return err
			}
			if cfg.TodoistAPIToken == "" {
				return fmt.Errorf("TODOIST_API_TOKEN is not set")
			}

			dir := outputDir
			if dir == "" {
				dir = cfg.TodoistNotesFolder
			}
			if dir == "" {
				return fmt.Errorf("no output directory: set --output or TODOIST_NOTES_FOLDER")
			}

			exporter := todoist.NewExporter(todoist.NewClient(cfg.TodoistAPIToken))
			n, err := exporter.Export(context.Background(), todoist.ExportConfig{
				OutputDir:        dir,
				ProjectID:        projectID,
				Filter:           filterExpr,
				IncludeCompleted: includeCompleted,
				IncludeComments:  !noComments,
				Location:         cfg.Location,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d tasks to %s\n", n, dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project-id", "", "limit to one project")
	cmd.Flags().StringVar(&filterExpr, "filter-expr", "", "Todoist filter expression")
	cmd.Flags().StringVar(&outputDir, "output", "", "output folder (defaults to TODOIST_NOTES_FOLDER)")
	cmd.Flags().BoolVar(&includeCompleted, "include-completed", false, "also export completed tasks")
	cmd.Flags().BoolVar(&noComments, "no-comments", false, "skip fetching task comments")
	return cmd
}
