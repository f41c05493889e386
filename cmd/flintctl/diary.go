package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/flintbot/flint/internal/config"
	"github.com/flintbot/flint/internal/diary"
	"github.com/flintbot/flint/internal/extensions"
	"github.com/flintbot/flint/internal/llm"
	"github.com/flintbot/flint/internal/mcp"
	"github.com/flintbot/flint/internal/notes"
)

func newDiaryCmd() *cobra.Command {
	var (
		dateFlag   string
		yesterday  bool
		today      bool
		force      bool
		dryRun     bool
		noCalendar bool
		noTasks    bool
	)

	cmd := &cobra.Command{
		Use:   "diary",
		Short: "Generate the diary section of a daily note",
		RunE: func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, on := range []bool{dateFlag != "", yesterday, today} {
				if on {
					set++
				}
			}
			if set > 1 {
				return fmt.Errorf("--date, --yesterday and --today are mutually exclusive")
			}

			cfg, err := config.FromEnvCLI()
			if err != nil {
				return err
			}

			date := time.Now().In(cfg.Location)
			switch {
			case dateFlag != "":
				date, err = time.ParseInLocation("2006-01-02", dateFlag, cfg.Location)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
			case yesterday:
				date = date.AddDate(0, 0, -1)
			}

			if !dryRun && cfg.DailyNoteFolder != "" && !force {
				path := notes.DailyNotePath(cfg.DailyNoteFolder, date)
				if notes.Exists(path) {
					return fmt.Errorf("%s already exists, use --force to overwrite its diary section", path)
				}
			}

			ctx := context.Background()
			gemini, err := llm.NewGemini(ctx, cfg.GoogleAPIKey, cfg.ModelName)
			if err != nil {
				return err
			}
			defer gemini.Close()

			runner := mcp.NewRunner(extensions.NewRegistry(cfg.MCPConfigPath), gemini)
			orch := diary.New(runner, diary.Config{
				NotesFolder:   cfg.DailyNoteFolder,
				TodoistFolder: cfg.TodoistNotesFolder,
				CalendarTool:  cfg.CalendarTool,
				TasksTool:     cfg.TasksTool,
				Location:      cfg.Location,
			})

			res, err := orch.Run(ctx, diary.Options{
				Date:         date,
				DryRun:       dryRun,
				SkipCalendar: noCalendar,
				SkipTasks:    noTasks,
			})
			if err != nil {
				return err
			}

			switch res.Outcome {
			case diary.OutcomePreviewed:
				fmt.Println("--- preview ---")
				fmt.Print(res.Content)
				fmt.Println("--- end preview ---")
			case diary.OutcomeSaved:
				fmt.Printf("Wrote %s\n", res.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "target date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&yesterday, "yesterday", false, "target yesterday")
	cmd.Flags().BoolVar(&today, "today", false, "target today (default)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing note's diary section")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the merged note instead of writing it")
	cmd.Flags().BoolVar(&noCalendar, "no-calendar", false, "skip the calendar tool")
	cmd.Flags().BoolVar(&noTasks, "no-tasks", false, "skip the task sources")
	return cmd
}
