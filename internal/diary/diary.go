// Package diary builds the Diary section of the daily note from calendar
// and task sources and merges it into the vault.
package diary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flintbot/flint/internal/logging"
	"github.com/flintbot/flint/internal/mcp"
	"github.com/flintbot/flint/internal/notes"
	"github.com/flintbot/flint/internal/todoist"
)

// Placeholder text substituted when a source produces nothing. The exact
// strings are load-bearing: the degraded diary still reads naturally.
const (
	FallbackEvents = "No calendar events recorded for today"
	FallbackTasks  = "No tasks completed today"
)

// ErrNotConfigured means the run cannot proceed because required
// configuration is missing.
var ErrNotConfigured = errors.New("diary not configured")

// Outcome describes how a run ended.
type Outcome string

const (
	OutcomeSaved     Outcome = "saved"
	OutcomePreviewed Outcome = "previewed"
	OutcomeAborted   Outcome = "aborted"
)

// Options selects the date and behavior of one run.
type Options struct {
	Date         time.Time
	DryRun       bool
	SkipCalendar bool
	SkipTasks    bool
}

// Result reports what a run did. Content holds the full merged note in
// dry-run mode and the written note otherwise.
type Result struct {
	Outcome Outcome
	Path    string
	Content string
}

// Config holds the folders and tool names a diary orchestrator works with.
type Config struct {
	NotesFolder   string
	TodoistFolder string
	CalendarTool  string
	TasksTool     string
	Location      *time.Location
}

// Orchestrator runs the gather-compose-merge pipeline.
type Orchestrator struct {
	invoker mcp.Invoker
	cfg     Config
}

// New wires an orchestrator over a tool invoker.
func New(invoker mcp.Invoker, cfg Config) *Orchestrator {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Orchestrator{invoker: invoker, cfg: cfg}
}

// Run executes one diary run for opts.Date. Tool failures degrade to
// placeholders; configuration and infrastructure failures abort.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Result, error) {
	if o.cfg.NotesFolder == "" && !opts.DryRun {
		return Result{Outcome: OutcomeAborted},
			fmt.Errorf("%w: no daily note folder", ErrNotConfigured)
	}

	date := opts.Date
	if date.IsZero() {
		date = time.Now().In(o.cfg.Location)
	}

	events, err := o.gatherEvents(ctx, date, opts)
	if err != nil {
		return Result{Outcome: OutcomeAborted}, err
	}
	tasks, err := o.gatherTasks(ctx, date, opts)
	if err != nil {
		return Result{Outcome: OutcomeAborted}, err
	}

	section := RenderSection(events, tasks)

	if opts.DryRun {
		existing := ""
		if o.cfg.NotesFolder != "" {
			path := notes.DailyNotePath(o.cfg.NotesFolder, date)
			existing, err = notes.ReadIfExists(path)
			if err != nil {
				return Result{Outcome: OutcomeAborted}, err
			}
		}
		return Result{
			Outcome: OutcomePreviewed,
			Path:    notes.DailyNotePath(o.cfg.NotesFolder, date),
			Content: notes.Merge(existing, section),
		}, nil
	}

	if err := notes.EnsureDir(o.cfg.NotesFolder); err != nil {
		return Result{Outcome: OutcomeAborted}, err
	}
	path := notes.DailyNotePath(o.cfg.NotesFolder, date)
	existing, err := notes.ReadIfExists(path)
	if err != nil {
		return Result{Outcome: OutcomeAborted}, err
	}
	merged := notes.Merge(existing, section)
	if err := notes.Write(path, merged); err != nil {
		return Result{Outcome: OutcomeAborted}, err
	}

	logging.Info("diary", "Wrote diary for %s to %s", date.Format("2006-01-02"), path)
	return Result{Outcome: OutcomeSaved, Path: path, Content: merged}, nil
}

// gatherEvents asks the calendar tool for the day's events. A ToolError is
// soft and yields the placeholder; other errors abort the run.
func (o *Orchestrator) gatherEvents(ctx context.Context, date time.Time, opts Options) (string, error) {
	if opts.SkipCalendar || o.cfg.CalendarTool == "" {
		return FallbackEvents, nil
	}

	out, err := o.invoker.Invoke(ctx, o.cfg.CalendarTool, CalendarPrompt(date, o.cfg.Location))
	if err != nil {
		if mcp.IsToolError(err) {
			logging.Error("diary", "calendar degraded: %v", err)
			return FallbackEvents, nil
		}
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return FallbackEvents, nil
	}
	return strings.TrimSpace(out), nil
}

// gatherTasks combines the task tool's digest with the local scan of
// exported Todoist notes.
func (o *Orchestrator) gatherTasks(ctx context.Context, date time.Time, opts Options) (string, error) {
	var parts []string

	if !opts.SkipTasks && o.cfg.TasksTool != "" {
		out, err := o.invoker.Invoke(ctx, o.cfg.TasksTool, TasksPrompt(date))
		if err != nil {
			if !mcp.IsToolError(err) {
				return "", err
			}
			logging.Error("diary", "tasks degraded: %v", err)
		} else if strings.TrimSpace(out) != "" {
			parts = append(parts, strings.TrimSpace(out))
		}
	}

	if !opts.SkipTasks && o.cfg.TodoistFolder != "" {
		scanned, err := todoist.ScanCompleted(o.cfg.TodoistFolder, date, o.cfg.Location)
		if err != nil {
			logging.Error("diary", "todoist scan: %v", err)
		} else if scanned != "" {
			parts = append(parts, scanned)
		}
	}

	tasks := strings.Join(parts, "\n")
	if tasks == "" {
		tasks = FallbackTasks
	}

	if !opts.SkipTasks && o.cfg.TodoistFolder != "" {
		inProgress, err := todoist.ScanInProgress(o.cfg.TodoistFolder, date, o.cfg.Location)
		if err != nil {
			logging.Error("diary", "todoist in-progress scan: %v", err)
		} else if inProgress != "" {
			tasks += "\n\n**In progress:**\n" + inProgress
		}
	}

	return tasks, nil
}

// RenderSection builds the Diary section from the two digests.
func RenderSection(events, tasks string) string {
	return fmt.Sprintf("%s\n\n### Events\n\n%s\n\n### Tasks\n\n%s\n", notes.DiaryHeading, events, tasks)
}
