package todoist

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/flintbot/flint/internal/logging"
	"github.com/flintbot/flint/internal/notes"
)

// ExportConfig controls a task export run.
type ExportConfig struct {
	OutputDir        string
	ProjectID        string // limit to one project; empty means all
	Filter           string // Todoist filter expression, passed through
	IncludeCompleted bool
	IncludeComments  bool
	Location         *time.Location // comment timestamps render in this zone
}

// Exporter mirrors Todoist tasks into markdown notes, one file per task,
// named <taskID>.md. The diary's local scan reads these files back.
type Exporter struct {
	client *Client
}

// NewExporter wires an exporter over the API client.
func NewExporter(client *Client) *Exporter {
	return &Exporter{client: client}
}

// Export fetches tasks and writes one note per task. Returns the number of
// notes written.
func (e *Exporter) Export(ctx context.Context, cfg ExportConfig) (int, error) {
	if cfg.OutputDir == "" {
		return 0, fmt.Errorf("export: no output directory configured")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if err := notes.EnsureDir(cfg.OutputDir); err != nil {
		return 0, err
	}

	projects, err := e.client.Projects(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch projects: %w", err)
	}
	projectNames := make(map[string]string, len(projects))
	for _, p := range projects {
		projectNames[p.ID] = p.Name
	}

	sections, err := e.client.Sections(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch sections: %w", err)
	}
	sectionNames := make(map[string]string, len(sections))
	for _, s := range sections {
		sectionNames[s.ID] = s.Name
	}

	tasks, err := e.client.Tasks(ctx, cfg.Filter)
	if err != nil {
		return 0, fmt.Errorf("fetch tasks: %w", err)
	}

	written := 0
	for _, task := range tasks {
		if cfg.ProjectID != "" && task.ProjectID != cfg.ProjectID {
			continue
		}
		if task.IsCompleted && !cfg.IncludeCompleted {
			continue
		}

		var comments []Comment
		if cfg.IncludeComments {
			comments, err = e.client.Comments(ctx, task.ID)
			if err != nil {
				logging.Error("todoist", "comments for task %s: %v", task.ID, err)
			}
		}

		note := RenderTaskNote(task, projectNames[task.ProjectID], sectionNames[task.SectionID], comments, cfg.Location)
		path := filepath.Join(cfg.OutputDir, task.ID+".md")
		if err := notes.Write(path, note); err != nil {
			return written, err
		}
		written++
	}

	logging.Info("todoist", "Exported %d tasks to %s", written, cfg.OutputDir)
	return written, nil
}

// RenderTaskNote renders the markdown note for one task. Comment times are
// rendered in loc so the diary scan, which matches comments by local day
// label, sees the same date the user does.
func RenderTaskNote(task Task, project, section string, comments []Comment, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", task.Content)
	fmt.Fprintf(&b, "todoist_id: %q\n", task.ID)
	fmt.Fprintf(&b, "project: %q\n", project)
	if section != "" {
		fmt.Fprintf(&b, "section: %q\n", section)
	}
	if task.Due != nil && task.Due.Date != "" {
		fmt.Fprintf(&b, "due: %q\n", task.Due.Date)
	}
	fmt.Fprintf(&b, "completed: %v\n", task.IsCompleted)
	b.WriteString("---\n")

	if task.Description != "" {
		b.WriteString("\n## Description\n\n")
		b.WriteString(task.Description)
		b.WriteString("\n")
	}

	if len(comments) > 0 {
		sort.Slice(comments, func(i, j int) bool {
			return comments[i].PostedAt < comments[j].PostedAt
		})
		b.WriteString("\n## Comments\n\n")
		for _, comment := range comments {
			fmt.Fprintf(&b, "* %s - %s\n", formatCommentTime(comment.PostedAt, loc), oneLine(comment.Content))
		}
	}

	return b.String()
}

func formatCommentTime(postedAt string, loc *time.Location) string {
	ts, err := time.Parse(time.RFC3339, postedAt)
	if err != nil {
		return postedAt
	}
	return ts.In(loc).Format("2 Jan 15:04")
}

func oneLine(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
