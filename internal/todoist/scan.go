package todoist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/flintbot/flint/internal/notes"
)

// scannedTask is one exported task note read back from disk.
type scannedTask struct {
	id      string
	title   string
	group   string // "project - section" or just project
	modTime time.Time
	doc     string
	fm      map[string]string
}

func scanFolder(folder string) ([]scannedTask, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan todoist folder %s: %w", folder, err)
	}

	var tasks []scannedTask
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(folder, entry.Name())
		doc, err := notes.ReadIfExists(path)
		if err != nil {
			return nil, err
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		fm := notes.Frontmatter(doc)
		id := fm["todoist_id"]
		if id == "" {
			id = strings.TrimSuffix(entry.Name(), ".md")
		}
		group := fm["project"]
		if section := fm["section"]; section != "" {
			group = group + " - " + section
		}

		tasks = append(tasks, scannedTask{
			id:      id,
			title:   fm["title"],
			group:   group,
			modTime: info.ModTime(),
			doc:     doc,
			fm:      fm,
		})
	}
	return tasks, nil
}

func completedOn(t scannedTask, date time.Time, loc *time.Location) bool {
	day := date.Format("2006-01-02")
	if cd := t.fm["completed_date"]; cd != "" {
		return cd == day
	}
	if t.fm["completed"] == "true" {
		return t.modTime.In(loc).Format("2006-01-02") == day
	}
	return false
}

// ScanCompleted renders the tasks completed on the given date, grouped by
// project and section. Returns "" when the folder is missing or nothing was
// completed.
func ScanCompleted(folder string, date time.Time, loc *time.Location) (string, error) {
	tasks, err := scanFolder(folder)
	if err != nil {
		return "", err
	}

	groups := map[string][]scannedTask{}
	for _, t := range tasks {
		if completedOn(t, date, loc) {
			groups[t.group] = append(groups[t.group], t)
		}
	}
	if len(groups) == 0 {
		return "", nil
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	day := date.Format("2006-01-02")
	var b strings.Builder
	for _, name := range names {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		if name != "" {
			fmt.Fprintf(&b, "**%s**\n", name)
		}
		group := groups[name]
		sort.Slice(group, func(i, j int) bool { return group[i].title < group[j].title })
		for _, t := range group {
			fmt.Fprintf(&b, "* [x] %s ✅ %s\n", notes.Link("Todoist/"+t.id, t.title), day)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// ScanInProgress renders tasks not yet completed that received comments on
// the given date, with the day's comments nested underneath. Returns ""
// when there are none.
func ScanInProgress(folder string, date time.Time, loc *time.Location) (string, error) {
	tasks, err := scanFolder(folder)
	if err != nil {
		return "", err
	}

	dayPrefix := "* " + date.Format("2 Jan")

	var b strings.Builder
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].title < tasks[j].title })
	for _, t := range tasks {
		if completedOn(t, date, loc) || t.fm["completed"] == "true" || t.fm["completed_date"] != "" {
			continue
		}
		var today []string
		for _, line := range strings.Split(notes.Section(t.doc, "## Comments"), "\n") {
			if strings.HasPrefix(line, dayPrefix) {
				today = append(today, line)
			}
		}
		if len(today) == 0 {
			continue
		}
		fmt.Fprintf(&b, "* [/] %s\n", notes.Link("Todoist/"+t.id, t.title))
		for _, line := range today {
			fmt.Fprintf(&b, "\t%s\n", line)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
