package todoist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testDate = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func writeTask(t *testing.T, dir, id, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, id+".md"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanCompletedDateDialect(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "101", `---
title: "Buy milk"
todoist_id: "101"
project: "Errands"
completed_date: "2026-08-30"
---
`)
	writeTask(t, dir, "102", `---
title: "Old task"
todoist_id: "102"
project: "Errands"
completed_date: "2026-08-29"
---
`)

	got, err := ScanCompleted(dir, testDate, time.UTC)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(got, "* [x] [[Todoist/101|Buy milk]] ✅ 2026-08-30") {
		t.Errorf("missing completed entry:\n%s", got)
	}
	if strings.Contains(got, "Old task") {
		t.Errorf("yesterday's task leaked in:\n%s", got)
	}
	if !strings.Contains(got, "**Errands**") {
		t.Errorf("missing group header:\n%s", got)
	}
}

func TestScanCompletedBoolDialectUsesModTime(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "201", `---
title: "Ship release"
todoist_id: "201"
project: "Work"
section: "Sprint"
completed: true
---
`)
	// mtime is now; scan for today should match, yesterday should not.
	today := time.Now()
	got, err := ScanCompleted(dir, today, time.Local)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(got, "Ship release") {
		t.Errorf("bool-dialect task not found:\n%s", got)
	}
	if !strings.Contains(got, "**Work - Sprint**") {
		t.Errorf("section missing from group:\n%s", got)
	}

	got, err = ScanCompleted(dir, today.AddDate(0, 0, -1), time.Local)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got != "" {
		t.Errorf("bool-dialect task should not match other dates:\n%s", got)
	}
}

func TestScanCompletedGroupOrdering(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "1", "---\ntitle: \"zzz\"\ntodoist_id: \"1\"\nproject: \"Zeta\"\ncompleted_date: \"2026-08-30\"\n---\n")
	writeTask(t, dir, "2", "---\ntitle: \"aaa\"\ntodoist_id: \"2\"\nproject: \"Alpha\"\ncompleted_date: \"2026-08-30\"\n---\n")

	got, err := ScanCompleted(dir, testDate, time.UTC)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if strings.Index(got, "Alpha") > strings.Index(got, "Zeta") {
		t.Errorf("groups not sorted:\n%s", got)
	}
}

func TestScanCompletedMissingFolder(t *testing.T) {
	got, err := ScanCompleted(filepath.Join(t.TempDir(), "nope"), testDate, time.UTC)
	if err != nil {
		t.Fatalf("missing folder should not error: %v", err)
	}
	if got != "" {
		t.Errorf("got %q", got)
	}
}

func TestScanInProgress(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "301", `---
title: "Write report"
todoist_id: "301"
project: "Work"
completed: false
---

## Comments

* 30 Aug 10:15 - drafted the outline
* 29 Aug 18:00 - old comment
`)
	writeTask(t, dir, "302", `---
title: "Quiet task"
todoist_id: "302"
project: "Work"
completed: false
---
`)

	got, err := ScanInProgress(dir, testDate, time.UTC)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(got, "* [/] [[Todoist/301|Write report]]") {
		t.Errorf("in-progress entry missing:\n%s", got)
	}
	if !strings.Contains(got, "\t* 30 Aug 10:15 - drafted the outline") {
		t.Errorf("today's comment missing:\n%s", got)
	}
	if strings.Contains(got, "old comment") {
		t.Errorf("stale comment leaked in:\n%s", got)
	}
	if strings.Contains(got, "Quiet task") {
		t.Errorf("commentless task leaked in:\n%s", got)
	}
}

func TestCommentTimesRenderInConfiguredZone(t *testing.T) {
	// A comment posted late in the UTC evening belongs to the next local
	// day east of Greenwich. Render and scan must agree on that day.
	loc := time.FixedZone("UTC+2", 2*3600)
	task := Task{ID: "77", Content: "Night task"}
	comments := []Comment{{Content: "late night note", PostedAt: "2026-08-30T23:30:00Z"}}

	note := RenderTaskNote(task, "Work", "", comments, loc)
	if !strings.Contains(note, "* 31 Aug 01:30 - late night note") {
		t.Errorf("comment not rendered in local zone:\n%s", note)
	}

	dir := t.TempDir()
	writeTask(t, dir, "77", note)
	localDay := time.Date(2026, 8, 31, 12, 0, 0, 0, loc)
	got, err := ScanInProgress(dir, localDay, loc)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(got, "Night task") || !strings.Contains(got, "late night note") {
		t.Errorf("scan missed the local-day comment:\n%s", got)
	}

	// The UTC day must not claim it.
	got, err = ScanInProgress(dir, time.Date(2026, 8, 30, 12, 0, 0, 0, loc), loc)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got != "" {
		t.Errorf("comment matched the wrong day:\n%s", got)
	}
}

func TestRenderTaskNote(t *testing.T) {
	task := Task{
		ID:          "55",
		Content:     "Plan trip",
		Description: "Check flights first.",
		Due:         &Due{Date: "2026-09-05"},
	}
	comments := []Comment{
		{Content: "booked hotel", PostedAt: "2026-08-30T10:15:00Z"},
	}
	note := RenderTaskNote(task, "Travel", "Summer", comments, time.UTC)

	for _, want := range []string{
		`title: "Plan trip"`,
		`todoist_id: "55"`,
		`project: "Travel"`,
		`section: "Summer"`,
		`due: "2026-09-05"`,
		"completed: false",
		"## Description",
		"Check flights first.",
		"## Comments",
		"* 30 Aug 10:15 - booked hotel",
	} {
		if !strings.Contains(note, want) {
			t.Errorf("note missing %q:\n%s", want, note)
		}
	}
}
