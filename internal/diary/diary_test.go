package diary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flintbot/flint/internal/mcp"
	"github.com/flintbot/flint/internal/notes"
)

var testDate = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

// fakeInvoker returns canned output per tool name. A nil entry means a
// tool-scoped failure; errHard makes every invocation a hard error.
type fakeInvoker struct {
	outputs map[string]string
	errHard error
	calls   []string
}

func (f *fakeInvoker) Invoke(ctx context.Context, tool, prompt string) (string, error) {
	f.calls = append(f.calls, tool)
	if f.errHard != nil {
		return "", f.errHard
	}
	out, ok := f.outputs[tool]
	if !ok {
		return "", &mcp.ToolError{Tool: tool, Err: errors.New("boom")}
	}
	return out, nil
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		NotesFolder:  t.TempDir(),
		CalendarTool: "calendar",
		TasksTool:    "tasks",
		Location:     time.UTC,
	}
}

func TestRunWritesDailyNote(t *testing.T) {
	cfg := testConfig(t)
	inv := &fakeInvoker{outputs: map[string]string{
		"calendar": "* 09:00 - Standup\n* 14:00 - Dentist",
		"tasks":    "* [x] Buy milk ✅ 2026-08-30",
	}}
	o := New(inv, cfg)

	res, err := o.Run(context.Background(), Options{Date: testDate})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != OutcomeSaved {
		t.Errorf("outcome = %v", res.Outcome)
	}

	wantPath := filepath.Join(cfg.NotesFolder, "2026-08-30.md")
	if res.Path != wantPath {
		t.Errorf("path = %q, want %q", res.Path, wantPath)
	}
	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	doc := string(data)
	for _, want := range []string{"## Diary", "### Events", "* 09:00 - Standup", "### Tasks", "* [x] Buy milk"} {
		if !strings.Contains(doc, want) {
			t.Errorf("note missing %q:\n%s", want, doc)
		}
	}
}

func TestRunDegradesWithPlaceholders(t *testing.T) {
	cfg := testConfig(t)
	inv := &fakeInvoker{outputs: map[string]string{}} // every tool fails soft
	o := New(inv, cfg)

	res, err := o.Run(context.Background(), Options{Date: testDate})
	if err != nil {
		t.Fatalf("degraded run must still succeed: %v", err)
	}
	if res.Outcome != OutcomeSaved {
		t.Errorf("outcome = %v", res.Outcome)
	}
	if !strings.Contains(res.Content, FallbackEvents) {
		t.Errorf("missing events placeholder:\n%s", res.Content)
	}
	if !strings.Contains(res.Content, FallbackTasks) {
		t.Errorf("missing tasks placeholder:\n%s", res.Content)
	}
}

func TestRunHardErrorAborts(t *testing.T) {
	cfg := testConfig(t)
	inv := &fakeInvoker{errHard: errors.New("config unreadable")}
	o := New(inv, cfg)

	res, err := o.Run(context.Background(), Options{Date: testDate})
	if err == nil {
		t.Fatal("hard invoker error must abort the run")
	}
	if res.Outcome != OutcomeAborted {
		t.Errorf("outcome = %v", res.Outcome)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.NotesFolder, "2026-08-30.md")); statErr == nil {
		t.Error("aborted run must not write the note")
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	inv := &fakeInvoker{outputs: map[string]string{
		"calendar": "* 09:00 - Standup",
		"tasks":    "* [x] Done ✅ 2026-08-30",
	}}
	o := New(inv, cfg)

	res, err := o.Run(context.Background(), Options{Date: testDate, DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if res.Outcome != OutcomePreviewed {
		t.Errorf("outcome = %v", res.Outcome)
	}
	if !strings.Contains(res.Content, "* 09:00 - Standup") {
		t.Errorf("preview missing content:\n%s", res.Content)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.NotesFolder, "2026-08-30.md")); statErr == nil {
		t.Error("dry run must not write the note")
	}
}

func TestRunAbortedWhenUnconfigured(t *testing.T) {
	o := New(&fakeInvoker{}, Config{Location: time.UTC})
	res, err := o.Run(context.Background(), Options{Date: testDate})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
	if res.Outcome != OutcomeAborted {
		t.Errorf("outcome = %v", res.Outcome)
	}
}

func TestRunPreservesForeignSections(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(cfg.NotesFolder, "2026-08-30.md")
	existing := "# 2026-08-30\n\n## Gratitude\n\nSunny day.\n\n## Diary\n\nstale\n\n## Evening\n\nTea.\n"
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	inv := &fakeInvoker{outputs: map[string]string{
		"calendar": "* 09:00 - Standup",
		"tasks":    "* [x] Done ✅ 2026-08-30",
	}}
	o := New(inv, cfg)
	res, err := o.Run(context.Background(), Options{Date: testDate})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, want := range []string{"## Gratitude", "Sunny day.", "## Evening", "Tea."} {
		if !strings.Contains(res.Content, want) {
			t.Errorf("rerun lost %q:\n%s", want, res.Content)
		}
	}
	if strings.Contains(res.Content, "stale") {
		t.Errorf("stale diary survived:\n%s", res.Content)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	inv := &fakeInvoker{outputs: map[string]string{
		"calendar": "* 09:00 - Standup",
		"tasks":    "* [x] Done ✅ 2026-08-30",
	}}
	o := New(inv, cfg)

	first, err := o.Run(context.Background(), Options{Date: testDate})
	if err != nil {
		t.Fatal(err)
	}
	second, err := o.Run(context.Background(), Options{Date: testDate})
	if err != nil {
		t.Fatal(err)
	}
	if first.Content != second.Content {
		t.Errorf("rerun changed the note:\nfirst:\n%s\nsecond:\n%s", first.Content, second.Content)
	}
}

func TestRunSkipFlags(t *testing.T) {
	cfg := testConfig(t)
	inv := &fakeInvoker{outputs: map[string]string{
		"calendar": "* 09:00 - Standup",
		"tasks":    "* [x] Done ✅ 2026-08-30",
	}}
	o := New(inv, cfg)

	res, err := o.Run(context.Background(), Options{Date: testDate, SkipCalendar: true, SkipTasks: true, DryRun: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(inv.calls) != 0 {
		t.Errorf("skip flags must suppress tool calls, got %v", inv.calls)
	}
	if !strings.Contains(res.Content, FallbackEvents) || !strings.Contains(res.Content, FallbackTasks) {
		t.Errorf("skipped sources should show placeholders:\n%s", res.Content)
	}
}

func TestRunIncludesLocalTodoistScan(t *testing.T) {
	cfg := testConfig(t)
	cfg.TodoistFolder = t.TempDir()
	taskNote := "---\ntitle: \"Buy milk\"\ntodoist_id: \"101\"\nproject: \"Errands\"\ncompleted_date: \"2026-08-30\"\n---\n"
	if err := os.WriteFile(filepath.Join(cfg.TodoistFolder, "101.md"), []byte(taskNote), 0644); err != nil {
		t.Fatal(err)
	}

	inv := &fakeInvoker{outputs: map[string]string{"calendar": "* 09:00 - Standup"}}
	o := New(inv, cfg)
	res, err := o.Run(context.Background(), Options{Date: testDate, DryRun: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(res.Content, "[[Todoist/101|Buy milk]]") {
		t.Errorf("local scan missing from tasks:\n%s", res.Content)
	}
	// Scan found tasks, so the placeholder must not appear.
	if strings.Contains(res.Content, FallbackTasks) {
		t.Errorf("placeholder should be replaced by scan results:\n%s", res.Content)
	}
}

func TestRenderSectionShape(t *testing.T) {
	section := RenderSection("events here", "tasks here")
	if !strings.HasPrefix(section, notes.DiaryHeading+"\n\n### Events\n\nevents here\n\n### Tasks\n\ntasks here") {
		t.Errorf("section shape:\n%s", section)
	}
}
