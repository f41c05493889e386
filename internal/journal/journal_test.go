package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := New(filepath.Join(t.TempDir(), "state", "journal.jsonl"))
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := testJournal(t)

	for _, outcome := range []string{"saved", "aborted", "saved"} {
		if err := j.Record(Entry{Kind: KindDiary, Outcome: outcome}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	entries, err := j.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Outcome != "aborted" || entries[1].Outcome != "saved" {
		t.Errorf("wrong entries: %+v", entries)
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("timestamp not filled in")
	}
}

func TestTodayFiltersOldEntries(t *testing.T) {
	j := testJournal(t)

	old := Entry{Timestamp: time.Now().AddDate(0, 0, -2), Kind: KindAgenda, Outcome: "sent"}
	if err := j.Record(old); err != nil {
		t.Fatal(err)
	}
	if err := j.Record(Entry{Kind: KindDiary, Outcome: "saved"}); err != nil {
		t.Fatal(err)
	}

	entries, err := j.Today(time.Local)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != KindDiary {
		t.Errorf("today = %+v", entries)
	}
}

func TestRecentSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	content := `{"ts":"2026-08-30T10:00:00Z","kind":"diary","outcome":"saved"}
not json at all
{"ts":"2026-08-30T11:00:00Z","kind":"chat","outcome":"replied"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	j, err := New(path)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestRecentOnMissingFile(t *testing.T) {
	j := testJournal(t)
	entries, err := j.Recent(5)
	if err != nil {
		t.Fatalf("recent on empty journal: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries", len(entries))
	}
}
