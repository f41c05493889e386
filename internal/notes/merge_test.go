package notes

import (
	"strings"
	"testing"
)

const diarySection = `## Diary

### Events

* 09:00 - Standup
* 14:00 - Dentist

### Tasks

* [x] [[Todoist/123|Buy milk]] ✅ 2026-08-30`

func TestMergeIdempotent(t *testing.T) {
	doc := "# 2026-08-30\n\nSome morning thoughts.\n"
	once := Merge(doc, diarySection)
	twice := Merge(once, diarySection)
	if once != twice {
		t.Errorf("merge is not idempotent:\nfirst:\n%s\nsecond:\n%s", once, twice)
	}
}

func TestMergePreservesOtherSections(t *testing.T) {
	doc := `# 2026-08-30

## Morning

Woke up early.

## Diary

old stale content

## Evening

Watched a movie.
`
	merged := Merge(doc, diarySection)

	for _, keep := range []string{"## Morning", "Woke up early.", "## Evening", "Watched a movie."} {
		if !strings.Contains(merged, keep) {
			t.Errorf("merged doc lost %q:\n%s", keep, merged)
		}
	}
	if strings.Contains(merged, "old stale content") {
		t.Errorf("stale diary body survived:\n%s", merged)
	}
	if !strings.Contains(merged, "* 09:00 - Standup") {
		t.Errorf("new diary body missing:\n%s", merged)
	}

	// Sections before the diary must be byte-identical.
	wantPrefix := "# 2026-08-30\n\n## Morning\n\nWoke up early.\n"
	if !strings.HasPrefix(merged, wantPrefix) {
		t.Errorf("content above the diary changed:\n%s", merged)
	}
}

func TestMergeIntoEmptyDocument(t *testing.T) {
	// An empty document becomes exactly the trimmed section, nothing more.
	merged := Merge("", diarySection)
	if merged != diarySection {
		t.Errorf("merge into empty doc:\ngot:\n%q\nwant:\n%q", merged, diarySection)
	}
	if merged := Merge("", "## Diary\n\n### Events\nfoo\n\n"); merged != "## Diary\n\n### Events\nfoo" {
		t.Errorf("section not trimmed: %q", merged)
	}
}

func TestMergeAppendsWhenHeadingAbsent(t *testing.T) {
	doc := "# 2026-08-30\n\n## Notes\n\nStuff happened."
	merged := Merge(doc, diarySection)

	// Exactly the old document, a blank line, then the section.
	want := doc + "\n\n" + diarySection
	if merged != want {
		t.Errorf("append result:\ngot:\n%q\nwant:\n%q", merged, want)
	}
}

func TestMergePreservesTrailingBytes(t *testing.T) {
	// The last foreign section ends without a trailing newline; it must
	// come back byte-identical.
	doc := "## A\nfoo\n\n## Diary\nold\n\n## B\nbar"
	merged := Merge(doc, "## Diary\n\nnew")
	want := "## A\nfoo\n\n## Diary\n\nnew\n\n## B\nbar"
	if merged != want {
		t.Errorf("trailing section bytes changed:\ngot:\n%q\nwant:\n%q", merged, want)
	}
}

func TestMergeSectionRunsToEndOfFile(t *testing.T) {
	doc := "# Note\n\n## Diary\n\nold line one\nold line two\n"
	merged := Merge(doc, "## Diary\n\nnew body")
	if strings.Contains(merged, "old line") {
		t.Errorf("old tail not replaced:\n%s", merged)
	}
	if !strings.Contains(merged, "new body") {
		t.Errorf("new body missing:\n%s", merged)
	}
}

func TestMergeLevelThreeHeadingsStayInside(t *testing.T) {
	doc := "## Diary\n\n### Events\n\nold\n\n## Other\n\nkeep me\n"
	merged := Merge(doc, "## Diary\n\nreplaced")
	if strings.Contains(merged, "### Events") {
		t.Errorf("level-3 heading should be part of the replaced section:\n%s", merged)
	}
	if !strings.Contains(merged, "keep me") {
		t.Errorf("next level-2 section lost:\n%s", merged)
	}
}

func TestSectionExtract(t *testing.T) {
	doc := "---\ntitle: \"x\"\n---\n\n## Comments\n\n* 30 Aug 10:00 - looks good\n\n## Other\n\nno\n"
	got := Section(doc, "## Comments")
	want := "* 30 Aug 10:00 - looks good"
	if got != want {
		t.Errorf("Section = %q, want %q", got, want)
	}
	if Section(doc, "## Missing") != "" {
		t.Error("missing section should be empty")
	}
}

func TestFrontmatter(t *testing.T) {
	doc := "---\ntitle: \"Buy milk\"\ntodoist_id: \"123\"\ncompleted: true\n---\n\nbody\n"
	fm := Frontmatter(doc)
	if fm["title"] != "Buy milk" {
		t.Errorf("title = %q", fm["title"])
	}
	if fm["todoist_id"] != "123" {
		t.Errorf("todoist_id = %q", fm["todoist_id"])
	}
	if fm["completed"] != "true" {
		t.Errorf("completed = %q", fm["completed"])
	}
	if len(Frontmatter("no frontmatter here")) != 0 {
		t.Error("doc without frontmatter should yield empty map")
	}
}

func TestLink(t *testing.T) {
	got := Link("Todoist/123", "Fix the *thing* (urgent)!")
	want := "[[Todoist/123|Fix the thing urgent]]"
	if got != want {
		t.Errorf("Link = %q, want %q", got, want)
	}
}
