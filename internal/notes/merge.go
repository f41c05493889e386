package notes

import "strings"

// DiaryHeading is the level-2 heading whose section the diary writer owns.
const DiaryHeading = "## Diary"

// Merge replaces the Diary section of doc with section, preserving all
// other content byte for byte. See MergeSection.
func Merge(doc, section string) string {
	return MergeSection(doc, section, DiaryHeading)
}

// MergeSection replaces the section introduced by heading (a "## " line)
// with the given replacement block, or appends it when the heading is not
// present. Lines outside the owned section are rejoined untouched, so their
// bytes survive the merge exactly and merging the same section twice is a
// no-op.
func MergeSection(doc, section, heading string) string {
	section = strings.TrimSpace(section)

	if strings.TrimSpace(doc) == "" {
		return section
	}

	lines := strings.Split(doc, "\n")
	var out []string
	inSection := false
	replaced := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == heading {
			// Start of the owned section: emit the replacement once and
			// begin skipping the old body.
			out = append(out, section)
			inSection = true
			replaced = true
			continue
		}
		if inSection {
			// A new level-2 heading ends the owned section.
			if strings.HasPrefix(trimmed, "## ") {
				inSection = false
				out = append(out, "", line)
			}
			continue
		}
		out = append(out, line)
	}

	if !replaced {
		out = append(out, "", section)
	}
	return strings.Join(out, "\n")
}
