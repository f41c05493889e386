// Package notes reads and writes the Obsidian-style markdown vault: daily
// notes named YYYY-MM-DD.md plus small helpers for frontmatter, sections
// and wiki links.
package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DailyNotePath returns the path of the daily note for the given date.
func DailyNotePath(folder string, date time.Time) string {
	return filepath.Join(folder, date.Format("2006-01-02")+".md")
}

// EnsureDir creates the directory (and parents) if missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create notes dir %s: %w", dir, err)
	}
	return nil
}

// ReadIfExists returns the file contents, or "" when the file does not
// exist. Other read errors are returned.
func ReadIfExists(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read note %s: %w", path, err)
	}
	return string(data), nil
}

// Write writes the note contents atomically enough for a single-writer
// vault (plain truncate-and-write, no locking).
func Write(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write note %s: %w", path, err)
	}
	return nil
}

// Exists reports whether the path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Frontmatter extracts the top YAML frontmatter block as a flat string map.
// Quoted values are unquoted; nested structures are not supported (vault
// notes only use flat key: value pairs).
func Frontmatter(doc string) map[string]string {
	out := map[string]string{}
	lines := strings.Split(doc, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return out
	}
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "---" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"`)
		if key != "" {
			out[key] = value
		}
	}
	return out
}

// Section returns the body of the section under the given "## " heading,
// without the heading line, or "" when absent.
func Section(doc, heading string) string {
	lines := strings.Split(doc, "\n")
	var body []string
	in := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == heading {
			in = true
			continue
		}
		if in && strings.HasPrefix(trimmed, "## ") {
			break
		}
		if in {
			body = append(body, line)
		}
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}

var linkUnsafe = regexp.MustCompile(`[^\w\s-]`)

// Link renders an Obsidian wiki link with a display title stripped of
// characters that break link syntax.
func Link(target, title string) string {
	clean := strings.TrimSpace(linkUnsafe.ReplaceAllString(title, ""))
	if clean == "" {
		clean = target
	}
	return fmt.Sprintf("[[%s|%s]]", target, clean)
}
