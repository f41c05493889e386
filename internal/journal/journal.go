// Package journal keeps an append-only JSONL record of orchestration runs
// so the /status command can show what the bot has been doing.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Kind labels what kind of run an entry records.
type Kind string

const (
	KindDiary       Kind = "diary"
	KindAgenda      Kind = "agenda"
	KindTodoistSync Kind = "todoist_sync"
	KindChat        Kind = "chat"
)

// Entry is one journal line.
type Entry struct {
	Timestamp time.Time         `json:"ts"`
	Kind      Kind              `json:"kind"`
	Outcome   string            `json:"outcome"`
	Detail    string            `json:"detail,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// Journal appends entries to a JSONL file. Safe for concurrent use.
type Journal struct {
	mu   sync.Mutex
	path string
}

// New creates a journal writing to the given file, creating parent
// directories as needed.
func New(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	return &Journal{path: path}, nil
}

// Record appends one entry. The timestamp is set here if zero.
func (j *Journal) Record(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write journal entry: %w", err)
	}
	return nil
}

// Recent returns up to n most recent entries, newest last. Malformed lines
// are skipped.
func (j *Journal) Recent(n int) ([]Entry, error) {
	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Today returns the entries recorded today in the given location.
func (j *Journal) Today(loc *time.Location) ([]Entry, error) {
	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}
	day := time.Now().In(loc).Format("2006-01-02")
	var out []Entry
	for _, e := range entries {
		if e.Timestamp.In(loc).Format("2006-01-02") == day {
			out = append(out, e)
		}
	}
	return out, nil
}

func (j *Journal) readAll() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read journal: %w", err)
	}

	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
