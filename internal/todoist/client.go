// Package todoist talks to the Todoist REST API and maintains the local
// markdown mirror of tasks that the diary reads from.
package todoist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.todoist.com"

// APIError is a non-2xx response from the Todoist API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("todoist api: status %d: %s", e.StatusCode, e.Body)
}

// Task is a Todoist REST v2 task.
type Task struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	ProjectID   string   `json:"project_id"`
	SectionID   string   `json:"section_id"`
	Labels      []string `json:"labels"`
	Priority    int      `json:"priority"`
	Due         *Due     `json:"due"`
	IsCompleted bool     `json:"is_completed"`
	CreatedAt   string   `json:"created_at"`
}

// Due is the due-date object attached to a task.
type Due struct {
	Date     string `json:"date"`
	Datetime string `json:"datetime"`
	String   string `json:"string"`
}

// Project is a Todoist project.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Section is a section within a project.
type Section struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

// Comment is a note on a task.
type Comment struct {
	ID       string `json:"id"`
	TaskID   string `json:"task_id"`
	Content  string `json:"content"`
	PostedAt string `json:"posted_at"`
}

// CompletedItem is an entry from the sync API's completed items feed.
type CompletedItem struct {
	TaskID      string `json:"task_id"`
	Content     string `json:"content"`
	ProjectID   string `json:"project_id"`
	CompletedAt string `json:"completed_at"`
}

// Client is a thin Todoist REST v2 client. One request per call, no
// retries.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a client authenticated with the given API token.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("todoist request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Tasks lists active tasks, optionally narrowed by a Todoist filter
// expression.
func (c *Client) Tasks(ctx context.Context, filter string) ([]Task, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	var tasks []Task
	if err := c.get(ctx, "/rest/v2/tasks", q, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Projects lists all projects.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.get(ctx, "/rest/v2/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Sections lists all sections across projects.
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	var sections []Section
	if err := c.get(ctx, "/rest/v2/sections", nil, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// Comments lists the comments on a task.
func (c *Client) Comments(ctx context.Context, taskID string) ([]Comment, error) {
	q := url.Values{}
	q.Set("task_id", taskID)
	var comments []Comment
	if err := c.get(ctx, "/rest/v2/comments", q, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Completed lists tasks completed since the given time, via the sync API's
// completed items feed.
func (c *Client) Completed(ctx context.Context, since time.Time) ([]CompletedItem, error) {
	q := url.Values{}
	q.Set("since", since.UTC().Format("2006-01-02T15:04:05"))
	var payload struct {
		Items []CompletedItem `json:"items"`
	}
	if err := c.get(ctx, "/sync/v9/completed/get_all", q, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}
