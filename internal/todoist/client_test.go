package todoist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-token")
	c.baseURL = srv.URL
	return c
}

func TestTasksSendsAuthAndFilter(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("auth header = %q", got)
		}
		if got := r.URL.Query().Get("filter"); got != "today" {
			t.Errorf("filter = %q", got)
		}
		w.Write([]byte(`[{"id":"1","content":"Buy milk","project_id":"p1"}]`))
	})

	tasks, err := c.Tasks(context.Background(), "today")
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Content != "Buy milk" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Forbidden", http.StatusForbidden)
	})

	_, err := c.Tasks(context.Background(), "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
}

func TestCompletedUsesSyncEndpoint(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sync/v9/completed/get_all" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("since") == "" {
			t.Error("missing since parameter")
		}
		w.Write([]byte(`{"items":[{"task_id":"9","content":"Done thing","completed_at":"2026-08-30T08:00:00Z"}]}`))
	})

	items, err := c.Completed(context.Background(), time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("completed: %v", err)
	}
	if len(items) != 1 || items[0].Content != "Done thing" {
		t.Errorf("items = %+v", items)
	}
}
