package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fentz26/supportdesk/internal/adminapi"
	"github.com/fentz26/supportdesk/internal/apiclient"
	"github.com/fentz26/supportdesk/internal/audit"
	"github.com/fentz26/supportdesk/internal/models"
	"github.com/fentz26/supportdesk/internal/store"
)

func sampleTasks() []models.Task {
	tasks := make([]models.Task, 12)
	for i := range tasks {
		status := models.TaskStatusCompleted
		if i%3 == 0 {
			status = models.TaskStatusPending
		}
		tasks[i] = models.Task{
			ID:           fmt.Sprintf("t%02d", i+1),
			ProjectTitle: fmt.Sprintf("Task %02d", i+1),
			Description:  "Routine follow-up",
			CustomerName: "Acme",
			Status:       status,
		}
	}
	return tasks
}

func TestBuildView(t *testing.T) {
	tests := []struct {
		name      string
		opts      listOptions
		wantTotal int
		wantFirst string
		wantRows  int
	}{
		{"default page", listOptions{PageSize: 10}, 12, "t01", 10},
		{"second page", listOptions{Page: 2, PageSize: 10}, 12, "t11", 2},
		{"page clamped", listOptions{Page: 9, PageSize: 10}, 12, "t11", 2},
		{"search", listOptions{Search: "task 1", PageSize: 10}, 3, "t10", 3},
		{"status", listOptions{Status: "pending", PageSize: 10}, 4, "t01", 4},
		{"sort desc", listOptions{Sort: "Project Title", Desc: true, PageSize: 5}, 12, "t12", 5},
		{"no match", listOptions{Search: "zzz", PageSize: 10}, 0, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := buildView(sampleTasks(), tt.opts)
			if err != nil {
				t.Fatalf("buildView failed: %v", err)
			}
			if view.Page.Total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, view.Page.Total)
			}
			if len(view.Rows) != tt.wantRows {
				t.Fatalf("Expected %d rows, got %d", tt.wantRows, len(view.Rows))
			}
			if tt.wantRows > 0 && view.Rows[0].ID != tt.wantFirst {
				t.Errorf("Expected first row %s, got %s", tt.wantFirst, view.Rows[0].ID)
			}
		})
	}
}

func TestBuildView_InvalidOptions(t *testing.T) {
	if _, err := buildView(nil, listOptions{Status: "archived"}); err == nil {
		t.Error("Expected error for unknown status")
	}
	if _, err := buildView(nil, listOptions{Sort: "priority"}); err == nil {
		t.Error("Expected error for unknown sort key")
	}
}

func TestRenderTaskTable(t *testing.T) {
	view, err := buildView(sampleTasks(), listOptions{Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("buildView failed: %v", err)
	}

	var buf bytes.Buffer
	renderTaskTable(&buf, view)
	out := buf.String()

	for _, want := range []string{"PROJECT TITLE", "Task 11", "Completed", "Showing 11 to 12 of 12 results", "(page 2 of 2)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Task 01") {
		t.Error("First page rows should not be rendered on page 2")
	}

	single, _ := buildView(sampleTasks()[:3], listOptions{PageSize: 10})
	buf.Reset()
	renderTaskTable(&buf, single)
	if strings.Contains(buf.String(), "page 1 of 1") {
		t.Error("Single page should not print page controls")
	}

	empty, _ := buildView(nil, listOptions{PageSize: 10})
	buf.Reset()
	renderTaskTable(&buf, empty)
	if strings.TrimSpace(buf.String()) != "No tasks found" {
		t.Errorf("Unexpected empty output: %q", buf.String())
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" web, ,design,")
	if len(got) != 2 || got[0] != "web" || got[1] != "design" {
		t.Errorf("Unexpected split: %v", got)
	}
	if len(splitCSV("")) != 0 {
		t.Error("Expected no parts for empty input")
	}

	members := memberList([]string{"Ann", " ", "Bo "})
	if len(members) != 2 || members[1].Name != "Bo" {
		t.Errorf("Unexpected members: %v", members)
	}
}

func TestResolveTask(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := adminapi.NewService(st, audit.NewRecorder(st), nil, logger)
	srv := adminapi.NewServer(svc, st, nil, adminapi.Options{Logger: logger})
	ts := httptest.NewServer(srv.Handler())
	defer func() {
		ts.Close()
		st.Close()
	}()
	c := apiclient.New(ts.URL, "")

	task, err := c.CreateTask(adminapi.TaskRequest{ProjectTitle: "Website Redesign"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	got, err := resolveTask(c, task.ID)
	if err != nil || got.ID != task.ID {
		t.Fatalf("Expected full id lookup to succeed, got %v, %v", got, err)
	}

	got, err = resolveTask(c, truncateID(task.ID))
	if err != nil || got.ID != task.ID {
		t.Fatalf("Expected prefix lookup to succeed, got %v, %v", got, err)
	}

	if _, err := resolveTask(c, "ffffffff-missing"); !apiclient.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}
