package apiclient

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/supportdesk/internal/adminapi"
	"github.com/fentz26/supportdesk/internal/audit"
	"github.com/fentz26/supportdesk/internal/models"
	"github.com/fentz26/supportdesk/internal/store"
)

func newTestAPI(t *testing.T, token string) (*Client, *adminapi.Hub) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := adminapi.NewHub(0, logger)
	svc := adminapi.NewService(st, audit.NewRecorder(st), hub, logger)
	srv := adminapi.NewServer(svc, st, hub, adminapi.Options{Token: token, Logger: logger})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
		st.Close()
	})
	return New(ts.URL, token), hub
}

func TestClient_TaskRoundTrip(t *testing.T) {
	c, _ := newTestAPI(t, "")

	task, err := c.CreateTask(adminapi.TaskRequest{ProjectTitle: "Website Redesign", CustomerName: "Acme"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	tasks, err := c.ListTasks("")
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Errorf("Unexpected list: %+v", tasks)
	}

	if _, err := c.AssignTask(task.ID, []models.Member{{Name: "Ann"}}); err != nil {
		t.Fatalf("AssignTask failed: %v", err)
	}
	cancelled, err := c.CancelTask(task.ID)
	if err != nil {
		t.Fatalf("CancelTask failed: %v", err)
	}
	if cancelled.Status != models.TaskStatusCancelled || len(cancelled.AssignedMembers) != 1 {
		t.Errorf("Unexpected cancelled task: %+v", cancelled)
	}

	if err := c.DeleteTask(task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if _, err := c.GetTask(task.ID); !IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestClient_ValidationError(t *testing.T) {
	c, _ := newTestAPI(t, "")

	_, err := c.CreateTask(adminapi.TaskRequest{})
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("Expected *APIError, got %T %v", err, err)
	}
	if apiErr.Status != 400 || apiErr.Code != adminapi.CodeInvalidRequest {
		t.Errorf("Unexpected error: %+v", apiErr)
	}
}

func TestClient_TokenAndCustomers(t *testing.T) {
	c, _ := newTestAPI(t, "s3cret")

	if _, err := c.CreateRepresentative(adminapi.RepresentativeRequest{Name: "Ann", Email: "ann@example.com"}); err != nil {
		t.Fatalf("CreateRepresentative failed: %v", err)
	}

	n, err := c.UploadCustomers("customers.csv", strings.NewReader("name,email\nAcme,ops@acme.test\n"))
	if err != nil {
		t.Fatalf("UploadCustomers failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 imported, got %d", n)
	}

	anon := New(c.BaseURL(), "")
	if _, err := anon.ListCustomers(); err == nil {
		t.Error("Expected unauthorized without token")
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TeamMembers != 1 {
		t.Errorf("Expected 1 team member, got %d", stats.TeamMembers)
	}
}

func TestClient_Health(t *testing.T) {
	c, _ := newTestAPI(t, "")
	health, err := c.Health()
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if !health.OK {
		t.Errorf("Expected healthy daemon, got %+v", health)
	}

	offline := New("http://127.0.0.1:1", "")
	if _, err := offline.Health(); err == nil {
		t.Error("Expected error for unreachable daemon")
	}
}

func TestClient_Subscribe(t *testing.T) {
	c, hub := newTestAPI(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := c.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := c.CreateTask(adminapi.TaskRequest{ProjectTitle: "x"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Type != adminapi.EventTasksChanged {
			t.Errorf("Unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	cancel()
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after cancel")
	}
}
