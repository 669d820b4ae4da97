package adminapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/supportdesk/internal/audit"
	"github.com/fentz26/supportdesk/internal/models"
	"github.com/fentz26/supportdesk/internal/store"
	"github.com/gorilla/websocket"
)

func TestHealthEndpoint_OK(t *testing.T) {
	s, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !health.OK {
		t.Error("Expected health.OK to be true")
	}
	if health.DB != "ok" {
		t.Errorf("Expected DB status 'ok', got '%s'", health.DB)
	}
	if health.Version == "" || health.Time == "" {
		t.Errorf("Expected version and time to be set, got %+v", health)
	}
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, "")

	w := httptest.NewRecorder()
	s.handleHealth(w, httptest.NewRequest(http.MethodPost, "/health", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestHealthEndpoint_DBError(t *testing.T) {
	s, st := newTestServer(t, "")
	st.Close()

	w := httptest.NewRecorder()
	s.handleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
	var health HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if health.OK || health.DB == "ok" {
		t.Errorf("Expected unhealthy response, got %+v", health)
	}
}

func TestTaskLifecycle(t *testing.T) {
	s, _ := newTestServer(t, "")
	h := s.Handler()

	// Create
	w := do(t, h, http.MethodPost, "/tasks", `{"projectTitle":"Website Redesign","customerName":"Acme","keywords":["web"]}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body)
	}
	var created models.Task
	decodeData(t, w, &created)
	if created.ID == "" || created.Status != models.TaskStatusPending {
		t.Fatalf("Unexpected created task: %+v", created)
	}

	// List
	w = do(t, h, http.MethodGet, "/tasks", "", "")
	var env Envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.OK || env.Meta == nil || env.Meta.Count != 1 {
		t.Errorf("Expected one task in list, got %+v", env)
	}

	// Update
	w = do(t, h, http.MethodPut, "/tasks/"+created.ID, `{"projectTitle":"Website Relaunch","status":"in-progress"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on update, got %d: %s", w.Code, w.Body)
	}
	var updated models.Task
	decodeData(t, w, &updated)
	if updated.ProjectTitle != "Website Relaunch" || updated.Status != models.TaskStatusInProgress {
		t.Errorf("Unexpected updated task: %+v", updated)
	}

	// Assign
	w = do(t, h, http.MethodPost, "/tasks/"+created.ID+"/assign", `{"members":[{"name":"Ann"},{"name":"Bo"}]}`, "")
	var assigned models.Task
	decodeData(t, w, &assigned)
	if len(assigned.AssignedMembers) != 2 {
		t.Errorf("Expected 2 members, got %+v", assigned.AssignedMembers)
	}

	// Cancel
	w = do(t, h, http.MethodPost, "/tasks/"+created.ID+"/cancel", "", "")
	var cancelled models.Task
	decodeData(t, w, &cancelled)
	if cancelled.Status != models.TaskStatusCancelled {
		t.Errorf("Expected cancelled, got %s", cancelled.Status)
	}

	// Filter by status
	w = do(t, h, http.MethodGet, "/tasks?status=pending", "", "")
	var pending []models.Task
	decodeData(t, w, &pending)
	if len(pending) != 0 {
		t.Errorf("Expected no pending tasks, got %d", len(pending))
	}

	// Delete
	w = do(t, h, http.MethodDelete, "/tasks/"+created.ID, "", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 on delete, got %d", w.Code)
	}
	w = do(t, h, http.MethodGet, "/tasks/"+created.ID, "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestTaskErrors(t *testing.T) {
	s, _ := newTestServer(t, "")
	h := s.Handler()

	tests := []struct {
		name         string
		method, path string
		body         string
		wantStatus   int
		wantCode     string
	}{
		{"invalid json", http.MethodPost, "/tasks", `{`, http.StatusBadRequest, CodeInvalidRequest},
		{"missing title", http.MethodPost, "/tasks", `{"description":"x"}`, http.StatusBadRequest, CodeInvalidRequest},
		{"bad status", http.MethodPost, "/tasks", `{"projectTitle":"x","status":"done"}`, http.StatusBadRequest, CodeInvalidRequest},
		{"bad list filter", http.MethodGet, "/tasks?status=done", "", http.StatusBadRequest, CodeInvalidRequest},
		{"missing task", http.MethodGet, "/tasks/nope", "", http.StatusNotFound, CodeNotFound},
		{"update missing", http.MethodPut, "/tasks/nope", `{"projectTitle":"x"}`, http.StatusNotFound, CodeNotFound},
		{"delete missing", http.MethodDelete, "/tasks/nope", "", http.StatusNotFound, CodeNotFound},
		{"cancel missing", http.MethodPost, "/tasks/nope/cancel", "", http.StatusNotFound, CodeNotFound},
		{"unknown action", http.MethodPost, "/tasks/nope/claim", "", http.StatusNotFound, CodeNotFound},
		{"no id", http.MethodGet, "/tasks/", "", http.StatusBadRequest, CodeInvalidRequest},
		{"method", http.MethodPatch, "/tasks", "", http.StatusMethodNotAllowed, CodeMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body)
			}
			var env Envelope
			if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.OK || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("Expected error code %s, got %+v", tt.wantCode, env.Error)
			}
		})
	}
}

func TestRepresentatives_Token(t *testing.T) {
	s, _ := newTestServer(t, "s3cret")
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/representatives", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
	w = do(t, h, http.MethodGet, "/representatives", "", "wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with bad token, got %d", w.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/representatives", nil)
	req.Header.Set("Authorization", "s3cret")
	bare := httptest.NewRecorder()
	h.ServeHTTP(bare, req)
	if bare.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for token without Bearer scheme, got %d", bare.Code)
	}

	w = do(t, h, http.MethodPost, "/representatives", `{"name":"Ann","email":"ann@example.com","skillset":"Billing"}`, "s3cret")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body)
	}
	w = do(t, h, http.MethodPost, "/representatives", `{"name":"Bo","email":"not-an-email"}`, "s3cret")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad email, got %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/representatives", "", "s3cret")
	var reps []models.Representative
	decodeData(t, w, &reps)
	if len(reps) != 1 || reps[0].Status != "Active" {
		t.Errorf("Unexpected representatives: %+v", reps)
	}

	// Task endpoints stay open.
	w = do(t, h, http.MethodGet, "/tasks", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected tasks to be unauthenticated, got %d", w.Code)
	}
}

func TestCustomerUpload(t *testing.T) {
	s, _ := newTestServer(t, "")
	h := s.Handler()

	csvData := "Email,Name,Company\nops@acme.test,Acme,Acme Inc\n\nit@globex.test,Globex,\n"
	w := upload(t, h, csvData)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body)
	}
	var res UploadResult
	decodeData(t, w, &res)
	if res.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", res.Imported)
	}

	w = do(t, h, http.MethodGet, "/customers", "", "")
	var customers []models.Customer
	decodeData(t, w, &customers)
	if len(customers) != 2 {
		t.Errorf("Expected 2 customers, got %d", len(customers))
	}

	if w := upload(t, h, "name,phone\nAcme,555\n"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing email column, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/customers/upload", strings.NewReader("x"))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without multipart file, got %d", w.Code)
	}
}

func TestParseCustomersCSV(t *testing.T) {
	customers, err := ParseCustomersCSV(strings.NewReader("name,email,phone,company\nAcme, ops@acme.test ,555,Acme Inc\n"))
	if err != nil {
		t.Fatalf("ParseCustomersCSV failed: %v", err)
	}
	want := models.Customer{Name: "Acme", Email: "ops@acme.test", Phone: "555", Company: "Acme Inc"}
	if len(customers) != 1 || customers[0] != want {
		t.Errorf("Expected %+v, got %+v", want, customers)
	}

	for _, bad := range []string{"", "name,email\n", "name,email\nAcme,\n"} {
		if _, err := ParseCustomersCSV(strings.NewReader(bad)); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestStatsAndAudit(t *testing.T) {
	s, _ := newTestServer(t, "")
	h := s.Handler()

	do(t, h, http.MethodPost, "/tasks", `{"projectTitle":"a"}`, "")
	do(t, h, http.MethodPost, "/tasks", `{"projectTitle":"b","status":"completed"}`, "")

	w := do(t, h, http.MethodGet, "/stats", "", "")
	var stats models.Stats
	decodeData(t, w, &stats)
	if stats.TotalTasks != 2 || stats.CompletedTasks != 1 || stats.PendingTasks != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	w = do(t, h, http.MethodGet, "/audit?limit=10", "", "")
	var entries []models.AuditEntry
	decodeData(t, w, &entries)
	if len(entries) != 2 || entries[0].Action != "task.create" {
		t.Errorf("Expected 2 task.create audit entries, got %+v", entries)
	}
}

func TestAudit_Limit(t *testing.T) {
	s, _ := newTestServer(t, "")
	for i := 0; i < 60; i++ {
		if _, err := s.service.CreateTask(TaskRequest{ProjectTitle: fmt.Sprintf("task %d", i)}); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, 50},
		{-1, 50},
		{10, 10},
		{1000, 60},
	}
	for _, tt := range tests {
		entries, err := s.service.Audit(tt.limit)
		if err != nil {
			t.Fatalf("Audit(%d) failed: %v", tt.limit, err)
		}
		if len(entries) != tt.want {
			t.Errorf("Audit(%d): expected %d entries, got %d", tt.limit, tt.want, len(entries))
		}
	}
}

func TestEvents_PublishedOnMutation(t *testing.T) {
	s, _ := newTestServer(t, "")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer s.events.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.events.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Post(ts.URL+"/tasks", "application/json", strings.NewReader(`{"projectTitle":"x"}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if ev.Type != EventTasksChanged || ev.TaskID == "" {
		t.Errorf("Unexpected event: %+v", ev)
	}
}

func TestHub_CloseDisconnects(t *testing.T) {
	hub := NewHub(0, discardLogger())
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	hub.Close()
	if hub.Count() != 0 {
		t.Errorf("Expected no subscribers after Close, got %d", hub.Count())
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected read error after hub close")
	}
	hub.Publish(Event{Type: EventTasksChanged})
}

func newTestServer(t *testing.T, token string) (*Server, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := discardLogger()
	hub := NewHub(0, logger)
	service := NewService(st, audit.NewRecorder(st), hub, logger)
	return NewServer(service, st, hub, Options{Addr: "127.0.0.1:0", Token: token, Logger: logger}), st
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, h http.Handler, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "customers.csv")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/customers/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env Envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !env.OK {
		t.Fatalf("Expected ok envelope, got error %+v", env.Error)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}
