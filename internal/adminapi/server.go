package adminapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/supportdesk/internal/models"
	"github.com/fentz26/supportdesk/internal/store"
	"github.com/fentz26/supportdesk/internal/version"
)

const maxUploadSize = 10 << 20

// Options configures a Server.
type Options struct {
	Addr string
	// Token, when set, must be presented as a bearer token on the
	// representative and customer endpoints.
	Token  string
	Logger *slog.Logger
}

// Server provides the HTTP API for supportdesk.
type Server struct {
	service *Service
	store   *store.Store
	events  *Hub
	addr    string
	token   string
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new HTTP server. events may be nil, in which case
// /events is not served.
func NewServer(service *Service, st *store.Store, events *Hub, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		service: service,
		store:   st,
		events:  events,
		addr:    opts.Addr,
		token:   opts.Token,
		logger:  logger,
	}
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)

	// Task endpoints
	mux.HandleFunc("/tasks", s.handleTasks)
	mux.HandleFunc("/tasks/", s.handleTaskByID)

	// Admin endpoints
	mux.Handle("/representatives", s.requireToken(http.HandlerFunc(s.handleRepresentatives)))
	mux.Handle("/customers", s.requireToken(http.HandlerFunc(s.handleCustomers)))
	mux.Handle("/customers/upload", s.requireToken(http.HandlerFunc(s.handleCustomerUpload)))

	mux.HandleFunc("/stats", s.handleStats)
	mux.Handle("/audit", s.requireToken(http.HandlerFunc(s.handleAudit)))

	if s.events != nil {
		mux.Handle("/events", s.events)
	}

	return s.logRequests(mux)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("starting supportdesk daemon", "addr", s.addr, "version", version.Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and disconnects event subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.events != nil {
		s.events.Close()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, ErrUnauthorized.Error())
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// writeServiceError maps service errors to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, ErrNotFound), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error())
	default:
		s.logger.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json", ErrInvalidInput)
	}
	return nil
}

// --- Health ---

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		health.OK = false
		health.DB = "error: " + err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// --- Tasks ---

// handleTasks handles POST /tasks and GET /tasks
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createTask(w, r)
	case http.MethodGet:
		s.listTasks(w, r)
	default:
		methodNotAllowed(w)
	}
}

// handleTaskByID handles /tasks/{id} and /tasks/{id}/{action}
func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/tasks/")
	parts := strings.Split(path, "/")

	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "task id required")
		return
	}

	taskID := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getTask(w, taskID)
	case action == "" && r.Method == http.MethodPut:
		s.updateTask(w, r, taskID)
	case action == "" && r.Method == http.MethodDelete:
		s.deleteTask(w, taskID)
	case action == "cancel" && r.Method == http.MethodPost:
		s.cancelTask(w, taskID)
	case action == "assign" && r.Method == http.MethodPost:
		s.assignTask(w, r, taskID)
	default:
		writeError(w, http.StatusNotFound, CodeNotFound, "not found")
	}
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}

	task, err := s.service.CreateTask(req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, task, nil)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.service.ListTasks(r.URL.Query().Get("status"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeOK(w, http.StatusOK, tasks, &Meta{Count: len(tasks)})
}

func (s *Server) getTask(w http.ResponseWriter, taskID string) {
	task, err := s.service.GetTask(taskID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeOK(w, http.StatusOK, task, nil)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, taskID string) {
	var req TaskRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}

	task, err := s.service.UpdateTask(taskID, req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeOK(w, http.StatusOK, task, nil)
}

func (s *Server) deleteTask(w http.ResponseWriter, taskID string) {
	if err := s.service.DeleteTask(taskID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]string{"id": taskID, "status": "deleted"}, nil)
}

func (s *Server) cancelTask(w http.ResponseWriter, taskID string) {
	task, err := s.service.CancelTask(taskID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeOK(w, http.StatusOK, task, nil)
}

type assignRequest struct {
	Members []models.Member `json:"members"`
}

func (s *Server) assignTask(w http.ResponseWriter, r *http.Request, taskID string) {
	var req assignRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}

	task, err := s.service.AssignTask(taskID, req.Members)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeOK(w, http.StatusOK, task, nil)
}

// --- Representatives ---

func (s *Server) handleRepresentatives(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		reps, err := s.service.ListRepresentatives()
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if reps == nil {
			reps = []models.Representative{}
		}
		writeOK(w, http.StatusOK, reps, &Meta{Count: len(reps)})
	case http.MethodPost:
		var req RepresentativeRequest
		if err := decodeBody(r, &req); err != nil {
			s.writeServiceError(w, err)
			return
		}
		rep, err := s.service.CreateRepresentative(req)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeOK(w, http.StatusCreated, rep, nil)
	default:
		methodNotAllowed(w)
	}
}

// --- Customers ---

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	customers, err := s.service.ListCustomers()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	writeOK(w, http.StatusOK, customers, &Meta{Count: len(customers)})
}

// UploadResult is the body of a successful customer upload.
type UploadResult struct {
	Imported int `json:"imported"`
}

func (s *Server) handleCustomerUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	n, err := s.service.ImportCustomers(file)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeOK(w, http.StatusOK, UploadResult{Imported: n}, nil)
}

// --- Dashboard ---

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	stats, err := s.service.Stats()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeOK(w, http.StatusOK, stats, nil)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.service.Audit(limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	writeOK(w, http.StatusOK, entries, &Meta{Count: len(entries)})
}
