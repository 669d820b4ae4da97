// Package adminapi provides the HTTP API and service layer for supportdesk.
package adminapi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/fentz26/supportdesk/internal/audit"
	"github.com/fentz26/supportdesk/internal/models"
	"github.com/fentz26/supportdesk/internal/store"
)

// Service provides the admin business logic.
type Service struct {
	store  *store.Store
	audit  *audit.Recorder
	events *Hub
	logger *slog.Logger
}

// NewService creates a new admin service. events may be nil.
func NewService(s *store.Store, rec *audit.Recorder, events *Hub, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  s,
		audit:  rec,
		events: events,
		logger: logger,
	}
}

func (s *Service) record(action string, inputs any, taskID, details string) {
	if _, err := s.audit.Record(action, inputs, "success", taskID, details); err != nil {
		s.logger.Error("audit write failed", "action", action, "err", err)
	}
}

func (s *Service) publish(ev Event) {
	if s.events != nil {
		s.events.Publish(ev)
	}
}

// --- Task Operations ---

// TaskRequest is the editable payload of a task.
type TaskRequest struct {
	ProjectTitle    string            `json:"projectTitle"`
	Description     string            `json:"description"`
	CustomerName    string            `json:"customerName"`
	Keywords        []string          `json:"keywords"`
	Status          models.TaskStatus `json:"status"`
	AssignedMembers []models.Member   `json:"assignedMembers"`
}

func (r TaskRequest) validate() error {
	if strings.TrimSpace(r.ProjectTitle) == "" {
		return fmt.Errorf("%w: projectTitle is required", ErrInvalidInput)
	}
	if r.Status != "" && !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, r.Status)
	}
	return nil
}

func (r TaskRequest) input() store.TaskInput {
	return store.TaskInput{
		ProjectTitle:    strings.TrimSpace(r.ProjectTitle),
		Description:     r.Description,
		CustomerName:    r.CustomerName,
		Keywords:        r.Keywords,
		Status:          r.Status,
		AssignedMembers: r.AssignedMembers,
	}
}

// CreateTask creates a new task.
func (s *Service) CreateTask(req TaskRequest) (*models.Task, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	task, err := s.store.CreateTask(req.input())
	if err != nil {
		return nil, err
	}

	s.record("task.create", req, task.ID, "")
	s.publish(Event{Type: EventTasksChanged, TaskID: task.ID})
	return task, nil
}

// GetTask retrieves a task by ID.
func (s *Service) GetTask(id string) (*models.Task, error) {
	task, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// ListTasks returns tasks, optionally restricted to one status.
func (s *Service) ListTasks(status string) ([]models.Task, error) {
	if status != "" && status != "all" && !models.TaskStatus(status).Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if status == "all" {
		status = ""
	}
	return s.store.ListTasks(status)
}

// UpdateTask replaces the editable fields of a task.
func (s *Service) UpdateTask(id string, req TaskRequest) (*models.Task, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	task, err := s.store.UpdateTask(id, req.input())
	if err != nil {
		return nil, taskErr(err)
	}

	s.record("task.update", req, id, "")
	s.publish(Event{Type: EventTasksChanged, TaskID: id})
	return task, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(id string) error {
	if err := s.store.DeleteTask(id); err != nil {
		return taskErr(err)
	}

	s.record("task.delete", map[string]string{"id": id}, id, "")
	s.publish(Event{Type: EventTasksChanged, TaskID: id})
	return nil
}

// CancelTask moves a task to the cancelled status.
func (s *Service) CancelTask(id string) (*models.Task, error) {
	if err := s.store.UpdateTaskStatus(id, models.TaskStatusCancelled); err != nil {
		return nil, taskErr(err)
	}

	s.record("task.cancel", map[string]string{"id": id}, id, "")
	s.publish(Event{Type: EventTasksChanged, TaskID: id})
	return s.GetTask(id)
}

// AssignTask replaces the members assigned to a task.
func (s *Service) AssignTask(id string, members []models.Member) (*models.Task, error) {
	for _, m := range members {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("%w: member name is required", ErrInvalidInput)
		}
	}
	if err := s.store.AssignTask(id, members); err != nil {
		return nil, taskErr(err)
	}

	s.record("task.assign", members, id, fmt.Sprintf("%d members", len(members)))
	s.publish(Event{Type: EventTasksChanged, TaskID: id})
	return s.GetTask(id)
}

func taskErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}

// --- Representative Operations ---

// RepresentativeRequest is the payload for adding a representative.
type RepresentativeRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Skillset string `json:"skillset"`
	Status   string `json:"status"`
}

// CreateRepresentative adds a support representative.
func (s *Service) CreateRepresentative(req RepresentativeRequest) (*models.Representative, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", ErrInvalidInput, req.Email)
	}
	rep, err := s.store.CreateRepresentative(strings.TrimSpace(req.Name), req.Email, req.Skillset, req.Status)
	if err != nil {
		return nil, err
	}

	s.record("representative.create", req, "", rep.ID)
	s.publish(Event{Type: EventRepsChanged})
	return rep, nil
}

// ListRepresentatives returns all representatives.
func (s *Service) ListRepresentatives() ([]models.Representative, error) {
	return s.store.ListRepresentatives()
}

// --- Customer Operations ---

// ImportCustomers reads a CSV with a header row naming at least the name and
// email columns (phone and company are optional, order is free) and upserts
// every row by email. It returns the number of rows written.
func (s *Service) ImportCustomers(r io.Reader) (int, error) {
	customers, err := ParseCustomersCSV(r)
	if err != nil {
		return 0, err
	}
	n, err := s.store.UpsertCustomers(customers)
	if err != nil {
		return 0, err
	}

	s.record("customer.import", len(customers), "", fmt.Sprintf("%d rows", n))
	return n, nil
}

// ParseCustomersCSV decodes customer rows from CSV. Blank lines are skipped.
func ParseCustomersCSV(r io.Reader) ([]models.Customer, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty csv", ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "email"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: csv header missing %q column", ErrInvalidInput, required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var customers []models.Customer
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		line, _ := cr.FieldPos(0)
		c := models.Customer{
			Name:    field(rec, "name"),
			Email:   field(rec, "email"),
			Phone:   field(rec, "phone"),
			Company: field(rec, "company"),
		}
		if c.Name == "" && c.Email == "" {
			continue
		}
		if c.Email == "" {
			return nil, fmt.Errorf("%w: line %d: email is required", ErrInvalidInput, line)
		}
		customers = append(customers, c)
	}
	if len(customers) == 0 {
		return nil, fmt.Errorf("%w: csv has no rows", ErrInvalidInput)
	}
	return customers, nil
}

// ListCustomers returns all customers.
func (s *Service) ListCustomers() ([]models.Customer, error) {
	return s.store.ListCustomers()
}

// --- Dashboard ---

// Stats returns dashboard counters.
func (s *Service) Stats() (*models.Stats, error) {
	return s.store.Stats()
}

// Audit returns the most recent audit entries. A non-positive limit means
// 50; larger limits are capped at 500.
func (s *Service) Audit(limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	limit = min(limit, 500)
	return s.store.ListAudit(limit)
}
