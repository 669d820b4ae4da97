// Package store provides SQLite-backed persistence for supportdesk.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/supportdesk/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store provides access to the supportdesk SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// WAL so the dashboard can read while the API writes
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		project_title TEXT NOT NULL,
		description TEXT,
		customer_name TEXT,
		keywords TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		assigned_members TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS representatives (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		skillset TEXT,
		status TEXT NOT NULL DEFAULT 'Active',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT,
		company TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		task_id TEXT,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_audit_task_id ON audit_log(task_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Task Operations ---

// TaskInput holds the editable fields of a task.
type TaskInput struct {
	ProjectTitle    string
	Description     string
	CustomerName    string
	Keywords        []string
	Status          models.TaskStatus
	AssignedMembers []models.Member
}

const taskColumns = `id, project_title, description, customer_name, keywords, status, assigned_members, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var description, customerName, keywords, members sql.NullString
	if err := row.Scan(&task.ID, &task.ProjectTitle, &description, &customerName, &keywords, &task.Status, &members, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}
	task.Description = description.String
	task.CustomerName = customerName.String
	if keywords.Valid && keywords.String != "" {
		if err := json.Unmarshal([]byte(keywords.String), &task.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords: %w", err)
		}
	}
	if members.Valid && members.String != "" {
		if err := json.Unmarshal([]byte(members.String), &task.AssignedMembers); err != nil {
			return nil, fmt.Errorf("decode members: %w", err)
		}
	}
	return &task, nil
}

func encodeList(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CreateTask inserts a new task. An empty status defaults to pending.
func (s *Store) CreateTask(in TaskInput) (*models.Task, error) {
	now := time.Now().UTC()
	if in.Status == "" {
		in.Status = models.TaskStatusPending
	}
	task := &models.Task{
		ID:              uuid.New().String(),
		ProjectTitle:    in.ProjectTitle,
		Description:     in.Description,
		CustomerName:    in.CustomerName,
		Keywords:        in.Keywords,
		Status:          in.Status,
		AssignedMembers: in.AssignedMembers,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	keywords, err := encodeList(task.Keywords)
	if err != nil {
		return nil, fmt.Errorf("encode keywords: %w", err)
	}
	members, err := encodeList(task.AssignedMembers)
	if err != nil {
		return nil, fmt.Errorf("encode members: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.ProjectTitle, task.Description, task.CustomerName, keywords, task.Status, members, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// GetTask retrieves a task by ID. It returns nil, nil when the task does not exist.
func (s *Store) GetTask(id string) (*models.Task, error) {
	task, err := scanTask(s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// ListTasks returns all tasks, optionally filtered by status, newest first.
func (s *Store) ListTasks(status string) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []interface{}

	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// UpdateTask replaces the editable fields of a task and returns the result.
func (s *Store) UpdateTask(id string, in TaskInput) (*models.Task, error) {
	keywords, err := encodeList(in.Keywords)
	if err != nil {
		return nil, fmt.Errorf("encode keywords: %w", err)
	}
	members, err := encodeList(in.AssignedMembers)
	if err != nil {
		return nil, fmt.Errorf("encode members: %w", err)
	}
	if in.Status == "" {
		in.Status = models.TaskStatusPending
	}

	result, err := s.db.Exec(
		`UPDATE tasks SET project_title = ?, description = ?, customer_name = ?, keywords = ?, status = ?, assigned_members = ?, updated_at = ? WHERE id = ?`,
		in.ProjectTitle, in.Description, in.CustomerName, keywords, in.Status, members, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if err := requireRow(result); err != nil {
		return nil, err
	}
	return s.GetTask(id)
}

// UpdateTaskStatus updates the status of a task.
func (s *Store) UpdateTaskStatus(id string, status models.TaskStatus) error {
	result, err := s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return requireRow(result)
}

// AssignTask replaces the members assigned to a task.
func (s *Store) AssignTask(id string, members []models.Member) error {
	encoded, err := encodeList(members)
	if err != nil {
		return fmt.Errorf("encode members: %w", err)
	}
	result, err := s.db.Exec(
		`UPDATE tasks SET assigned_members = ?, updated_at = ? WHERE id = ?`,
		encoded, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("assign task: %w", err)
	}
	return requireRow(result)
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(id string) error {
	result, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Representative Operations ---

// CreateRepresentative inserts a representative. Status defaults to "Active".
func (s *Store) CreateRepresentative(name, email, skillset, status string) (*models.Representative, error) {
	if status == "" {
		status = "Active"
	}
	rep := &models.Representative{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Skillset:  skillset,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO representatives (id, name, email, skillset, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.Name, rep.Email, rep.Skillset, rep.Status, rep.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert representative: %w", err)
	}
	return rep, nil
}

// ListRepresentatives returns all representatives ordered by name.
func (s *Store) ListRepresentatives() ([]models.Representative, error) {
	rows, err := s.db.Query(`SELECT id, name, email, skillset, status, created_at FROM representatives ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query representatives: %w", err)
	}
	defer rows.Close()

	var reps []models.Representative
	for rows.Next() {
		var rep models.Representative
		var skillset sql.NullString
		if err := rows.Scan(&rep.ID, &rep.Name, &rep.Email, &skillset, &rep.Status, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan representative: %w", err)
		}
		rep.Skillset = skillset.String
		reps = append(reps, rep)
	}
	return reps, rows.Err()
}

// --- Customer Operations ---

// UpsertCustomers inserts customers in one transaction, updating existing rows
// that share an email. It returns how many rows were written.
func (s *Store) UpsertCustomers(customers []models.Customer) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, c := range customers {
		_, err := tx.Exec(
			`INSERT INTO customers (id, name, email, phone, company, created_at) VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(email) DO UPDATE SET name = excluded.name, phone = excluded.phone, company = excluded.company`,
			uuid.New().String(), c.Name, c.Email, c.Phone, c.Company, now,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert customer %s: %w", c.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(customers), nil
}

// ListCustomers returns all customers ordered by name.
func (s *Store) ListCustomers() ([]models.Customer, error) {
	rows, err := s.db.Query(`SELECT id, name, email, phone, company, created_at FROM customers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var c models.Customer
		var phone, company sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &phone, &company, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		c.Phone = phone.String
		c.Company = company.String
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// --- Stats ---

// Stats counts tasks by state and the size of the support team.
func (s *Store) Stats() (*models.Stats, error) {
	var st models.Stats
	err := s.db.QueryRow(
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		 FROM tasks`,
		models.TaskStatusCompleted, models.TaskStatusPending,
	).Scan(&st.TotalTasks, &st.CompletedTasks, &st.PendingTasks)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM representatives`).Scan(&st.TeamMembers); err != nil {
		return nil, fmt.Errorf("count representatives: %w", err)
	}
	return &st, nil
}

// --- Audit Operations ---

// WriteAudit writes an audit entry.
func (s *Store) WriteAudit(action, inputsHash, outcome, taskID, details string) (*models.AuditEntry, error) {
	entry := &models.AuditEntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		TaskID:     taskID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO audit_log (id, action, inputs_hash, outcome, task_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.InputsHash, entry.Outcome, entry.TaskID, entry.Details, entry.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert audit entry: %w", err)
	}
	return entry, nil
}

// ListAudit returns the most recent audit entries, newest first.
func (s *Store) ListAudit(limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, action, inputs_hash, outcome, task_id, details, timestamp FROM audit_log ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var taskID, details sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &taskID, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.TaskID = taskID.String
		e.Details = details.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
