// Package models defines the core domain types for supportdesk.
package models

import "time"

// TaskStatus represents the current state of a support task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskStatuses lists the known statuses in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Member is a team member assigned to a task. Display only.
type Member struct {
	Name string `json:"name"`
}

// Task is a support task as served by the admin API.
type Task struct {
	ID              string     `json:"id"`
	ProjectTitle    string     `json:"projectTitle"`
	Description     string     `json:"description"`
	CustomerName    string     `json:"customerName"`
	Keywords        []string   `json:"keywords"`
	Status          TaskStatus `json:"status"`
	AssignedMembers []Member   `json:"assignedMembers"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Representative is a support team member.
type Representative struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Skillset  string    `json:"skillset"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Customer is a customer record, usually imported from CSV.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuditEntry records a state-mutating action for later review.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	TaskID     string    `json:"task_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Stats summarizes the dashboard.
type Stats struct {
	TotalTasks     int `json:"totalTasks"`
	CompletedTasks int `json:"completedTasks"`
	PendingTasks   int `json:"pendingTasks"`
	TeamMembers    int `json:"teamMembers"`
}
