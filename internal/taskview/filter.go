package taskview

import (
	"strings"

	"github.com/fentz26/supportdesk/internal/models"
)

// StatusFilter is a task status or StatusAll.
type StatusFilter string

// StatusAll disables status filtering.
const StatusAll StatusFilter = "all"

// FilterOptions lists the filter choices in menu order.
var FilterOptions = []StatusFilter{
	StatusAll,
	StatusFilter(models.TaskStatusCompleted),
	StatusFilter(models.TaskStatusInProgress),
	StatusFilter(models.TaskStatusPending),
	StatusFilter(models.TaskStatusCancelled),
}

// ParseStatusFilter accepts "all", an empty string, or a known status.
func ParseStatusFilter(v string) (StatusFilter, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || v == string(StatusAll) {
		return StatusAll, true
	}
	if models.TaskStatus(v).Valid() {
		return StatusFilter(v), true
	}
	return "", false
}

// Matches reports whether task passes the query and status predicates.
func Matches(task models.Task, query string, status StatusFilter) bool {
	if status != StatusAll && status != "" && string(task.Status) != string(status) {
		return false
	}
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(task.ProjectTitle), q) ||
		strings.Contains(strings.ToLower(task.Description), q) ||
		strings.Contains(strings.ToLower(task.CustomerName), q)
}

// Filter returns the tasks matching query and status, in their original order.
func Filter(tasks []models.Task, query string, status StatusFilter) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, query, status) {
			out = append(out, t)
		}
	}
	return out
}
