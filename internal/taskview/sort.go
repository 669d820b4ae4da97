package taskview

import (
	"slices"
	"strings"
	"time"

	"github.com/fentz26/supportdesk/internal/models"
)

// SortKey names a sortable task field. The zero value leaves order untouched.
type SortKey string

const (
	SortNone         SortKey = ""
	SortProjectTitle SortKey = "projectTitle"
	SortDescription  SortKey = "description"
	SortStatus       SortKey = "status"
	SortCustomerName SortKey = "customerName"
	SortTeamMembers  SortKey = "teamMembers"
	SortCreatedAt    SortKey = "createdAt"
)

var sortKeys = []SortKey{
	SortProjectTitle,
	SortDescription,
	SortStatus,
	SortCustomerName,
	SortTeamMembers,
	SortCreatedAt,
}

// ParseSortKey resolves a key name case-insensitively, ignoring spaces, so
// both "projectTitle" and "Project Title" work.
func ParseSortKey(v string) (SortKey, bool) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(v), " ", ""))
	if norm == "" {
		return SortNone, true
	}
	for _, k := range sortKeys {
		if strings.ToLower(string(k)) == norm {
			return k, true
		}
	}
	return SortNone, false
}

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// sortValue is either a string or a time.Time.
func sortValue(t models.Task, key SortKey) any {
	switch key {
	case SortProjectTitle:
		return t.ProjectTitle
	case SortDescription:
		return t.Description
	case SortStatus:
		return string(t.Status)
	case SortCustomerName:
		return t.CustomerName
	case SortTeamMembers:
		names := make([]string, len(t.AssignedMembers))
		for i, m := range t.AssignedMembers {
			names[i] = m.Name
		}
		return strings.Join(names, ", ")
	case SortCreatedAt:
		return t.CreatedAt
	}
	return ""
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return strings.Compare(av, bv)
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Compare(bv)
	}
	return 0
}

// Sort returns a stably sorted copy of tasks. An empty key returns tasks as is.
func Sort(tasks []models.Task, key SortKey, dir Direction) []models.Task {
	if key == SortNone {
		return tasks
	}
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b models.Task) int {
		c := compareValues(sortValue(a, key), sortValue(b, key))
		if dir == Desc {
			return -c
		}
		return c
	})
	return out
}
