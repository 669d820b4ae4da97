// Package taskview implements the task table pipeline: a working set of tasks
// mirrored from an external source, narrowed by a search query and a status
// filter, ordered by one sort key, sliced into pages, with an independent
// selection overlay on top.
//
// Every stage is a pure function over its inputs. State holds the only mutable
// pieces and recomputes the derived sequences on demand.
package taskview

import (
	"reflect"

	"github.com/fentz26/supportdesk/internal/models"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 10

// State is the complete mutable state of one task table.
type State struct {
	working      []models.Task
	query        string
	statusFilter StatusFilter
	sortKey      SortKey
	direction    Direction
	page         int
	pageSize     int
	selected     map[string]struct{}
	loading      bool

	source sourceRef
	synced bool

	// sorted caches filter+sort output; rev bumps on every input change.
	rev       uint64
	sortedRev uint64
	sorted    []models.Task
}

// sourceRef identifies a source slice by its backing array and length.
type sourceRef struct {
	ptr uintptr
	n   int
}

func refOf(tasks []models.Task) sourceRef {
	return sourceRef{ptr: reflect.ValueOf(tasks).Pointer(), n: len(tasks)}
}

// New returns an empty table state. A non-positive pageSize uses DefaultPageSize.
func New(pageSize int) *State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &State{
		statusFilter: StatusAll,
		direction:    Asc,
		page:         1,
		pageSize:     pageSize,
		selected:     make(map[string]struct{}),
		rev:          1,
	}
}

// Sync mirrors source into the working set when the source reference differs
// from the last one synced. Local edits are discarded; the source always wins.
// It reports whether the working set was replaced.
//
// Empty slices share one backing pointer, so an empty source always replaces
// a non-empty working set.
func (s *State) Sync(source []models.Task) bool {
	ref := refOf(source)
	if s.synced && ref == s.source && (len(source) > 0 || len(s.working) == 0) {
		return false
	}
	s.source = ref
	s.synced = true
	s.working = append([]models.Task(nil), source...)
	s.touch()
	return true
}

// Append adds a locally created task to the working set. The previous working
// slice is never written to.
func (s *State) Append(task models.Task) {
	next := make([]models.Task, len(s.working), len(s.working)+1)
	copy(next, s.working)
	s.working = append(next, task)
	s.touch()
}

// Working returns the current working set. Callers must not modify it.
func (s *State) Working() []models.Task { return s.working }

// Query returns the free-text search query.
func (s *State) Query() string { return s.query }

// StatusFilter returns the active status filter.
func (s *State) StatusFilter() StatusFilter { return s.statusFilter }

// SortKey returns the active sort key; empty means unsorted.
func (s *State) SortKey() SortKey { return s.sortKey }

// Direction returns the active sort direction.
func (s *State) Direction() Direction { return s.direction }

// Page returns the current 1-based page index.
func (s *State) Page() int { return s.page }

// PageSize returns the fixed page size.
func (s *State) PageSize() int { return s.pageSize }

// Loading reports whether the table is waiting on its source.
func (s *State) Loading() bool { return s.loading }

// SetQuery replaces the search query.
func (s *State) SetQuery(q string) {
	if q == s.query {
		return
	}
	s.query = q
	s.touch()
}

// SetStatusFilter replaces the status filter.
func (s *State) SetStatusFilter(f StatusFilter) {
	if f == "" {
		f = StatusAll
	}
	if f == s.statusFilter {
		return
	}
	s.statusFilter = f
	s.touch()
}

// ToggleSort activates key. Choosing the active key flips the direction;
// choosing a new key starts ascending.
func (s *State) ToggleSort(key SortKey) {
	if key == s.sortKey && s.direction == Asc {
		s.direction = Desc
	} else {
		s.direction = Asc
	}
	s.sortKey = key
	s.touch()
}

// SetSort sets key and direction directly.
func (s *State) SetSort(key SortKey, dir Direction) {
	if dir != Desc {
		dir = Asc
	}
	s.sortKey = key
	s.direction = dir
	s.touch()
}

// SetLoading toggles the loading indicator. Pipeline state is kept as is.
func (s *State) SetLoading(loading bool) { s.loading = loading }

func (s *State) touch() { s.rev++ }

// sortedTasks returns the filtered and sorted working set.
func (s *State) sortedTasks() []models.Task {
	if s.sortedRev != s.rev {
		s.sorted = Sort(Filter(s.working, s.query, s.statusFilter), s.sortKey, s.direction)
		s.sortedRev = s.rev
	}
	return s.sorted
}

// Visible returns the current page of the pipeline output.
func (s *State) Visible() []models.Task {
	return Paginate(s.sortedTasks(), s.page, s.pageSize)
}

// MatchCount returns how many tasks pass the filter stage.
func (s *State) MatchCount() int { return len(s.sortedTasks()) }
