package taskview

import "github.com/fentz26/supportdesk/internal/models"

// PageCount returns ceil(n/size), never less than 1.
func PageCount(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Paginate returns the 1-based page of tasks. Pages past either end are empty.
func Paginate(tasks []models.Task, page, size int) []models.Task {
	if size <= 0 || page < 1 {
		return nil
	}
	start := (page - 1) * size
	if start >= len(tasks) {
		return nil
	}
	end := start + size
	if end > len(tasks) {
		end = len(tasks)
	}
	return tasks[start:end:end]
}

// PageInfo describes the visible window for pagination controls.
type PageInfo struct {
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
	// Start and End are the 1-based inclusive positions of the visible rows,
	// both zero when nothing is visible.
	Start int `json:"start"`
	End   int `json:"end"`
}

// ShowControls reports whether pagination controls should be drawn.
func (p PageInfo) ShowControls() bool { return p.PageCount > 1 }

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.PageCount }

// GoToPage moves to page p, clamped to [1, page count].
func (s *State) GoToPage(p int) {
	count := PageCount(s.MatchCount(), s.pageSize)
	if p > count {
		p = count
	}
	if p < 1 {
		p = 1
	}
	s.page = p
}

// NextPage advances one page, stopping at the last.
func (s *State) NextPage() { s.GoToPage(s.page + 1) }

// PrevPage goes back one page, stopping at the first.
func (s *State) PrevPage() { s.GoToPage(s.page - 1) }

// PageInfo returns pagination metadata for the current state.
func (s *State) PageInfo() PageInfo {
	total := s.MatchCount()
	info := PageInfo{
		Page:      s.page,
		PageCount: PageCount(total, s.pageSize),
		Total:     total,
	}
	if n := len(s.Visible()); n > 0 {
		info.Start = (s.page-1)*s.pageSize + 1
		info.End = info.Start + n - 1
	}
	return info
}
