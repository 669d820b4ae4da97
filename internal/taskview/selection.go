package taskview

import "sort"

// Toggle adds id to the selection if absent and removes it if present.
func (s *State) Toggle(id string) {
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return
	}
	s.selected[id] = struct{}{}
}

// SetAllVisible replaces the selection with exactly the visible ids when
// enabled, or clears it when not. It never unions with the prior selection.
func (s *State) SetAllVisible(enabled bool) {
	next := make(map[string]struct{})
	if enabled {
		for _, t := range s.Visible() {
			next[t.ID] = struct{}{}
		}
	}
	s.selected = next
}

// ClearSelection empties the selection.
func (s *State) ClearSelection() { s.SetAllVisible(false) }

// IsSelected reports whether id is selected.
func (s *State) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// SelectedIDs returns the selected ids in sorted order. Ids of tasks that are
// no longer visible, or no longer in the working set, are included.
func (s *State) SelectedIDs() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SelectedCount returns the size of the selection.
func (s *State) SelectedCount() int { return len(s.selected) }

// AllVisibleSelected reports whether the visible page is non-empty and every
// visible task is selected.
func (s *State) AllVisibleSelected() bool {
	visible := s.Visible()
	if len(visible) == 0 {
		return false
	}
	for _, t := range visible {
		if !s.IsSelected(t.ID) {
			return false
		}
	}
	return true
}
