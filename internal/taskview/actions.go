package taskview

import "github.com/fentz26/supportdesk/internal/models"

// Actions forwards row actions to the owner of the data. Any callback may be
// nil, in which case the action does nothing.
type Actions struct {
	OnEdit   func(task models.Task)
	OnDelete func(id string)
	OnCancel func(task models.Task)
}

// Edit dispatches the full task to OnEdit.
func (a Actions) Edit(task models.Task) {
	if a.OnEdit != nil {
		a.OnEdit(task)
	}
}

// Delete dispatches the task id to OnDelete.
func (a Actions) Delete(id string) {
	if a.OnDelete != nil {
		a.OnDelete(id)
	}
}

// Cancel dispatches the full task to OnCancel.
func (a Actions) Cancel(task models.Task) {
	if a.OnCancel != nil {
		a.OnCancel(task)
	}
}
