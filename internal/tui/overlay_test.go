package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestClickBus_ReleaseIdempotent(t *testing.T) {
	bus := newClickBus()
	calls := 0
	release := bus.subscribe(func(x, y int) tea.Cmd {
		calls++
		return nil
	})
	if bus.len() != 1 {
		t.Fatalf("Expected 1 listener, got %d", bus.len())
	}

	bus.dispatch(1, 1)
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}

	release()
	release()
	if bus.len() != 0 {
		t.Errorf("Expected 0 listeners after release, got %d", bus.len())
	}
	bus.dispatch(1, 1)
	if calls != 1 {
		t.Errorf("Released listener was called")
	}
}

func TestDropdown_ReleasesOnEveryClosePath(t *testing.T) {
	esc := tea.KeyMsg{Type: tea.KeyEsc}
	enter := tea.KeyMsg{Type: tea.KeyEnter}

	tests := []struct {
		name  string
		close func(d *dropdown, bus *clickBus)
	}{
		{"close", func(d *dropdown, bus *clickBus) { d.Close() }},
		{"escape", func(d *dropdown, bus *clickBus) { d.Update(esc) }},
		{"select", func(d *dropdown, bus *clickBus) { d.Update(enter) }},
		{"outside click", func(d *dropdown, bus *clickBus) { bus.dispatch(200, 200) }},
		{"inside click on option", func(d *dropdown, bus *clickBus) { bus.dispatch(d.x+2, d.y+1) }},
		{"shutdown", func(d *dropdown, bus *clickBus) { bus.releaseAll() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newClickBus()
			d := newDropdown("test", []string{"One", "Two"})
			d.Open(bus, 5, 5, 0)
			if !d.IsOpen() || bus.len() != 1 {
				t.Fatalf("Expected open dropdown holding one listener, got open=%v listeners=%d", d.IsOpen(), bus.len())
			}

			tt.close(d, bus)

			if bus.len() != 0 {
				t.Errorf("Expected listener released, %d held", bus.len())
			}
			d.Close()
			if bus.len() != 0 {
				t.Errorf("Second close changed listener count")
			}
		})
	}
}

func TestDropdown_ReopenHoldsSingleListener(t *testing.T) {
	bus := newClickBus()
	d := newDropdown("test", []string{"One"})
	d.Open(bus, 0, 0, 0)
	d.Open(bus, 3, 3, 0)
	if bus.len() != 1 {
		t.Errorf("Expected a single listener after reopen, got %d", bus.len())
	}
}

func TestDropdown_KeySelection(t *testing.T) {
	bus := newClickBus()
	d := newDropdown("status", []string{"All", "Completed", "In progress"})
	d.Open(bus, 0, 0, 0)

	d.Update(tea.KeyMsg{Type: tea.KeyDown})
	d.Update(tea.KeyMsg{Type: tea.KeyDown})
	d.Update(tea.KeyMsg{Type: tea.KeyDown})
	cmd, handled := d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !handled || cmd == nil {
		t.Fatal("Expected enter to produce a pick")
	}
	msg, ok := cmd().(dropdownPickedMsg)
	if !ok {
		t.Fatalf("Expected dropdownPickedMsg, got %T", cmd())
	}
	if msg.id != "status" || msg.index != 2 {
		t.Errorf("Expected status pick 2, got %+v", msg)
	}

	if _, handled := d.Update(tea.KeyMsg{Type: tea.KeyEnter}); handled {
		t.Error("Closed dropdown should not consume keys")
	}
}

func TestDropdown_ClickOnOption(t *testing.T) {
	bus := newClickBus()
	d := newDropdown("actions", []string{"Edit", "Delete", "Cancel"})
	d.title = "Task"
	d.Open(bus, 2, 4, 0)

	// border, title, then options
	cmd := d.onClick(4, 4+1+1+1)
	if cmd == nil {
		t.Fatal("Expected click on option to pick")
	}
	msg := cmd().(dropdownPickedMsg)
	if msg.index != 1 {
		t.Errorf("Expected Delete (1), got %d", msg.index)
	}
	if d.IsOpen() || bus.len() != 0 {
		t.Error("Expected dropdown closed and released after pick")
	}
}
