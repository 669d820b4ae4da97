package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// clickListener receives mouse clicks while an overlay is open.
type clickListener func(x, y int) tea.Cmd

// clickBus fans out document-level clicks to the overlays that are
// currently open. A listener is held only while its overlay is open.
type clickBus struct {
	nextID    int
	listeners map[int]clickListener
}

func newClickBus() *clickBus {
	return &clickBus{listeners: make(map[int]clickListener)}
}

// subscribe registers fn and returns its release function. Release is
// idempotent.
func (b *clickBus) subscribe(fn clickListener) func() {
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	released := false
	return func() {
		if released {
			return
		}
		released = true
		delete(b.listeners, id)
	}
}

// dispatch delivers a click to every listener. Listeners may release
// themselves while being called.
func (b *clickBus) dispatch(x, y int) tea.Cmd {
	fns := make([]clickListener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	cmds := make([]tea.Cmd, 0, len(fns))
	for _, fn := range fns {
		cmds = append(cmds, fn(x, y))
	}
	return tea.Batch(cmds...)
}

// len returns the number of listeners held.
func (b *clickBus) len() int { return len(b.listeners) }

// releaseAll drops every listener. Called on shutdown.
func (b *clickBus) releaseAll() {
	for id := range b.listeners {
		delete(b.listeners, id)
	}
}

// dropdownPickedMsg reports a choice made in a dropdown.
type dropdownPickedMsg struct {
	id    string
	index int
}

// dropdown is a transient menu anchored at a screen position. While open
// it holds a click listener; every path that closes it releases that
// listener.
type dropdown struct {
	id      string
	title   string
	options []string
	cursor  int

	x, y    int
	open    bool
	release func()
}

func newDropdown(id string, options []string) *dropdown {
	return &dropdown{id: id, options: options}
}

// Open shows the dropdown at (x, y) and acquires a click listener.
func (d *dropdown) Open(bus *clickBus, x, y, cursor int) {
	d.Close()
	d.x, d.y = x, y
	d.cursor = clamp(cursor, 0, len(d.options)-1)
	d.open = true
	d.release = bus.subscribe(d.onClick)
}

// Close hides the dropdown and releases its listener.
func (d *dropdown) Close() {
	d.open = false
	if d.release != nil {
		d.release()
		d.release = nil
	}
}

func (d *dropdown) IsOpen() bool { return d.open }

// bounds returns the rendered rectangle, border included.
func (d *dropdown) bounds() (x0, y0, x1, y1 int) {
	return d.x, d.y, d.x + lipgloss.Width(d.View()) - 1, d.y + lipgloss.Height(d.View()) - 1
}

func (d *dropdown) titleRows() int {
	if d.title == "" {
		return 0
	}
	return 1
}

func (d *dropdown) onClick(x, y int) tea.Cmd {
	if !d.open {
		return nil
	}
	x0, y0, x1, y1 := d.bounds()
	if x < x0 || x > x1 || y < y0 || y > y1 {
		d.Close()
		return nil
	}
	// border row, then optional title row
	idx := y - y0 - 1 - d.titleRows()
	if idx < 0 || idx >= len(d.options) {
		return nil
	}
	return d.pick(idx)
}

func (d *dropdown) pick(idx int) tea.Cmd {
	d.Close()
	id := d.id
	return func() tea.Msg { return dropdownPickedMsg{id: id, index: idx} }
}

// Update handles navigation keys while open. Other keys are not consumed.
func (d *dropdown) Update(msg tea.KeyMsg) (tea.Cmd, bool) {
	if !d.open {
		return nil, false
	}
	switch msg.String() {
	case "esc", "q":
		d.Close()
	case "up", "k":
		if d.cursor > 0 {
			d.cursor--
		}
	case "down", "j":
		if d.cursor < len(d.options)-1 {
			d.cursor++
		}
	case "enter", " ":
		return d.pick(d.cursor), true
	default:
		return nil, false
	}
	return nil, true
}

func (d *dropdown) View() string {
	var lines []string
	if d.title != "" {
		lines = append(lines, lipgloss.NewStyle().Bold(true).Render(d.title))
	}
	for i, opt := range d.options {
		if i == d.cursor {
			lines = append(lines, menuItemSelectedStyle.Render("› "+opt))
		} else {
			lines = append(lines, "  "+opt)
		}
	}
	return menuStyle.Render(strings.Join(lines, "\n"))
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
