package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	toastInfo = iota
	toastSuccess
	toastError
)

const defaultToastDuration = 3 * time.Second

type toast struct {
	id      int
	text    string
	level   int
	expires time.Time
}

type toastExpiredMsg struct{ id int }

// toaster shows one transient status-line message at a time.
type toaster struct {
	seq     int
	current *toast
}

// push replaces the current toast and schedules its expiry.
func (t *toaster) push(text string, level int, d time.Duration) tea.Cmd {
	t.seq++
	id := t.seq
	t.current = &toast{id: id, text: text, level: level, expires: time.Now().Add(d)}
	return tea.Tick(d, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

func (t *toaster) success(text string) tea.Cmd {
	return t.push(text, toastSuccess, defaultToastDuration)
}

func (t *toaster) info(text string) tea.Cmd {
	return t.push(text, toastInfo, defaultToastDuration)
}

func (t *toaster) error(err error) tea.Cmd {
	return t.push("Error: "+err.Error(), toastError, 2*defaultToastDuration)
}

// expire clears the toast if msg refers to it. Newer toasts are kept.
func (t *toaster) expire(msg toastExpiredMsg) {
	if t.current != nil && t.current.id == msg.id {
		t.current = nil
	}
}

func (t *toaster) text() string {
	if t.current == nil {
		return ""
	}
	return t.current.text
}

func (t *toaster) View() string {
	if t.current == nil || time.Now().After(t.current.expires) {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(cyanColor)
	switch t.current.level {
	case toastSuccess:
		style = lipgloss.NewStyle().Foreground(successColor)
	case toastError:
		style = lipgloss.NewStyle().Foreground(errorColor)
	}
	return style.Render(t.current.text)
}
