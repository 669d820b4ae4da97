package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// formSubmitMsg carries the values of a submitted form keyed by field name.
type formSubmitMsg struct {
	kind   string
	target string
	values map[string]string
}

type formField struct {
	name  string
	label string
	input textinput.Model
}

// form is a small modal of labelled text inputs. Enter on the last field
// submits, esc cancels.
type form struct {
	kind    string
	target  string
	title   string
	fields  []formField
	focus   int
	visible bool
}

type fieldSpec struct {
	name, label, value, placeholder string
}

func newForm(kind, target, title string, specs ...fieldSpec) *form {
	f := &form{kind: kind, target: target, title: title, visible: true}
	for _, s := range specs {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Width = 50
		ti.Placeholder = s.placeholder
		ti.SetValue(s.value)
		f.fields = append(f.fields, formField{name: s.name, label: s.label, input: ti})
	}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

func (f *form) setFocus(i int) {
	f.fields[f.focus].input.Blur()
	f.focus = clamp(i, 0, len(f.fields)-1)
	f.fields[f.focus].input.Focus()
}

func (f *form) values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, fld := range f.fields {
		out[fld.name] = strings.TrimSpace(fld.input.Value())
	}
	return out
}

// Update handles a key. A nil form result means the form closed.
func (f *form) Update(msg tea.Msg) tea.Cmd {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			f.visible = false
			return nil
		case "tab", "down":
			f.setFocus((f.focus + 1) % len(f.fields))
			return nil
		case "shift+tab", "up":
			f.setFocus((f.focus - 1 + len(f.fields)) % len(f.fields))
			return nil
		case "enter":
			if f.focus < len(f.fields)-1 {
				f.setFocus(f.focus + 1)
				return nil
			}
			f.visible = false
			submit := formSubmitMsg{kind: f.kind, target: f.target, values: f.values()}
			return func() tea.Msg { return submit }
		}
	}

	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *form) View(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render(f.title))
	b.WriteString("\n\n")
	for i, fld := range f.fields {
		label := lipgloss.NewStyle().Foreground(mutedColor).Width(14).Render(fld.label)
		if i == f.focus {
			label = lipgloss.NewStyle().Foreground(primaryColor).Width(14).Render(fld.label)
		}
		b.WriteString(label + fld.input.View() + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("tab: next field • enter: submit • esc: cancel"))
	w := width - 4
	if w > 80 {
		w = 80
	}
	return panelStyle.Width(w).Render(b.String())
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
