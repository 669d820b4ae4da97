package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// paletteCommand is an entry in the command palette.
type paletteCommand struct {
	Name        string
	Description string
}

// paletteRunMsg asks the app to run the named command.
type paletteRunMsg struct{ name string }

var paletteCommands = []paletteCommand{
	{Name: "add", Description: "Create a new task or representative"},
	{Name: "edit", Description: "Edit the task under the cursor"},
	{Name: "delete", Description: "Delete selected tasks (or the one under the cursor)"},
	{Name: "cancel", Description: "Cancel the task under the cursor"},
	{Name: "assign", Description: "Assign team members to the task under the cursor"},
	{Name: "import", Description: "Import customers from a CSV file"},
	{Name: "copy", Description: "Copy selected task ids to the clipboard"},
	{Name: "clear", Description: "Clear the selection"},
	{Name: "refresh", Description: "Reload data from the daemon"},
	{Name: "quit", Description: "Exit supportdesk"},
}

// palette is a command palette with fuzzy search.
type palette struct {
	input    textinput.Model
	commands []paletteCommand
	matches  []fuzzy.Match
	selected int
	visible  bool
}

func newPalette() *palette {
	input := textinput.New()
	input.Placeholder = "Type a command..."
	input.Prompt = "> "
	input.CharLimit = 64

	p := &palette{input: input, commands: paletteCommands}
	p.updateMatches()
	return p
}

// Show shows the palette and focuses input.
func (p *palette) Show() tea.Cmd {
	p.visible = true
	p.input.Reset()
	p.selected = 0
	p.updateMatches()
	return p.input.Focus()
}

func (p *palette) Hide() {
	p.visible = false
	p.input.Blur()
}

func (p *palette) Visible() bool { return p.visible }

// Selected returns the currently highlighted command, if any.
func (p *palette) Selected() *paletteCommand {
	if p.selected >= len(p.matches) {
		return nil
	}
	return &p.commands[p.matches[p.selected].Index]
}

func (p *palette) Update(msg tea.Msg) tea.Cmd {
	if !p.visible {
		return nil
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc", "ctrl+c":
			p.Hide()
			return nil
		case "enter":
			cmd := p.Selected()
			p.Hide()
			if cmd == nil {
				return nil
			}
			name := cmd.Name
			return func() tea.Msg { return paletteRunMsg{name: name} }
		case "up", "ctrl+p":
			if p.selected > 0 {
				p.selected--
			}
			return nil
		case "down", "ctrl+n":
			if p.selected < len(p.matches)-1 {
				p.selected++
			}
			return nil
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.updateMatches()
	p.selected = 0
	return cmd
}

func (p *palette) updateMatches() {
	query := strings.TrimSpace(p.input.Value())
	if query == "" {
		p.matches = make([]fuzzy.Match, len(p.commands))
		for i := range p.commands {
			p.matches[i] = fuzzy.Match{Index: i}
		}
		return
	}

	names := make([]string, len(p.commands))
	for i, cmd := range p.commands {
		names[i] = cmd.Name
	}
	p.matches = fuzzy.Find(query, names)
}

func (p *palette) View(width int) string {
	var b strings.Builder
	b.WriteString(p.input.View() + "\n")
	if len(p.matches) == 0 {
		b.WriteString(helpStyle.Render("  no matching commands"))
	}
	for i, m := range p.matches {
		cmd := p.commands[m.Index]
		desc := lipgloss.NewStyle().Foreground(mutedColor).Render(cmd.Description)
		line := "  " + lipgloss.NewStyle().Width(10).Render(cmd.Name) + desc
		if i == p.selected {
			line = menuItemSelectedStyle.Render("› "+lipgloss.NewStyle().Width(10).Render(cmd.Name)) + desc
		}
		b.WriteString(line + "\n")
	}
	w := width - 4
	if w > 70 {
		w = 70
	}
	return menuStyle.Width(w).Render(strings.TrimRight(b.String(), "\n"))
}
