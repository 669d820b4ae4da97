package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/supportdesk/internal/models"
	"github.com/fentz26/supportdesk/internal/taskview"
)

const (
	statusMenuID = "status"
	actionMenuID = "actions"

	checkColWidth = 3
	// table header plus its bottom border, drawn above the row viewport
	tableHeaderRows = 2
)

var actionOptions = []string{"Edit", "Delete", "Cancel"}

// tasksTab renders the task table. All list semantics live in taskview;
// this type maps keys and clicks onto it and draws the result.
type tasksTab struct {
	state   *taskview.State
	source  []models.Task
	actions taskview.Actions

	table      table.Model
	search     textinput.Model
	searching  bool
	statusMenu *dropdown
	actionMenu *dropdown
	actionTask models.Task
	spinner    spinner.Model

	top    int // screen row of the toolbar
	width  int
	height int
}

func newTasksTab(pageSize int) *tasksTab {
	search := textinput.New()
	search.Placeholder = "Search tasks..."
	search.Prompt = "🔍 "
	search.CharLimit = 128
	search.Width = 30

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	statusLabels := make([]string, len(taskview.FilterOptions))
	for i, f := range taskview.FilterOptions {
		statusLabels[i] = filterLabel(f)
	}

	t := table.New(
		table.WithFocused(true),
		table.WithHeight(pageSize),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(mutedColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(fgColor).
		Background(primaryColor).
		Bold(false)
	t.SetStyles(styles)

	m := &tasksTab{
		state:      taskview.New(pageSize),
		table:      t,
		search:     search,
		statusMenu: newDropdown(statusMenuID, statusLabels),
		actionMenu: newDropdown(actionMenuID, actionOptions),
		spinner:    sp,
		width:      100,
	}
	m.refresh()
	return m
}

func filterLabel(f taskview.StatusFilter) string {
	if f == taskview.StatusAll || f == "" {
		return "All"
	}
	return taskview.StatusLabel(models.TaskStatus(f))
}

// setSource hands freshly fetched tasks to the sync stage.
func (m *tasksTab) setSource(tasks []models.Task) {
	m.source = tasks
	m.state.Sync(m.source)
	m.state.SetLoading(false)
	m.refresh()
}

func (m *tasksTab) setSize(width, height int) {
	m.width = width
	m.height = height
	m.refresh()
}

func (m *tasksTab) overlayOpen() bool {
	return m.statusMenu.IsOpen() || m.actionMenu.IsOpen()
}

func (m *tasksTab) closeOverlays() {
	m.statusMenu.Close()
	m.actionMenu.Close()
}

// cursorTask returns the task under the table cursor.
func (m *tasksTab) cursorTask() (models.Task, bool) {
	rows := m.state.Visible()
	i := m.table.Cursor()
	if i < 0 || i >= len(rows) {
		return models.Task{}, false
	}
	return rows[i], true
}

func (m *tasksTab) columnWidths() []int {
	// checkbox, title, description, status, members
	avail := m.width - checkColWidth - 2*5
	if avail < 40 {
		avail = 40
	}
	status := 12
	members := avail / 5
	title := avail / 4
	desc := avail - status - members - title
	return []int{checkColWidth, title, desc, status, members}
}

func (m *tasksTab) columns() []table.Column {
	widths := m.columnWidths()
	cols := []table.Column{{Title: "✓", Width: widths[0]}}
	for i, c := range taskview.Columns {
		title := fmt.Sprintf("%d %s", i+1, c.Title)
		if m.state.SortKey() == c.Key {
			if m.state.Direction() == taskview.Desc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		cols = append(cols, table.Column{Title: title, Width: widths[i+1]})
	}
	return cols
}

func (m *tasksTab) refresh() {
	widths := m.columnWidths()
	m.table.SetColumns(m.columns())

	visible := m.state.Visible()
	rows := make([]table.Row, 0, len(visible))
	for _, t := range visible {
		check := "[ ]"
		if m.state.IsSelected(t.ID) {
			check = "[x]"
		}
		desc := t.Description
		if kw := taskview.KeywordSummary(t.Keywords); kw != "" {
			desc += " · " + kw
		}
		rows = append(rows, table.Row{
			check,
			truncate(t.ProjectTitle, widths[1]),
			truncate(desc, widths[2]),
			truncate(taskview.StatusLabel(t.Status), widths[3]),
			truncate(taskview.MemberSummary(t.AssignedMembers), widths[4]),
		})
	}
	m.table.SetRows(rows)
	m.table.SetHeight(max(len(rows), 1))
	m.table.SetCursor(clamp(m.table.Cursor(), 0, len(rows)-1))
}

// Update handles key input for the tab. handled is false when the key
// should fall through to app-level bindings.
func (m *tasksTab) Update(msg tea.KeyMsg, bus *clickBus) (cmd tea.Cmd, handled bool) {
	if m.searching {
		switch msg.String() {
		case "esc", "enter":
			m.searching = false
			m.search.Blur()
			return nil, true
		}
		m.search, cmd = m.search.Update(msg)
		m.state.SetQuery(m.search.Value())
		m.refresh()
		return cmd, true
	}
	if cmd, ok := m.statusMenu.Update(msg); ok {
		return cmd, true
	}
	if cmd, ok := m.actionMenu.Update(msg); ok {
		return cmd, true
	}

	switch {
	case key.Matches(msg, keys.Search):
		m.searching = true
		return m.search.Focus(), true

	case key.Matches(msg, keys.Filter):
		m.openStatusMenu(bus)
		return nil, true

	case key.Matches(msg, keys.Sort):
		idx := int(msg.Runes[0] - '1')
		m.state.ToggleSort(taskview.Columns[idx].Key)
		m.refresh()
		return nil, true

	case key.Matches(msg, keys.Toggle):
		if t, ok := m.cursorTask(); ok {
			m.state.Toggle(t.ID)
			m.refresh()
		}
		return nil, true

	case key.Matches(msg, keys.ToggleAll):
		m.state.SetAllVisible(!m.state.AllVisibleSelected())
		m.refresh()
		return nil, true

	case key.Matches(msg, keys.NextPage):
		m.state.NextPage()
		m.refresh()
		return nil, true

	case key.Matches(msg, keys.PrevPage):
		m.state.PrevPage()
		m.refresh()
		return nil, true

	case key.Matches(msg, keys.Actions):
		m.openActionMenu(bus)
		return nil, true

	case key.Matches(msg, keys.Back):
		if m.state.Query() != "" {
			m.search.SetValue("")
			m.state.SetQuery("")
			m.refresh()
			return nil, true
		}
		return nil, false

	case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
		m.table, cmd = m.table.Update(msg)
		return cmd, true
	}
	return nil, false
}

func (m *tasksTab) openStatusMenu(bus *clickBus) {
	m.actionMenu.Close()
	cursor := 0
	for i, f := range taskview.FilterOptions {
		if f == m.state.StatusFilter() {
			cursor = i
		}
	}
	m.statusMenu.Open(bus, m.statusButtonX(), m.top+1, cursor)
}

func (m *tasksTab) openActionMenu(bus *clickBus) {
	t, ok := m.cursorTask()
	if !ok {
		return
	}
	m.statusMenu.Close()
	m.actionTask = t
	m.actionMenu.title = truncate(t.ProjectTitle, 30)
	m.actionMenu.Open(bus, 2, m.top+1, 0)
}

// handlePick applies a dropdown choice.
func (m *tasksTab) handlePick(msg dropdownPickedMsg) {
	switch msg.id {
	case statusMenuID:
		m.state.SetStatusFilter(taskview.FilterOptions[msg.index])
		m.refresh()
	case actionMenuID:
		switch msg.index {
		case 0:
			m.actions.Edit(m.actionTask)
		case 1:
			m.actions.Delete(m.actionTask.ID)
		case 2:
			m.actions.Cancel(m.actionTask)
		}
	}
}

// handleClick is called for clicks the open overlays did not claim.
func (m *tasksTab) handleClick(x, y int, bus *clickBus) {
	if y == m.top {
		bx := m.statusButtonX()
		if x >= bx && x < bx+lipgloss.Width(m.statusButton()) {
			m.openStatusMenu(bus)
		}
		return
	}

	tableTop := m.top + 1
	widths := m.columnWidths()
	if y == tableTop {
		// header: each cell is padded by one column on either side
		col, edge := 0, 0
		for i, w := range widths {
			edge += w + 2
			if x < edge {
				col = i
				break
			}
			col = -1
		}
		switch {
		case col == 0:
			m.state.SetAllVisible(!m.state.AllVisibleSelected())
		case col > 0:
			m.state.ToggleSort(taskview.Columns[col-1].Key)
		}
		m.refresh()
		return
	}

	row := y - tableTop - tableHeaderRows
	if row < 0 || row >= len(m.state.Visible()) {
		return
	}
	m.table.SetCursor(row)
	if x < widths[0]+2 {
		m.state.Toggle(m.state.Visible()[row].ID)
		m.refresh()
	}
}

func (m *tasksTab) statusButton() string {
	return fmt.Sprintf("[Status: %s ▾]", filterLabel(m.state.StatusFilter()))
}

func (m *tasksTab) searchView() string {
	return m.search.View()
}

func (m *tasksTab) statusButtonX() int {
	return lipgloss.Width(m.searchView()) + 2
}

func (m *tasksTab) toolbar() string {
	bar := m.searchView() + "  " + lipgloss.NewStyle().Foreground(secondaryColor).Render(m.statusButton())
	if m.state.Loading() {
		bar += "  " + m.spinner.View()
	}
	if n := m.state.SelectedCount(); n > 0 {
		bar += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(fmt.Sprintf("%d selected", n))
	}
	return bar
}

// footer renders the pagination line. It is empty when there is one page.
func (m *tasksTab) footer() string {
	info := m.state.PageInfo()
	if !info.ShowControls() {
		return ""
	}
	prev := lipgloss.NewStyle().Foreground(mutedColor).Render("‹ prev")
	if info.HasPrev() {
		prev = lipgloss.NewStyle().Foreground(primaryColor).Render("‹ prev")
	}
	next := lipgloss.NewStyle().Foreground(mutedColor).Render("next ›")
	if info.HasNext() {
		next = lipgloss.NewStyle().Foreground(primaryColor).Render("next ›")
	}
	showing := fmt.Sprintf("Showing %d to %d of %d results", info.Start, info.End, info.Total)
	return fmt.Sprintf("%s    %s  Page %d of %d  %s", showing, prev, info.Page, info.PageCount, next)
}

func indent(block string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = pad + l
	}
	return strings.Join(lines, "\n")
}

func (m *tasksTab) View() string {
	var b strings.Builder
	b.WriteString(m.toolbar() + "\n")

	switch {
	case m.statusMenu.IsOpen():
		b.WriteString(indent(m.statusMenu.View(), m.statusMenu.x) + "\n")
	case m.actionMenu.IsOpen():
		b.WriteString(indent(m.actionMenu.View(), m.actionMenu.x) + "\n")
	}

	if m.state.Loading() {
		b.WriteString("\n  " + m.spinner.View() + " Loading tasks...\n")
		return b.String()
	}

	b.WriteString(m.table.View() + "\n")
	if len(m.state.Visible()) == 0 {
		b.WriteString(helpStyle.Render("  No tasks found.") + "\n")
	}
	if f := m.footer(); f != "" {
		b.WriteString(f + "\n")
	}
	if t, ok := m.cursorTask(); ok && !m.overlayOpen() {
		detail := fmt.Sprintf("%s · %s · customer: %s",
			statusStyle(t.Status).Render(taskview.StatusLabel(t.Status)),
			truncate(t.ProjectTitle, 40),
			t.CustomerName)
		b.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Render(detail))
	}
	return b.String()
}
