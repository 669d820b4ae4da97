package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/supportdesk/internal/models"
)

// repItem adapts a representative to list.DefaultItem.
type repItem struct{ rep models.Representative }

func (i repItem) Title() string { return i.rep.Name }

func (i repItem) Description() string {
	parts := []string{i.rep.Email}
	if i.rep.Skillset != "" {
		parts = append(parts, i.rep.Skillset)
	}
	parts = append(parts, i.rep.Status)
	return strings.Join(parts, " · ")
}

func (i repItem) FilterValue() string { return i.rep.Name + " " + i.rep.Email + " " + i.rep.Skillset }

// repsTab lists support representatives.
type repsTab struct {
	list list.Model
}

func newRepsTab() *repsTab {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(primaryColor).
		BorderForeground(primaryColor)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(secondaryColor).
		BorderForeground(primaryColor)

	l := list.New(nil, delegate, 80, 20)
	l.Title = "Representatives"
	l.Styles.Title = titleStyle
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetStatusBarItemName("representative", "representatives")
	return &repsTab{list: l}
}

func (m *repsTab) setReps(reps []models.Representative) tea.Cmd {
	items := make([]list.Item, len(reps))
	for i, r := range reps {
		items[i] = repItem{rep: r}
	}
	return m.list.SetItems(items)
}

// appendRep adds a newly created representative locally without a refetch.
func (m *repsTab) appendRep(rep models.Representative) tea.Cmd {
	return m.list.InsertItem(len(m.list.Items()), repItem{rep: rep})
}

func (m *repsTab) setSize(width, height int) {
	m.list.SetSize(width, height)
}

// filtering reports whether the list's own filter input has focus.
func (m *repsTab) filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *repsTab) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *repsTab) View() string {
	if len(m.list.Items()) == 0 {
		return helpStyle.Render("  No representatives yet. Press n to add one.")
	}
	return m.list.View()
}

// customersTab shows imported customers.
type customersTab struct {
	table     table.Model
	customers []models.Customer
	width     int
}

func newCustomersTab() *customersTab {
	t := table.New(table.WithFocused(true), table.WithHeight(15))
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

	m := &customersTab{table: t, width: 100}
	m.refresh()
	return m
}

func (m *customersTab) setCustomers(customers []models.Customer) {
	m.customers = customers
	m.refresh()
}

func (m *customersTab) setSize(width, height int) {
	m.width = width
	m.table.SetHeight(max(height-2, 3))
	m.refresh()
}

func (m *customersTab) refresh() {
	w := max(m.width-2*4, 40) / 4
	m.table.SetColumns([]table.Column{
		{Title: "Name", Width: w},
		{Title: "Email", Width: w},
		{Title: "Phone", Width: w},
		{Title: "Company", Width: w},
	})
	rows := make([]table.Row, len(m.customers))
	for i, c := range m.customers {
		rows[i] = table.Row{truncate(c.Name, w), truncate(c.Email, w), truncate(c.Phone, w), truncate(c.Company, w)}
	}
	m.table.SetRows(rows)
}

func (m *customersTab) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

func (m *customersTab) View() string {
	if len(m.customers) == 0 {
		return helpStyle.Render("  No customers yet. Run the import command with a CSV file.")
	}
	return m.table.View() + "\n" + helpStyle.Render(fmt.Sprintf("  %d customers", len(m.customers)))
}
