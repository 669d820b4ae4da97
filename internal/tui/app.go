// Package tui provides the interactive terminal dashboard for supportdesk.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/supportdesk/internal/adminapi"
	"github.com/fentz26/supportdesk/internal/apiclient"
	"github.com/fentz26/supportdesk/internal/models"
	"github.com/fentz26/supportdesk/internal/taskview"
)

const (
	tabTasks = iota
	tabReps
	tabCustomers
)

var tabNames = []string{"Tasks", "Representatives", "Customers"}

// contentTop is the first screen row below the header, tab bar and rule.
const contentTop = 3

// App is the main TUI application model.
type App struct {
	client *apiclient.Client
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	bus     *clickBus
	help    help.Model
	palette *palette
	form    *form
	toasts  toaster

	tab       int
	tasks     *tasksTab
	reps      *repsTab
	customers *customersTab

	stats        *models.Stats
	daemonOnline bool
	live         bool
	events       <-chan adminapi.Event

	width  int
	height int

	queued         []tea.Cmd
	clipboardWrite func(string) error
	released       bool
}

// New creates the dashboard. logger may be nil; the dashboard never writes
// logs to the terminal it draws on.
func New(client *apiclient.Client, pageSize int, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		client:         client,
		logger:         logger,
		ctx:            ctx,
		cancel:         cancel,
		bus:            newClickBus(),
		help:           help.New(),
		palette:        newPalette(),
		tasks:          newTasksTab(pageSize),
		reps:           newRepsTab(),
		customers:      newCustomersTab(),
		width:          100,
		height:         30,
		clipboardWrite: clipboard.WriteAll,
	}
	a.tasks.top = contentTop
	a.tasks.actions = taskview.Actions{
		OnEdit:   func(t models.Task) { a.openEditForm(t) },
		OnDelete: func(id string) { a.queue(a.deleteTasks([]string{id})) },
		OnCancel: func(t models.Task) { a.queue(a.cancelTask(t.ID)) },
	}
	return a
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	a.release()
	return err
}

// release drops every overlay listener and stops the event subscription.
// Safe to call more than once.
func (a *App) release() {
	if a.released {
		return
	}
	a.released = true
	a.tasks.closeOverlays()
	a.bus.releaseAll()
	a.cancel()
}

func (a *App) quit() tea.Cmd {
	a.release()
	return tea.Quit
}

func (a *App) queue(cmd tea.Cmd) {
	if cmd != nil {
		a.queued = append(a.queued, cmd)
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.fetchAll(), a.subscribe())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		body := max(msg.Height-contentTop-3, 5)
		a.tasks.setSize(msg.Width, body)
		a.reps.setSize(msg.Width, body)
		a.customers.setSize(msg.Width, body)

	case tea.KeyMsg:
		cmds = append(cmds, a.handleKey(msg))

	case tea.MouseMsg:
		cmds = append(cmds, a.handleMouse(msg))

	case spinner.TickMsg:
		if a.tasks.state.Loading() {
			var cmd tea.Cmd
			a.tasks.spinner, cmd = a.tasks.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tasksLoadedMsg:
		a.tasks.setSource(msg.tasks)

	case repsLoadedMsg:
		cmds = append(cmds, a.reps.setReps(msg.reps))

	case customersLoadedMsg:
		a.customers.setCustomers(msg.customers)

	case statsLoadedMsg:
		a.stats = msg.stats

	case daemonStatusMsg:
		a.daemonOnline = msg.online

	case taskSavedMsg:
		if msg.created {
			a.tasks.state.Append(*msg.task)
			a.tasks.refresh()
		}
		cmds = append(cmds, a.toasts.success(fmt.Sprintf("%s task %q", msg.verb, msg.task.ProjectTitle)))
		if !a.live {
			cmds = append(cmds, a.reloadTasks())
		}

	case tasksDeletedMsg:
		a.tasks.state.ClearSelection()
		a.tasks.refresh()
		cmds = append(cmds, a.toasts.success(fmt.Sprintf("Deleted %d task(s)", len(msg.ids))))
		if !a.live {
			cmds = append(cmds, a.reloadTasks())
		}

	case repCreatedMsg:
		cmds = append(cmds, a.reps.appendRep(*msg.rep))
		cmds = append(cmds, a.toasts.success("Added representative "+msg.rep.Name))

	case customersImportedMsg:
		cmds = append(cmds, a.toasts.success(fmt.Sprintf("Imported %d customers", msg.n)), a.fetchCustomers())

	case copyResultMsg:
		switch {
		case msg.err != nil:
			cmds = append(cmds, a.toasts.error(msg.err))
		case msg.n == 0:
			cmds = append(cmds, a.toasts.info("Nothing selected to copy"))
		default:
			cmds = append(cmds, a.toasts.success(fmt.Sprintf("Copied %d task id(s)", msg.n)))
		}

	case eventsConnectedMsg:
		a.live = true
		a.events = msg.events
		cmds = append(cmds, waitForEvent(msg.events))

	case serverEventMsg:
		a.logger.Debug("server event", "type", msg.event.Type)
		switch msg.event.Type {
		case adminapi.EventTasksChanged:
			cmds = append(cmds, a.fetchTasks(), a.fetchStats())
		case adminapi.EventRepsChanged:
			cmds = append(cmds, a.fetchReps(), a.fetchStats())
		}
		if a.events != nil {
			cmds = append(cmds, waitForEvent(a.events))
		}

	case eventsClosedMsg:
		if a.live {
			cmds = append(cmds, a.toasts.info("Live updates disconnected"))
		}
		a.live = false
		a.events = nil

	case errMsg:
		a.tasks.state.SetLoading(false)
		a.logger.Warn("request failed", "err", msg.err)
		cmds = append(cmds, a.toasts.error(msg.err))

	case toastExpiredMsg:
		a.toasts.expire(msg)

	case dropdownPickedMsg:
		a.tasks.handlePick(msg)

	case paletteRunMsg:
		cmds = append(cmds, a.runCommand(msg.name))

	case formSubmitMsg:
		cmds = append(cmds, a.submitForm(msg))
	}

	cmds = append(cmds, a.queued...)
	a.queued = nil
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return a.quit()
	}

	if a.form != nil {
		cmd := a.form.Update(msg)
		if !a.form.visible {
			a.form = nil
		}
		return cmd
	}
	if a.palette.Visible() {
		return a.palette.Update(msg)
	}

	switch a.tab {
	case tabTasks:
		if cmd, handled := a.tasks.Update(msg, a.bus); handled {
			return cmd
		}
	case tabReps:
		if a.reps.filtering() {
			return a.reps.Update(msg)
		}
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a.quit()
	case key.Matches(msg, keys.Palette):
		a.tasks.closeOverlays()
		return a.palette.Show()
	case key.Matches(msg, keys.NextTab):
		a.switchTab((a.tab + 1) % len(tabNames))
		return nil
	case key.Matches(msg, keys.PrevTab):
		a.switchTab((a.tab - 1 + len(tabNames)) % len(tabNames))
		return nil
	case key.Matches(msg, keys.Refresh):
		return a.fetchAll()
	case key.Matches(msg, keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return nil
	case key.Matches(msg, keys.New):
		return a.runCommand("add")
	case key.Matches(msg, keys.Copy):
		return a.runCommand("copy")
	}

	switch a.tab {
	case tabReps:
		return a.reps.Update(msg)
	case tabCustomers:
		return a.customers.Update(msg)
	}
	return nil
}

func (a *App) switchTab(tab int) {
	a.tasks.closeOverlays()
	a.tab = tab
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Type != tea.MouseLeft {
		return nil
	}
	hadOverlay := a.bus.len() > 0
	cmd := a.bus.dispatch(msg.X, msg.Y)
	if hadOverlay || a.form != nil || a.palette.Visible() {
		return cmd
	}

	if msg.Y == 1 {
		a.clickTabBar(msg.X)
		return cmd
	}
	if a.tab == tabTasks {
		a.tasks.handleClick(msg.X, msg.Y, a.bus)
	}
	return cmd
}

func (a *App) clickTabBar(x int) {
	edge := 0
	for i := range tabNames {
		edge += lipgloss.Width(a.renderTab(i))
		if x < edge {
			a.switchTab(i)
			return
		}
	}
}

// runCommand executes a palette command against the active tab.
func (a *App) runCommand(name string) tea.Cmd {
	switch name {
	case "add":
		switch a.tab {
		case tabReps:
			a.form = newForm("rep.add", "", "Add representative",
				fieldSpec{name: "name", label: "Name"},
				fieldSpec{name: "email", label: "Email"},
				fieldSpec{name: "skillset", label: "Skillset", placeholder: "Customer Support"},
			)
		case tabCustomers:
			return a.runCommand("import")
		default:
			a.form = newForm("task.add", "", "New task",
				fieldSpec{name: "title", label: "Project title"},
				fieldSpec{name: "description", label: "Description"},
				fieldSpec{name: "customer", label: "Customer"},
				fieldSpec{name: "keywords", label: "Keywords", placeholder: "comma separated"},
				fieldSpec{name: "members", label: "Team members", placeholder: "comma separated"},
				fieldSpec{name: "status", label: "Status", value: string(models.TaskStatusPending)},
			)
		}
		return nil

	case "edit":
		if t, ok := a.tasks.cursorTask(); ok {
			a.openEditForm(t)
			return nil
		}
		return a.toasts.info("No task under the cursor")

	case "delete":
		ids := a.tasks.state.SelectedIDs()
		if len(ids) == 0 {
			if t, ok := a.tasks.cursorTask(); ok {
				ids = []string{t.ID}
			}
		}
		if len(ids) == 0 {
			return a.toasts.info("Nothing to delete")
		}
		return a.deleteTasks(ids)

	case "cancel":
		if t, ok := a.tasks.cursorTask(); ok {
			return a.cancelTask(t.ID)
		}
		return a.toasts.info("No task under the cursor")

	case "assign":
		t, ok := a.tasks.cursorTask()
		if !ok {
			return a.toasts.info("No task under the cursor")
		}
		names := make([]string, len(t.AssignedMembers))
		for i, m := range t.AssignedMembers {
			names[i] = m.Name
		}
		a.form = newForm("task.assign", t.ID, "Assign members to "+truncate(t.ProjectTitle, 40),
			fieldSpec{name: "members", label: "Team members", value: strings.Join(names, ", "), placeholder: "comma separated"},
		)
		return nil

	case "import":
		a.form = newForm("customer.import", "", "Import customers",
			fieldSpec{name: "path", label: "CSV file", placeholder: "customers.csv"},
		)
		return nil

	case "copy":
		return a.copyIDs(a.tasks.state.SelectedIDs())

	case "clear":
		a.tasks.state.ClearSelection()
		a.tasks.refresh()
		return nil

	case "refresh":
		return a.fetchAll()

	case "quit":
		return a.quit()
	}
	return a.toasts.info("Unknown command: " + name)
}

func (a *App) openEditForm(t models.Task) {
	names := make([]string, len(t.AssignedMembers))
	for i, m := range t.AssignedMembers {
		names[i] = m.Name
	}
	a.form = newForm("task.edit", t.ID, "Edit task",
		fieldSpec{name: "title", label: "Project title", value: t.ProjectTitle},
		fieldSpec{name: "description", label: "Description", value: t.Description},
		fieldSpec{name: "customer", label: "Customer", value: t.CustomerName},
		fieldSpec{name: "keywords", label: "Keywords", value: strings.Join(t.Keywords, ", ")},
		fieldSpec{name: "members", label: "Team members", value: strings.Join(names, ", ")},
		fieldSpec{name: "status", label: "Status", value: string(t.Status)},
	)
}

func membersFrom(v string) []models.Member {
	names := splitList(v)
	members := make([]models.Member, len(names))
	for i, n := range names {
		members[i] = models.Member{Name: n}
	}
	return members
}

func taskRequestFrom(v map[string]string) adminapi.TaskRequest {
	return adminapi.TaskRequest{
		ProjectTitle:    v["title"],
		Description:     v["description"],
		CustomerName:    v["customer"],
		Keywords:        splitList(v["keywords"]),
		Status:          models.TaskStatus(strings.ToLower(v["status"])),
		AssignedMembers: membersFrom(v["members"]),
	}
}

func (a *App) submitForm(msg formSubmitMsg) tea.Cmd {
	v := msg.values
	switch msg.kind {
	case "task.add":
		if v["title"] == "" {
			return a.toasts.info("Project title is required")
		}
		return a.createTask(taskRequestFrom(v))
	case "task.edit":
		return a.updateTask(msg.target, taskRequestFrom(v))
	case "task.assign":
		return a.assignTask(msg.target, membersFrom(v["members"]))
	case "rep.add":
		return a.createRep(adminapi.RepresentativeRequest{Name: v["name"], Email: v["email"], Skillset: v["skillset"]})
	case "customer.import":
		if v["path"] == "" {
			return a.toasts.info("A CSV path is required")
		}
		return a.importCustomers(v["path"])
	}
	return nil
}

func (a *App) renderTab(i int) string {
	label := tabNames[i]
	if i == a.tab {
		return activeTabStyle.Render(label)
	}
	return tabStyle.Render(label)
}

func (a *App) header() string {
	daemon := onlineStyle.Render("● DAEMON")
	if !a.daemonOnline {
		daemon = offlineStyle.Render("○ DAEMON")
	}
	live := lipgloss.NewStyle().Foreground(mutedColor).Render("○ live")
	if a.live {
		live = onlineStyle.Render("● live")
	}
	header := titleStyle.Render("SUPPORTDESK") + "  " + daemon + "  " + live
	if a.stats != nil {
		header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(fmt.Sprintf(
			"[%d tasks · %d completed · %d pending · %d reps]",
			a.stats.TotalTasks, a.stats.CompletedTasks, a.stats.PendingTasks, a.stats.TeamMembers))
	}
	return header
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.header() + "\n")
	tabs := make([]string, len(tabNames))
	for i := range tabNames {
		tabs[i] = a.renderTab(i)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 1)) + "\n")

	switch {
	case a.form != nil:
		b.WriteString(a.form.View(a.width))
	case a.palette.Visible():
		b.WriteString(a.palette.View(a.width))
	default:
		switch a.tab {
		case tabTasks:
			b.WriteString(a.tasks.View())
		case tabReps:
			b.WriteString(a.reps.View())
		case tabCustomers:
			b.WriteString(a.customers.View())
		}
	}

	b.WriteString("\n")
	if t := a.toasts.View(); t != "" {
		b.WriteString(t + "\n")
	}
	b.WriteString(statusBarStyle.Width(max(a.width, 1)).Render(a.help.View(keys)))
	return b.String()
}
