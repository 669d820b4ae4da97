package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fentz26/supportdesk/internal/adminapi"
	"github.com/fentz26/supportdesk/internal/models"
)

type errMsg struct {
	err error
}

type tasksLoadedMsg struct {
	tasks []models.Task
}

type repsLoadedMsg struct {
	reps []models.Representative
}

type customersLoadedMsg struct {
	customers []models.Customer
}

type statsLoadedMsg struct {
	stats *models.Stats
}

type daemonStatusMsg struct {
	online bool
}

type taskSavedMsg struct {
	task    *models.Task
	created bool
	verb    string
}

type tasksDeletedMsg struct {
	ids []string
}

type repCreatedMsg struct {
	rep *models.Representative
}

type customersImportedMsg struct {
	n int
}

type copyResultMsg struct {
	n   int
	err error
}

type eventsConnectedMsg struct {
	events <-chan adminapi.Event
}

type serverEventMsg struct {
	event adminapi.Event
}

type eventsClosedMsg struct{}

func (a *App) checkDaemon() tea.Cmd {
	return func() tea.Msg {
		health, err := a.client.Health()
		return daemonStatusMsg{online: err == nil && health.OK}
	}
}

func (a *App) fetchTasks() tea.Cmd {
	return func() tea.Msg {
		tasks, err := a.client.ListTasks("")
		if err != nil {
			return errMsg{err}
		}
		return tasksLoadedMsg{tasks}
	}
}

func (a *App) fetchReps() tea.Cmd {
	return func() tea.Msg {
		reps, err := a.client.ListRepresentatives()
		if err != nil {
			return errMsg{err}
		}
		return repsLoadedMsg{reps}
	}
}

func (a *App) fetchCustomers() tea.Cmd {
	return func() tea.Msg {
		customers, err := a.client.ListCustomers()
		if err != nil {
			return errMsg{err}
		}
		return customersLoadedMsg{customers}
	}
}

func (a *App) fetchStats() tea.Cmd {
	return func() tea.Msg {
		stats, err := a.client.Stats()
		if err != nil {
			return errMsg{err}
		}
		return statsLoadedMsg{stats}
	}
}

// reloadTasks marks the table as loading and refetches tasks.
func (a *App) reloadTasks() tea.Cmd {
	a.tasks.state.SetLoading(true)
	return tea.Batch(a.fetchTasks(), a.fetchStats(), a.tasks.spinner.Tick)
}

func (a *App) fetchAll() tea.Cmd {
	return tea.Batch(a.reloadTasks(), a.fetchReps(), a.fetchCustomers(), a.checkDaemon())
}

func (a *App) createTask(req adminapi.TaskRequest) tea.Cmd {
	return func() tea.Msg {
		task, err := a.client.CreateTask(req)
		if err != nil {
			return errMsg{err}
		}
		return taskSavedMsg{task: task, created: true, verb: "Created"}
	}
}

func (a *App) updateTask(id string, req adminapi.TaskRequest) tea.Cmd {
	return func() tea.Msg {
		task, err := a.client.UpdateTask(id, req)
		if err != nil {
			return errMsg{err}
		}
		return taskSavedMsg{task: task, verb: "Updated"}
	}
}

func (a *App) cancelTask(id string) tea.Cmd {
	return func() tea.Msg {
		task, err := a.client.CancelTask(id)
		if err != nil {
			return errMsg{err}
		}
		return taskSavedMsg{task: task, verb: "Cancelled"}
	}
}

func (a *App) assignTask(id string, members []models.Member) tea.Cmd {
	return func() tea.Msg {
		task, err := a.client.AssignTask(id, members)
		if err != nil {
			return errMsg{err}
		}
		return taskSavedMsg{task: task, verb: "Assigned"}
	}
}

func (a *App) deleteTasks(ids []string) tea.Cmd {
	return func() tea.Msg {
		var deleted []string
		for _, id := range ids {
			if err := a.client.DeleteTask(id); err != nil {
				return errMsg{fmt.Errorf("deleted %d of %d: %w", len(deleted), len(ids), err)}
			}
			deleted = append(deleted, id)
		}
		return tasksDeletedMsg{ids: deleted}
	}
}

func (a *App) createRep(req adminapi.RepresentativeRequest) tea.Cmd {
	return func() tea.Msg {
		rep, err := a.client.CreateRepresentative(req)
		if err != nil {
			return errMsg{err}
		}
		return repCreatedMsg{rep}
	}
}

func (a *App) importCustomers(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return errMsg{err}
		}
		defer f.Close()

		n, err := a.client.UploadCustomers(filepath.Base(path), f)
		if err != nil {
			return errMsg{err}
		}
		return customersImportedMsg{n}
	}
}

func (a *App) copyIDs(ids []string) tea.Cmd {
	write := a.clipboardWrite
	return func() tea.Msg {
		if len(ids) == 0 {
			return copyResultMsg{}
		}
		err := write(strings.Join(ids, "\n"))
		return copyResultMsg{n: len(ids), err: err}
	}
}

func (a *App) subscribe() tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		events, err := a.client.Subscribe(ctx)
		if err != nil {
			return eventsClosedMsg{}
		}
		return eventsConnectedMsg{events}
	}
}

func waitForEvent(events <-chan adminapi.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return serverEventMsg{ev}
	}
}
