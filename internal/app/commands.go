package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/facultyflow/internal/analytics"
	"github.com/nhle/facultyflow/internal/logging"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/session"
	"github.com/nhle/facultyflow/internal/taskview"
	"github.com/nhle/facultyflow/internal/ui"
	"github.com/nhle/facultyflow/internal/ui/command"
)

var themes = []string{"dark", "light", "notty", "ascii"}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(s string) tea.Cmd {
	c, err := command.Parse(s)
	if err != nil {
		m.setFlash(err.Error(), true)
		return nil
	}

	switch c.Name {
	case command.Refresh:
		return m.refresh()

	case command.Quit:
		m.stopPoller()
		m.cancelView()
		return tea.Quit

	case command.Goto:
		return m.open(session.Route(c.Arg))

	case command.Filter:
		st, err := taskview.ParseStatusFilter(c.Arg)
		if err != nil {
			m.setFlash(err.Error(), true)
			return nil
		}
		cmd := m.showTasks()
		m.taskList.SetStatus(st)
		return cmd

	case command.Search:
		cmd := m.showTasks()
		m.taskList.SetSearch(c.Arg)
		return cmd

	case command.Clear:
		m.taskList.ClearFilters()
		return nil

	case command.Completed:
		m.taskList.ToggleCompleted()
		return nil

	case command.NewTask:
		return m.open(session.RouteCreateTask)

	case command.Sort:
		return m.sortAnalytics(c.Arg)

	case command.Order:
		return m.orderAnalytics(c.Arg)

	case command.MarkRead:
		m.setFlash("Notifications marked as read", false)
		return m.markAllRead()

	case command.Theme:
		return m.setTheme(c.Arg)

	case command.Logout:
		return m.logout()
	}
	return nil
}

// showTasks opens the task list unless it is already showing.
func (m *Model) showTasks() tea.Cmd {
	if m.currentView == ViewTasks {
		return nil
	}
	return m.open(session.RouteTasks)
}

func (m *Model) sortAnalytics(arg string) tea.Cmd {
	if _, err := m.session.Require(session.RouteAnalytics); err != nil {
		return m.denied(session.RouteAnalytics, err)
	}
	if arg == "" {
		m.analyticsView.CycleSort()
		return nil
	}
	k, ok := analytics.ParseSortKey(arg)
	if !ok {
		m.setFlash(fmt.Sprintf("unknown column %q", arg), true)
		return nil
	}
	cur := m.analyticsView.Sort().Key
	if cur == "" {
		cur = analytics.SortScore
	}
	if cur != k {
		m.analyticsView.SortBy(k)
	}
	return nil
}

func (m *Model) orderAnalytics(arg string) tea.Cmd {
	if _, err := m.session.Require(session.RouteAnalytics); err != nil {
		return m.denied(session.RouteAnalytics, err)
	}
	var want analytics.Order
	switch strings.ToLower(arg) {
	case "":
		m.analyticsView.ToggleOrder()
		return nil
	case "asc", "ascending":
		want = analytics.Asc
	case "desc", "descending":
		want = analytics.Desc
	default:
		m.setFlash(fmt.Sprintf("unknown order %q (asc or desc)", arg), true)
		return nil
	}
	if m.analyticsView.Sort().Order != want {
		m.analyticsView.ToggleOrder()
	}
	return nil
}

// setTheme switches the rendering theme and saves it.
func (m *Model) setTheme(name string) tea.Cmd {
	name = strings.ToLower(strings.TrimSpace(name))
	known := false
	for _, t := range themes {
		if t == name {
			known = true
			break
		}
	}
	if !known {
		m.setFlash(fmt.Sprintf("unknown theme %q (%s)", name, strings.Join(themes, ", ")), true)
		return nil
	}

	m.cfg.Display.Theme = name
	ui.SetMarkdownStyle(name)
	m.detail.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
	m.setFlash("Theme set to "+name, false)

	cfg, path := m.cfg, m.configPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		if err := model.SaveConfig(path, &cfg); err != nil {
			logging.Logger.WithError(err).Warn("saving theme")
		}
		return nil
	}
}
