package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sony/gobreaker"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/session"
	tasksync "github.com/nhle/facultyflow/internal/sync"
	"github.com/nhle/facultyflow/internal/taskview"
	"github.com/nhle/facultyflow/internal/theme"
	"github.com/nhle/facultyflow/internal/ui"
)

const appTitle = "FacultyFlow"

// tabKeys maps each area to its number key.
var tabKeys = map[session.Route]string{
	session.RouteDashboard: "1",
	session.RouteTasks:     "2",
	session.RoutePortfolio: "3",
	session.RouteAnalytics: "4",
	session.RouteSettings:  "5",
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.syncStatus())
	tabs := m.renderTabs()
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusLine())

	return m.layout.RenderWithFrame(header, tabs, content, statusBar)
}

func (m Model) headerTitle() string {
	title := appTitle
	if m.user.ID != 0 {
		name := m.user.Name
		if name == "" {
			name = m.user.Email
		}
		title = fmt.Sprintf("%s | %s (%s)", appTitle, name, m.user.Role)
	}
	if m.unreadCount > 0 {
		title = fmt.Sprintf("%s [%d new]", title, m.unreadCount)
	}
	return title
}

// renderTabs lists only the areas the signed-in role may open.
func (m Model) renderTabs() string {
	if m.user.ID == 0 {
		return ""
	}
	active := m.activeRoute()
	var tabs []ui.Tab
	for _, r := range session.Routes(m.user.Role) {
		k, ok := tabKeys[r]
		if !ok {
			continue
		}
		tabs = append(tabs, ui.Tab{Key: k, Label: routeLabel(r), Active: r == active})
	}
	return m.layout.RenderTabs(tabs)
}

// activeRoute is the area the visible view belongs to.
func (m Model) activeRoute() session.Route {
	v := m.currentView
	if v == ViewForm || v == ViewHelp || v == ViewCommand {
		v = m.previousView
	}
	switch v {
	case ViewDashboard:
		return session.RouteDashboard
	case ViewTasks, ViewDetail:
		return session.RouteTasks
	case ViewPortfolio:
		return session.RoutePortfolio
	case ViewAnalytics:
		return session.RouteAnalytics
	case ViewSettings:
		return session.RouteSettings
	}
	return ""
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.renderLogin()
	case ViewDashboard:
		return m.dashboard.View()
	case ViewTasks:
		title := theme.TitleStyle.Render(taskview.Title(m.user.Role))
		return lipgloss.JoinVertical(lipgloss.Left, title, m.taskList.View())
	case ViewDetail:
		return m.detail.View()
	case ViewForm:
		return m.formView.View()
	case ViewPortfolio:
		return m.portfolioView.View()
	case ViewAnalytics:
		return m.analyticsView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

func (m Model) renderLogin() string {
	if m.restoring {
		return lipgloss.NewStyle().Padding(1, 2).Render("Checking saved session...")
	}
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Sign in to "+appTitle) + "\n")
	b.WriteString(theme.DimmedStyle.Render(m.client.BaseURL()) + "\n")
	if m.loginNotice != "" {
		b.WriteString("\n" + theme.ErrorStyle.Render(m.loginNotice) + "\n")
	}
	b.WriteString("\n" + m.formView.View())
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// syncStatus returns a short string describing the background refresh.
func (m Model) syncStatus() string {
	if m.user.ID == 0 {
		return ""
	}
	if m.poller == nil {
		return "refresh off"
	}
	st := m.poller.Status()
	if st.Breaker == gobreaker.StateOpen {
		return "⚠ server unreachable, refresh paused"
	}
	switch st.State {
	case tasksync.SyncRunning:
		return "refreshing..."
	case tasksync.SyncError:
		return "⚠ " + api.MessageOf(st.Error)
	}
	if st.LastSync.IsZero() {
		return "idle"
	}
	return "updated " + st.LastSync.Local().Format("15:04")
}

// statusLine prefixes the key hints with the current flash message.
func (m Model) statusLine() string {
	hints := m.keyHints()
	switch {
	case m.flash == "":
		return hints
	case m.flashErr:
		return "⚠ " + m.flash + " | " + hints
	}
	return m.flash + " | " + hints
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter next | tab move | ctrl+c quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewForm:
		return "enter next | shift+tab back | esc cancel"
	case ViewDashboard:
		return m.dashboard.Hints()
	case ViewDetail:
		return m.detail.Hints()
	case ViewPortfolio:
		return m.portfolioView.Hints()
	case ViewAnalytics:
		return "tab sort | o order | F filters | r reload | ? help"
	case ViewSettings:
		return m.settingsView.Hints()
	default:
		if summary := m.taskList.FilterSummary(); summary != "" {
			return summary + " | x clear"
		}
		hints := "q quit | ? help | / search | f status | enter open"
		if session.CanAccess(m.user.Role, session.RouteCreateTask) {
			hints += " | n new"
		}
		return hints
	}
}
