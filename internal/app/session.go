package app

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/logging"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/session"
)

const (
	msgSessionExpired = "Your session has expired. Please sign in again."
	sessionTimeout    = 15 * time.Second
)

// sessionRestoredMsg reports the outcome of validating the stored token.
type sessionRestoredMsg struct {
	user model.User
	ok   bool
	err  error
}

// sessionEventMsg carries a lifecycle event raised by the provider.
type sessionEventMsg struct {
	event session.Event
}

type loginResultMsg struct {
	user model.User
	err  error
}

type loggedOutMsg struct{}

func (m Model) restoreSession() tea.Cmd {
	p := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
		defer cancel()
		if err := p.Init(ctx); err != nil {
			return sessionRestoredMsg{err: err}
		}
		user, ok := p.Current()
		return sessionRestoredMsg{user: user, ok: ok}
	}
}

// waitForSessionEvent blocks until the provider raises an event. The
// handler re-arms it.
func (m Model) waitForSessionEvent() tea.Cmd {
	ch := m.events
	return func() tea.Msg {
		return sessionEventMsg{event: <-ch}
	}
}

func (m Model) login(email, password string) tea.Cmd {
	p := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
		defer cancel()
		user, err := p.Login(ctx, email, password)
		return loginResultMsg{user: user, err: err}
	}
}

// enter starts the signed-in part of the app for user.
func (m *Model) enter(user model.User) tea.Cmd {
	m.user = user
	m.loginNotice = ""
	m.unreadCount = 0
	m.formView.Reset()
	m.taskList.SetRole(user.Role)
	m.taskList.SetTasks(nil)
	m.taskList.SetLoading(true)
	m.dashboard.SetUser(user)
	m.dashboard.SetNotifications(nil)
	m.helpView.SetRole(user.Role)
	m.settingsView.SetUser(user)
	m.setFlash("", false)

	cmds := []tea.Cmd{m.open(session.RouteDashboard)}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

// showLogin opens the sign-in form with an optional notice, prefilled
// with email.
func (m *Model) showLogin(notice, email string) tea.Cmd {
	m.switchTo(ViewLogin)
	m.user = model.User{}
	m.loginNotice = notice
	m.setFlash("", false)
	return m.formView.StartLogin(email)
}

// signOut tears down the signed-in state after the session ended
// elsewhere, for example on a 401.
func (m *Model) signOut(notice string) tea.Cmd {
	if m.currentView == ViewLogin {
		return nil
	}
	logging.Logger.WithField("user", m.user.Email).Info("session ended")
	m.stopPoller()
	return m.showLogin(notice, m.user.Email)
}

// logout ends the session on request and drops the viewer's cache.
func (m *Model) logout() tea.Cmd {
	m.stopPoller()
	p, s, viewer := m.session, m.store, m.user.ID
	return func() tea.Msg {
		if err := p.Logout(); err != nil {
			logging.Logger.WithError(err).Warn("logout")
		}
		if s != nil && viewer != 0 {
			if err := s.Purge(context.Background(), viewer); err != nil {
				logging.Logger.WithError(err).Warn("purging cache on logout")
			}
		}
		return loggedOutMsg{}
	}
}

// open navigates to route when the session allows it.
func (m *Model) open(route session.Route) tea.Cmd {
	user, err := m.session.Require(route)
	if err != nil {
		return m.denied(route, err)
	}
	m.user = user
	m.setFlash("", false)

	switch route {
	case session.RouteDashboard:
		m.switchTo(ViewDashboard)
		return tea.Batch(m.loadTasks(), m.loadNotifications())

	case session.RouteTasks:
		m.switchTo(ViewTasks)
		return m.loadTasks()

	case session.RouteCreateTask:
		m.openForm()
		return m.formView.StartCreateTask(m.assignees())

	case session.RoutePortfolio:
		m.switchTo(ViewPortfolio)
		return m.portfolioView.Load(m.viewCtx, user)

	case session.RouteAnalytics:
		m.switchTo(ViewAnalytics)
		return m.analyticsView.Load(m.viewCtx)

	case session.RouteSettings:
		m.switchTo(ViewSettings)
		m.settingsView.SetUser(user)
		if m.poller != nil {
			m.settingsView.SetSyncStatus(m.poller.Status())
		}
		return nil
	}
	return nil
}

// denied handles a failed route guard: signed-out users go to the login
// view, others stay where they are.
func (m *Model) denied(route session.Route, err error) tea.Cmd {
	if errors.Is(err, session.ErrNotAuthenticated) {
		return m.signOut(msgSessionExpired)
	}
	var forbidden *session.ForbiddenError
	if errors.As(err, &forbidden) {
		m.setFlash(routeLabel(route)+" is not available to your role", true)
		return nil
	}
	m.setFlash(err.Error(), true)
	return nil
}

// displayErr reduces an API error to the message shown to users.
func displayErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Message)
	}
	return err
}

func routeLabel(r session.Route) string {
	switch r {
	case session.RouteDashboard:
		return "Dashboard"
	case session.RouteTasks:
		return "Tasks"
	case session.RouteCreateTask:
		return "Task creation"
	case session.RoutePortfolio:
		return "Portfolio"
	case session.RouteAnalytics:
		return "Analytics"
	case session.RouteSettings:
		return "Settings"
	}
	return string(r)
}
