package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/lifecycle"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/portfolio"
	"github.com/nhle/facultyflow/internal/session"
	"github.com/nhle/facultyflow/internal/store"
	tasksync "github.com/nhle/facultyflow/internal/sync"
	"github.com/nhle/facultyflow/internal/ui"
	"github.com/nhle/facultyflow/internal/ui/analyticsview"
	"github.com/nhle/facultyflow/internal/ui/command"
	"github.com/nhle/facultyflow/internal/ui/dashboard"
	"github.com/nhle/facultyflow/internal/ui/detail"
	"github.com/nhle/facultyflow/internal/ui/forms"
	helpview "github.com/nhle/facultyflow/internal/ui/help"
	"github.com/nhle/facultyflow/internal/ui/portfolioview"
	"github.com/nhle/facultyflow/internal/ui/settings"
	"github.com/nhle/facultyflow/internal/ui/tasklist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewDashboard
	ViewTasks
	ViewDetail
	ViewForm
	ViewPortfolio
	ViewAnalytics
	ViewSettings
	ViewHelp
	ViewCommand
)

// Deps are the services the application runs on.
type Deps struct {
	Client  *api.Client
	Session *session.Provider
	Store   store.Store
	// Poller is nil when background refresh is disabled.
	Poller     *tasksync.Poller
	Config     model.AppConfig
	ConfigPath string
	// Check probes the server from the settings screen. Defaults to
	// settings.ProbeAPI.
	Check settings.CheckFunc
}

// Model is the root Bubble Tea model. It owns view routing, guards every
// area through the session and runs API calls as commands.
type Model struct {
	currentView  ViewState
	previousView ViewState
	detailReturn ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	client     *api.Client
	session    *session.Provider
	store      store.Store
	poller     *tasksync.Poller
	controller *lifecycle.Controller
	cfg        model.AppConfig
	configPath string

	taskList      tasklist.Model
	detail        detail.Model
	dashboard     dashboard.Model
	formView      forms.Model
	portfolioView portfolioview.Model
	analyticsView analyticsview.Model
	settingsView  settings.Model
	helpView      helpview.Model
	commandView   command.Model

	user   model.User
	events chan session.Event

	// viewCtx scopes the loads started by the current area; it is
	// cancelled when the area is left.
	viewCtx    context.Context
	cancelView context.CancelFunc

	ready       bool
	restoring   bool
	unreadCount int
	loginNotice string
	flash       string
	flashErr    bool
}

// New creates the root model. The session is restored by Init.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	check := d.Check
	if check == nil {
		check = settings.ProbeAPI(d.Config.API.HTTPTimeout())
	}

	events := make(chan session.Event, 8)
	d.Session.Subscribe(func(e session.Event) {
		select {
		case events <- e:
		default:
		}
	})

	ui.SetMarkdownStyle(d.Config.Display.Theme)

	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		currentView:   ViewLogin,
		keys:          k,
		client:        d.Client,
		session:       d.Session,
		store:         d.Store,
		poller:        d.Poller,
		controller:    lifecycle.NewController(d.Client),
		cfg:           d.Config,
		configPath:    d.ConfigPath,
		taskList:      tasklist.New(k, 80, 24),
		detail:        detail.New(k, 80, 24),
		dashboard:     dashboard.New(k, 80, 24),
		formView:      forms.New(80, 24),
		portfolioView: portfolioview.New(portfolio.NewService(d.Client), k, 80, 24),
		analyticsView: analyticsview.New(d.Client, k, 80, 24),
		settingsView:  settings.New(d.Config, d.ConfigPath, check, k, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		commandView:   command.New(80, 24),
		events:        events,
		viewCtx:       ctx,
		cancelView:    cancel,
		restoring:     true,
	}
}

// Init restores the persisted session and starts listening for session
// events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.restoreSession(),
		m.waitForSessionEvent(),
	)
}

// CurrentView returns the active view.
func (m Model) CurrentView() ViewState { return m.currentView }

// User returns the signed-in user shown by the UI.
func (m Model) User() model.User { return m.user }

// Flash returns the current status message.
func (m Model) Flash() string { return m.flash }

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		// The task list sits under a one-line title.
		m.taskList.SetSize(w, h-1)
		m.detail.SetSize(w, h)
		m.dashboard.SetSize(w, h)
		m.formView.SetSize(w, h)
		m.portfolioView.SetSize(w, h)
		m.analyticsView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	// === Session ===

	case sessionRestoredMsg:
		m.restoring = false
		if msg.err != nil {
			return m, m.showLogin("Could not reach the server: "+api.MessageOf(msg.err), "")
		}
		if !msg.ok {
			return m, m.showLogin("", "")
		}
		return m, m.enter(msg.user)

	case sessionEventMsg:
		cmd := m.waitForSessionEvent()
		if msg.event == session.EventExpired && m.currentView != ViewLogin {
			return m, tea.Batch(cmd, m.signOut(msgSessionExpired))
		}
		return m, cmd

	case forms.LoginMsg:
		return m, m.login(msg.Email, msg.Password)

	case loginResultMsg:
		if msg.err != nil {
			return m, m.formView.SetError(displayErr(msg.err))
		}
		return m, m.enter(msg.user)

	case loggedOutMsg:
		return m, m.showLogin("You have been signed out.", "")

	// === Tasks ===

	case tasksLoadedMsg:
		return m, m.handleTasksLoaded(msg)

	case tasksync.SyncResultMsg:
		return m, m.handleSyncResult(msg)

	case notificationsMsg:
		if msg.err == nil {
			m.unreadCount = len(msg.notes)
			m.dashboard.SetNotifications(msg.notes)
		}
		return m, nil

	case tasklist.SelectedTaskMsg:
		m.detailReturn = ViewTasks
		return m, m.openDetail(msg.TaskID)

	case dashboard.OpenNotificationMsg:
		m.detailReturn = ViewDashboard
		return m, tea.Batch(
			m.markRead(msg.Notification.ID),
			m.openDetail(msg.Notification.TaskID),
		)

	case detailLoadedMsg:
		return m, m.handleDetailLoaded(msg)

	case detail.BackMsg:
		if m.detailReturn == ViewDashboard {
			return m, m.open(session.RouteDashboard)
		}
		return m, m.open(session.RouteTasks)

	case detail.ActionMsg:
		return m, m.handleAction(msg)

	case forms.SubmitMsg:
		m.closeForm()
		return m, m.submit(msg)

	case forms.ReviewMsg:
		m.closeForm()
		return m, m.review(msg)

	case actionDoneMsg:
		return m, m.handleActionDone(msg)

	case forms.CreateTaskMsg:
		m.closeForm()
		m.setFlash("Creating task...", false)
		return m, m.createTask(msg.Input)

	case taskCreatedMsg:
		return m, m.handleTaskCreated(msg)

	// === Portfolio ===

	case portfolioview.EditRequestMsg:
		m.openForm()
		return m, m.formView.StartPortfolio(msg.UserID, msg.Heading, msg.Existing)

	case forms.PortfolioMsg:
		m.closeForm()
		return m, m.portfolioView.Save(msg.UserID, msg.Input)

	case portfolioview.SavedMsg:
		var cmd tea.Cmd
		m.portfolioView, cmd = m.portfolioView.Update(msg)
		if msg.Err != nil {
			if api.IsUnauthorized(msg.Err) {
				return m, m.signOut(msgSessionExpired)
			}
			m.openForm()
			return m, m.formView.SetError(displayErr(msg.Err))
		}
		m.setFlash("Portfolio saved", false)
		return m, cmd

	// === Analytics ===

	case analyticsview.FiltersRequestMsg:
		m.openForm()
		return m, m.formView.StartFilters(msg.Filters)

	case forms.FiltersMsg:
		m.closeForm()
		m.analyticsView.SetFilters(msg.Filters)
		return m, m.analyticsView.Load(m.viewCtx)

	case analyticsview.LoadedMsg:
		if msg.Err != nil && api.IsUnauthorized(msg.Err) {
			return m, m.signOut(msgSessionExpired)
		}
		var cmd tea.Cmd
		m.analyticsView, cmd = m.analyticsView.Update(msg)
		return m, cmd

	// === Settings ===

	case settings.SavedMsg:
		m.cfg = msg.Config
		ui.SetMarkdownStyle(msg.Config.Display.Theme)
		var cmd tea.Cmd
		m.settingsView, cmd = m.settingsView.Update(msg)
		return m, cmd

	case settings.CheckResultMsg:
		var cmd tea.Cmd
		m.settingsView, cmd = m.settingsView.Update(msg)
		return m, cmd

	// === Forms and palette ===

	case forms.CancelMsg:
		if msg.Kind == forms.KindLogin {
			return m, m.formView.StartLogin("")
		}
		m.closeForm()
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the active view.
// Views with text input keep every key except ctrl+c.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.stopPoller()
		m.cancelView()
		return m, tea.Quit, true
	}
	if m.currentView == ViewCommand && msg.String() == "esc" {
		m.currentView = m.previousView
		return m, nil, true
	}
	if m.capturingInput() {
		return m, nil, false
	}

	switch msg.String() {
	case "q":
		if m.currentView == ViewDashboard || m.currentView == ViewTasks {
			m.stopPoller()
			m.cancelView()
			return m, tea.Quit, true
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.helpView.SetRole(m.user.Role)
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case ":":
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case "esc":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}

	case "r":
		return m, m.refresh(), true

	case "1":
		return m, m.open(session.RouteDashboard), true
	case "2":
		return m, m.open(session.RouteTasks), true
	case "3":
		return m, m.open(session.RoutePortfolio), true
	case "4":
		return m, m.open(session.RouteAnalytics), true
	case "5":
		return m, m.open(session.RouteSettings), true

	case "n":
		if m.currentView == ViewDashboard || m.currentView == ViewTasks {
			return m, m.open(session.RouteCreateTask), true
		}

	case "L":
		return m, m.logout(), true
	}
	return m, nil, false
}

// capturingInput reports whether the active view consumes raw keys.
func (m Model) capturingInput() bool {
	switch m.currentView {
	case ViewLogin, ViewForm, ViewCommand:
		return true
	case ViewTasks:
		return m.taskList.Searching()
	case ViewSettings:
		return m.settingsView.Mode() != settings.ModeInfo
	case ViewPortfolio:
		return m.portfolioView.Confirming()
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin, ViewForm:
		m.formView, cmd = m.formView.Update(msg)
	case ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ViewTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewPortfolio:
		m.portfolioView, cmd = m.portfolioView.Update(msg)
	case ViewAnalytics:
		m.analyticsView, cmd = m.analyticsView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// switchTo makes v the active area and cancels loads started by the
// previous one.
func (m *Model) switchTo(v ViewState) {
	if v != m.currentView {
		m.cancelView()
		m.viewCtx, m.cancelView = context.WithCancel(context.Background())
	}
	m.currentView = v
	m.previousView = v
}

// openForm shows the form view over the current one.
func (m *Model) openForm() {
	if m.currentView != ViewForm {
		m.previousView = m.currentView
	}
	m.currentView = ViewForm
}

// closeForm returns to the view the form was opened from.
func (m *Model) closeForm() {
	if m.currentView == ViewForm {
		m.currentView = m.previousView
	}
}

func (m *Model) setFlash(s string, isErr bool) {
	m.flash = s
	m.flashErr = isErr
}

func (m Model) stopPoller() {
	if m.poller != nil {
		m.poller.Stop()
	}
}
