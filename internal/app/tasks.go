package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/lifecycle"
	"github.com/nhle/facultyflow/internal/logging"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/session"
	"github.com/nhle/facultyflow/internal/store"
	tasksync "github.com/nhle/facultyflow/internal/sync"
	"github.com/nhle/facultyflow/internal/ui/detail"
	"github.com/nhle/facultyflow/internal/ui/forms"
)

// tasksLoadedMsg carries the task list. cached is set when the server
// could not be reached and the last snapshot is shown instead.
type tasksLoadedMsg struct {
	viewerID int64
	tasks    []model.Task
	cached   bool
	err      error
}

type notificationsMsg struct {
	notes []model.Notification
	err   error
}

type detailLoadedMsg struct {
	id     int64
	detail lifecycle.Detail
	err    error
}

// actionDoneMsg reports a finished start, submit or review.
type actionDoneMsg struct {
	action lifecycle.Action
	taskID int64
	detail lifecycle.Detail
	err    error
}

type taskCreatedMsg struct {
	task model.Task
	err  error
}

// loadTasks fetches the viewer's task list. On a transport failure the
// cached snapshot is offered instead.
func (m Model) loadTasks() tea.Cmd {
	c, s, ctx, viewer := m.client, m.store, m.viewCtx, m.user.ID
	return func() tea.Msg {
		tasks, err := c.ListTasks(ctx, "")
		if err == nil {
			return tasksLoadedMsg{viewerID: viewer, tasks: tasks}
		}
		if api.IsNetwork(err) && s != nil && ctx.Err() == nil {
			cached, cerr := s.GetTasks(ctx, viewer, store.TaskFilter{})
			if cerr == nil && len(cached) > 0 {
				return tasksLoadedMsg{viewerID: viewer, tasks: cached, cached: true, err: err}
			}
		}
		return tasksLoadedMsg{viewerID: viewer, err: err}
	}
}

func (m *Model) handleTasksLoaded(msg tasksLoadedMsg) tea.Cmd {
	if msg.viewerID != m.user.ID || m.currentView == ViewLogin {
		return nil
	}
	if msg.err != nil && !msg.cached {
		switch {
		case errors.Is(msg.err, context.Canceled):
			return nil
		case api.IsUnauthorized(msg.err):
			return m.signOut(msgSessionExpired)
		}
		m.taskList.SetError(displayErr(msg.err))
		return nil
	}

	m.taskList.SetTasks(msg.tasks)
	m.dashboard.SetTasks(msg.tasks)
	if msg.cached {
		m.setFlash("Offline: showing cached tasks", true)
	}
	return nil
}

// handleSyncResult applies a background refresh and re-arms the poller.
func (m *Model) handleSyncResult(msg tasksync.SyncResultMsg) tea.Cmd {
	var cmds []tea.Cmd
	if m.poller != nil {
		cmds = append(cmds, m.poller.WaitForNextResult())
		m.settingsView.SetSyncStatus(m.poller.Status())
	}
	if m.currentView == ViewLogin {
		return tea.Batch(cmds...)
	}
	if msg.Unauthorized {
		return tea.Batch(append(cmds, m.signOut(msgSessionExpired))...)
	}
	if msg.Tasks != nil {
		m.taskList.SetTasks(msg.Tasks)
		m.dashboard.SetTasks(msg.Tasks)
	}
	if n := msg.NewTaskCount(); n > 0 {
		m.setFlash(fmt.Sprintf("%d new task(s) assigned", n), false)
	}
	if len(msg.Notifications) > 0 {
		cmds = append(cmds, m.loadNotifications())
	}
	return tea.Batch(cmds...)
}

func (m Model) loadNotifications() tea.Cmd {
	return m.notificationsAfter(nil)
}

func (m Model) markRead(id string) tea.Cmd {
	if id == "" {
		return nil
	}
	return m.notificationsAfter(func(ctx context.Context, s store.Store) error {
		return s.MarkNotificationRead(ctx, id)
	})
}

func (m Model) markAllRead() tea.Cmd {
	viewer := m.user.ID
	return m.notificationsAfter(func(ctx context.Context, s store.Store) error {
		return s.MarkAllNotificationsRead(ctx, viewer)
	})
}

// notificationsAfter runs update, if any, and then reloads the viewer's
// unread notifications.
func (m Model) notificationsAfter(update func(context.Context, store.Store) error) tea.Cmd {
	s, viewer := m.store, m.user.ID
	if s == nil || viewer == 0 {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		if update != nil {
			if err := update(ctx, s); err != nil {
				logging.Logger.WithError(err).Warn("updating notifications")
			}
		}
		notes, err := s.GetUnreadNotifications(ctx, viewer)
		if err != nil {
			logging.Logger.WithError(err).Warn("loading notifications")
		}
		return notificationsMsg{notes: notes, err: err}
	}
}

// openDetail shows the detail view and loads task id from the server.
func (m *Model) openDetail(id int64) tea.Cmd {
	user, err := m.session.Require(session.RouteTasks)
	if err != nil {
		return m.denied(session.RouteTasks, err)
	}
	m.switchTo(ViewDetail)
	m.detail.Reset()
	return m.loadDetail(user, id)
}

func (m Model) loadDetail(user model.User, id int64) tea.Cmd {
	c, ctx := m.controller, m.viewCtx
	return func() tea.Msg {
		d, err := c.Load(ctx, user, id)
		return detailLoadedMsg{id: id, detail: d, err: err}
	}
}

func (m *Model) handleDetailLoaded(msg detailLoadedMsg) tea.Cmd {
	if m.currentView != ViewDetail && m.currentView != ViewForm {
		return nil
	}
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, context.Canceled):
			return nil
		case api.IsUnauthorized(msg.err):
			return m.signOut(msgSessionExpired)
		case api.IsNotFound(msg.err):
			m.detail.SetError(fmt.Errorf("Task #%d was not found", msg.id))
			return nil
		}
		m.detail.SetError(displayErr(msg.err))
		return nil
	}
	m.detail.SetDetail(msg.detail)
	return nil
}

// handleAction runs start directly and opens the form for submit and
// review.
func (m *Model) handleAction(msg detail.ActionMsg) tea.Cmd {
	switch msg.Action {
	case lifecycle.ActionStart:
		m.detail.SetBusy(lifecycle.ActionStart)
		c, user, task := m.controller, m.user, msg.Task
		return func() tea.Msg {
			d, err := c.Start(context.Background(), user, task)
			return actionDoneMsg{action: lifecycle.ActionStart, taskID: task.ID, detail: d, err: err}
		}

	case lifecycle.ActionSubmit:
		m.openForm()
		return m.formView.StartSubmit(msg.Task)

	case lifecycle.ActionReview:
		m.openForm()
		return m.formView.StartReview(msg.Task)
	}
	return nil
}

// currentTask returns the task shown in the detail view when it is id.
func (m Model) currentTask(id int64) (model.Task, bool) {
	d, ok := m.detail.Detail()
	if !ok || d.Task.ID != id {
		return model.Task{}, false
	}
	return d.Task, true
}

func (m *Model) submit(msg forms.SubmitMsg) tea.Cmd {
	task, ok := m.currentTask(msg.TaskID)
	if !ok {
		return nil
	}
	m.detail.SetBusy(lifecycle.ActionSubmit)
	c, user := m.controller, m.user
	return func() tea.Msg {
		d, err := c.Submit(context.Background(), user, task, msg.Input)
		return actionDoneMsg{action: lifecycle.ActionSubmit, taskID: task.ID, detail: d, err: err}
	}
}

func (m *Model) review(msg forms.ReviewMsg) tea.Cmd {
	task, ok := m.currentTask(msg.TaskID)
	if !ok {
		return nil
	}
	m.detail.SetBusy(lifecycle.ActionReview)
	c, user := m.controller, m.user
	return func() tea.Msg {
		d, err := c.Review(context.Background(), user, task, msg.Input)
		return actionDoneMsg{action: lifecycle.ActionReview, taskID: task.ID, detail: d, err: err}
	}
}

// handleActionDone shows the re-fetched task. Input problems reopen the
// form with what was entered; other failures stay on the task.
func (m *Model) handleActionDone(msg actionDoneMsg) tea.Cmd {
	if msg.err != nil {
		if api.IsUnauthorized(msg.err) {
			return m.signOut(msgSessionExpired)
		}
		var verr *lifecycle.ValidationError
		if msg.action != lifecycle.ActionStart && (errors.As(msg.err, &verr) || api.StatusOf(msg.err) == 400) {
			m.detail.SetBusy(0)
			m.openForm()
			return m.formView.SetError(displayErr(msg.err))
		}
		m.detail.SetError(displayErr(msg.err))
		if _, ok := m.currentTask(msg.taskID); ok {
			return m.loadDetail(m.user, msg.taskID)
		}
		return nil
	}

	if _, ok := m.currentTask(msg.taskID); ok {
		m.detail.SetDetail(msg.detail)
		m.detail.SetFlash(actionFlash(msg.action, msg.detail.Task))
	}
	return m.loadTasks()
}

func actionFlash(a lifecycle.Action, t model.Task) string {
	switch a {
	case lifecycle.ActionStart:
		return "Task started"
	case lifecycle.ActionSubmit:
		return "Work submitted for review"
	case lifecycle.ActionReview:
		if t.Status == model.StatusCompleted {
			return "Submission approved"
		}
		return "Submission returned for rework"
	}
	return ""
}

func (m Model) createTask(in model.TaskCreate) tea.Cmd {
	c, user := m.controller, m.user
	return func() tea.Msg {
		t, err := c.Create(context.Background(), user, in)
		return taskCreatedMsg{task: t, err: err}
	}
}

func (m *Model) handleTaskCreated(msg taskCreatedMsg) tea.Cmd {
	if msg.err != nil {
		if api.IsUnauthorized(msg.err) {
			return m.signOut(msgSessionExpired)
		}
		m.setFlash("", false)
		m.openForm()
		return m.formView.SetError(displayErr(msg.err))
	}
	cmd := m.open(session.RouteTasks)
	m.setFlash(fmt.Sprintf("Created task #%d %q", msg.task.ID, msg.task.Title), false)
	return cmd
}

// assignees offers everyone the client has seen: task assignees and, for
// managers who opened the directory, portfolio owners.
func (m Model) assignees() []forms.Assignee {
	return forms.Assignees(m.taskList.Tasks(), m.portfolioView.Directory())
}

// refresh re-reads whatever the active area shows.
func (m *Model) refresh() tea.Cmd {
	if m.poller != nil {
		m.poller.Refresh()
	}
	switch m.currentView {
	case ViewDashboard:
		return tea.Batch(m.loadTasks(), m.loadNotifications())
	case ViewTasks:
		return m.loadTasks()
	case ViewDetail:
		if d, ok := m.detail.Detail(); ok {
			return m.loadDetail(m.user, d.Task.ID)
		}
	case ViewPortfolio:
		return m.portfolioView.Load(m.viewCtx, m.user)
	case ViewAnalytics:
		return m.analyticsView.Load(m.viewCtx)
	}
	return nil
}
