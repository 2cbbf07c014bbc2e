package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sony/gobreaker"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/logging"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/store"
)

// SyncState represents the current state of the background refresh.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "syncing"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// SyncStatus holds the state of the refresher.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
	Breaker  gobreaker.State
}

// SyncResultMsg is a tea.Msg sent when a refresh completes.
type SyncResultMsg struct {
	Tasks         []model.Task
	Notifications []model.Notification
	Error         error
	// Unauthorized is set when the server rejected the stored token.
	Unauthorized bool
	// Skipped is set when nobody is signed in.
	Skipped bool
}

// NewTaskCount returns how many newly assigned tasks the refresh found.
func (m SyncResultMsg) NewTaskCount() int {
	n := 0
	for _, no := range m.Notifications {
		if no.Kind == model.NotifyAssigned {
			n++
		}
	}
	return n
}

// Fetcher lists the tasks visible to the signed-in user.
type Fetcher interface {
	ListTasks(ctx context.Context, status model.TaskStatus) ([]model.Task, error)
}

// ViewerFunc reports the signed-in user.
type ViewerFunc func() (model.User, bool)

const (
	// fetchTimeout is the maximum time allowed for a single fetch operation.
	fetchTimeout = 30 * time.Second

	defaultInterval = 120 * time.Second
)

// Poller periodically re-fetches the task list, caches it and raises
// notifications for changes relevant to the viewer. It never mutates
// server state.
type Poller struct {
	fetcher  Fetcher
	store    store.Store
	viewer   ViewerFunc
	interval time.Duration
	breaker  *gobreaker.CircuitBreaker
	now      func() time.Time

	resultCh  chan SyncResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      gosync.Mutex
	running bool
	status  SyncStatus
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock overrides the time source used for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// New creates a Poller. A non-positive interval selects the default.
func New(f Fetcher, s store.Store, viewer ViewerFunc, interval time.Duration, opts ...Option) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	p := &Poller{
		fetcher:   f,
		store:     s,
		viewer:    viewer,
		interval:  interval,
		now:       time.Now,
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "tasks-refresh",
		MaxRequests: 1,
		Timeout:     interval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("circuit breaker %q changed from %s to %s", name, from.String(), to.String())
		},
	})
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// countsAsSuccess keeps client-side rejections from tripping the
// breaker. Only transport failures and 5xx responses count.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	status := api.StatusOf(err)
	return status >= 400 && status < 500
}

// Start returns a tea.Cmd that starts the polling goroutine and
// subscribes to results.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	go p.loop(stop)

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate poll.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// a refresh is already queued
	}
	return nil
}

// Status returns the current refresher status.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.status
	st.Breaker = p.breaker.State()
	return st
}

func (p *Poller) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	p.sendResult(p.poll(ctx))

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.sendResult(p.poll(ctx))
		case <-p.triggerCh:
			p.sendResult(p.poll(ctx))
		}
	}
}

func (p *Poller) poll(ctx context.Context) SyncResultMsg {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	return p.SyncOnce(ctx)
}

// SyncOnce fetches the task list once, stores the snapshot and records
// notifications. The first snapshot for a viewer only sets a baseline.
func (p *Poller) SyncOnce(ctx context.Context) SyncResultMsg {
	viewer, ok := p.viewer()
	if !ok {
		return SyncResultMsg{Skipped: true}
	}

	p.setStatus(SyncRunning, nil)

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetcher.ListTasks(ctx, "")
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("task refresh paused: %w", err)
		}
		p.setStatus(SyncError, err)
		logging.Logger.WithError(err).Warn("task refresh failed")
		return SyncResultMsg{Error: err, Unauthorized: api.IsUnauthorized(err)}
	}
	tasks := out.([]model.Task)

	notes, err := p.record(ctx, viewer, tasks)
	if err != nil {
		p.setStatus(SyncError, err)
		logging.Logger.WithError(err).Warn("caching task snapshot failed")
		return SyncResultMsg{Tasks: tasks, Error: err}
	}

	p.setStatus(SyncIdle, nil)
	logging.Logger.WithField("tasks", len(tasks)).WithField("notifications", len(notes)).Debug("task refresh complete")
	return SyncResultMsg{Tasks: tasks, Notifications: notes}
}

func (p *Poller) record(ctx context.Context, viewer model.User, tasks []model.Task) ([]model.Notification, error) {
	prior, err := p.store.LastFetched(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	known, err := p.store.KnownStatuses(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	now := p.now()
	if err := p.store.SaveSnapshot(ctx, viewer.ID, tasks, now); err != nil {
		return nil, err
	}
	if prior.IsZero() {
		return nil, nil
	}

	notes := Diff(viewer, known, tasks)
	for i := range notes {
		notes[i].CreatedAt = now
		if err := p.store.CreateNotification(ctx, viewer.ID, notes[i]); err != nil {
			return nil, err
		}
	}
	return notes, nil
}

// Diff compares a fresh task list to the cached statuses and returns the
// notifications the viewer should see.
func Diff(viewer model.User, known map[int64]model.TaskStatus, tasks []model.Task) []model.Notification {
	var notes []model.Notification
	for _, t := range tasks {
		prev, seen := known[t.ID]
		mine := t.AssignedTo.ID == viewer.ID

		switch {
		case !seen && mine:
			notes = append(notes, model.Notification{
				TaskID:  t.ID,
				Kind:    model.NotifyAssigned,
				Message: fmt.Sprintf("New task assigned: %s", t.Title),
			})
		case seen && prev != t.Status && mine:
			notes = append(notes, model.Notification{
				TaskID:  t.ID,
				Kind:    model.NotifyStatusChanged,
				Message: fmt.Sprintf("%s is now %s", t.Title, t.Status.Label()),
			})
		case t.Status == model.StatusSubmitted && prev != model.StatusSubmitted && viewer.Role == model.RoleHOD:
			notes = append(notes, model.Notification{
				TaskID:  t.ID,
				Kind:    model.NotifyAwaitingReview,
				Message: fmt.Sprintf("Awaiting review: %s from %s", t.Title, t.AssignedTo.Name),
			})
		}
	}
	return notes
}

// setStatus updates the refresher status.
func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = p.now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	if msg.Skipped {
		return
	}
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// Call it after handling a SyncResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
