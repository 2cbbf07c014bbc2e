package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nhle/facultyflow/internal/logging"
	"github.com/nhle/facultyflow/internal/model"
)

var (
	// ErrActionInFlight is returned when the same action on the same task
	// is already running.
	ErrActionInFlight = errors.New("action already in progress")

	// ErrNoPendingSubmission means the task has nothing to review.
	ErrNoPendingSubmission = errors.New("no submission awaiting review")
)

// NotPermittedError is returned when the capability table denies an
// action for the user's role and the task's state.
type NotPermittedError struct {
	Action Action
	Role   model.Role
	Status model.TaskStatus
}

func (e *NotPermittedError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("%s cannot %s tasks", e.Role, e.Action)
	}
	return fmt.Sprintf("%s cannot %s a task that is %s", e.Role, e.Action, e.Status.Label())
}

// Backend is the part of the API client the controller drives.
type Backend interface {
	GetTask(ctx context.Context, id int64) (model.Task, error)
	Submissions(ctx context.Context, id int64) ([]model.Submission, error)
	StartTask(ctx context.Context, id int64) (model.Task, error)
	SubmitTask(ctx context.Context, id int64, summary string, links []string) (model.Task, error)
	ReviewTask(ctx context.Context, id int64, decision model.Decision, note string) (model.Submission, error)
	CreateTask(ctx context.Context, in model.TaskCreate) (model.Task, error)
}

// Detail is the server's current view of one task together with what the
// viewing user may do with it.
type Detail struct {
	Task        model.Task
	Submissions []model.Submission

	// SubmissionsErr is set when the history could not be loaded. The
	// task itself is still valid; review is not offered.
	SubmissionsErr error

	Actions ActionSet
}

// Relevant returns the submission to display for the task's status.
func (d Detail) Relevant() (model.Submission, bool) {
	return SelectRelevantSubmission(d.Task.Status, d.Submissions)
}

// Pending returns the submission a reviewer would decide on.
func (d Detail) Pending() (model.Submission, bool) {
	return PendingSubmission(d.Submissions)
}

// Controller performs task transitions. Every transition is one request
// followed by a re-fetch; the next status is never computed locally.
type Controller struct {
	backend Backend

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewController creates a controller over backend.
func NewController(backend Backend) *Controller {
	return &Controller{
		backend:  backend,
		inflight: make(map[string]struct{}),
	}
}

// Load fetches the task and, for SUBMITTED and COMPLETED tasks, its
// submission history.
func (c *Controller) Load(ctx context.Context, user model.User, id int64) (Detail, error) {
	task, err := c.backend.GetTask(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{Task: task, Submissions: []model.Submission{}}
	if task.Status == model.StatusSubmitted || task.Status == model.StatusCompleted {
		subs, err := c.backend.Submissions(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return Detail{}, err
			}
			logging.Logger.WithError(err).WithField("task", id).Warn("loading submission history")
			d.SubmissionsErr = err
		} else {
			d.Submissions = subs
		}
	}

	d.Actions = PermittedActions(user.Role, StateOf(d.Task, d.Submissions))
	return d, nil
}

// History returns the task's submissions, newest first.
func (c *Controller) History(ctx context.Context, id int64) ([]model.Submission, error) {
	subs, err := c.backend.Submissions(ctx, id)
	if err != nil {
		return nil, err
	}
	return SortedSubmissions(subs), nil
}

// Start moves a PENDING or OVERDUE task into progress.
func (c *Controller) Start(ctx context.Context, user model.User, task model.Task) (Detail, error) {
	if err := c.permit(ActionStart, user, TaskState{Status: task.Status}); err != nil {
		return Detail{}, err
	}

	release, err := c.acquire(ActionStart, task.ID)
	if err != nil {
		return Detail{}, err
	}
	defer release()

	if _, err := c.backend.StartTask(ctx, task.ID); err != nil {
		return Detail{}, err
	}
	c.logTransition(ActionStart, user, task)
	return c.Load(ctx, user, task.ID)
}

// Submit records the user's work on an IN_PROGRESS task. Input problems
// are reported as *ValidationError without contacting the server.
func (c *Controller) Submit(ctx context.Context, user model.User, task model.Task, in SubmitInput) (Detail, error) {
	if err := c.permit(ActionSubmit, user, TaskState{Status: task.Status}); err != nil {
		return Detail{}, err
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return Detail{}, err
	}

	release, err := c.acquire(ActionSubmit, task.ID)
	if err != nil {
		return Detail{}, err
	}
	defer release()

	if _, err := c.backend.SubmitTask(ctx, task.ID, in.Summary, in.Links); err != nil {
		return Detail{}, err
	}
	c.logTransition(ActionSubmit, user, task)
	return c.Load(ctx, user, task.ID)
}

// Review decides the pending submission of a SUBMITTED task. The history
// is re-read first; with no pending submission the review is refused with
// ErrNoPendingSubmission and nothing is sent.
func (c *Controller) Review(ctx context.Context, user model.User, task model.Task, in ReviewInput) (Detail, error) {
	if task.Status != model.StatusSubmitted || user.Role != model.RoleHOD {
		return Detail{}, &NotPermittedError{Action: ActionReview, Role: user.Role, Status: task.Status}
	}
	decision, note, err := in.Parse()
	if err != nil {
		return Detail{}, err
	}

	release, err := c.acquire(ActionReview, task.ID)
	if err != nil {
		return Detail{}, err
	}
	defer release()

	subs, err := c.backend.Submissions(ctx, task.ID)
	if err != nil {
		return Detail{}, err
	}
	if _, ok := PendingSubmission(subs); !ok {
		return Detail{}, ErrNoPendingSubmission
	}

	if _, err := c.backend.ReviewTask(ctx, task.ID, decision, note); err != nil {
		return Detail{}, err
	}
	c.logTransition(ActionReview, user, task)
	return c.Load(ctx, user, task.ID)
}

// Create validates and creates a task, then re-reads it from the server.
func (c *Controller) Create(ctx context.Context, user model.User, in model.TaskCreate) (model.Task, error) {
	if !PermittedCollectionActions(user.Role).Has(ActionCreate) {
		return model.Task{}, &NotPermittedError{Action: ActionCreate, Role: user.Role}
	}
	in, err := ValidateTaskCreate(in)
	if err != nil {
		return model.Task{}, err
	}

	release, err := c.acquire(ActionCreate, 0)
	if err != nil {
		return model.Task{}, err
	}
	defer release()

	created, err := c.backend.CreateTask(ctx, in)
	if err != nil {
		return model.Task{}, err
	}
	c.logTransition(ActionCreate, user, created)
	return c.backend.GetTask(ctx, created.ID)
}

func (c *Controller) permit(a Action, user model.User, st TaskState) error {
	if !PermittedActions(user.Role, st).Has(a) {
		return &NotPermittedError{Action: a, Role: user.Role, Status: st.Status}
	}
	return nil
}

// acquire takes the per-(action, task) lock or fails fast.
func (c *Controller) acquire(a Action, taskID int64) (func(), error) {
	key := fmt.Sprintf("%s/%d", a, taskID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[key]; busy {
		return nil, ErrActionInFlight
	}
	c.inflight[key] = struct{}{}

	return func() {
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
	}, nil
}

// Busy reports whether action a is running for the task.
func (c *Controller) Busy(a Action, taskID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inflight[fmt.Sprintf("%s/%d", a, taskID)]
	return busy
}

func (c *Controller) logTransition(a Action, user model.User, task model.Task) {
	logging.Logger.WithFields(logrus.Fields{
		"action": a.String(),
		"task":   task.ID,
		"user":   user.ID,
		"from":   task.Status,
	}).Info("task action accepted")
}
