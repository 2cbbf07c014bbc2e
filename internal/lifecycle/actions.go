// Package lifecycle encodes the task state machine: which actions each
// role may take in each task state, and the start, submit and review
// transitions performed against the API.
package lifecycle

import (
	"strings"

	"github.com/nhle/facultyflow/internal/model"
)

// Action is something a user can do to a task or to the task collection.
type Action uint8

const (
	ActionView Action = 1 << iota
	ActionStart
	ActionSubmit
	ActionReview
	ActionHistory
	ActionCreate
)

var actionOrder = []Action{ActionView, ActionStart, ActionSubmit, ActionReview, ActionHistory, ActionCreate}

func (a Action) String() string {
	switch a {
	case ActionView:
		return "view"
	case ActionStart:
		return "start"
	case ActionSubmit:
		return "submit"
	case ActionReview:
		return "review"
	case ActionHistory:
		return "history"
	case ActionCreate:
		return "create"
	}
	return "unknown"
}

// ActionSet is an immutable set of actions.
type ActionSet uint8

// NewActionSet returns the set containing actions.
func NewActionSet(actions ...Action) ActionSet {
	var s ActionSet
	for _, a := range actions {
		s |= ActionSet(a)
	}
	return s
}

// Has reports whether a is in the set.
func (s ActionSet) Has(a Action) bool { return s&ActionSet(a) != 0 }

// Actions lists the set's members in a fixed order.
func (s ActionSet) Actions() []Action {
	out := make([]Action, 0, len(actionOrder))
	for _, a := range actionOrder {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s ActionSet) String() string {
	names := make([]string, 0, len(actionOrder))
	for _, a := range s.Actions() {
		names = append(names, a.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// TaskState is what the capability table needs to know about a task.
type TaskState struct {
	Status model.TaskStatus

	// HasPendingSubmission is true when the task's history contains a
	// submission that has not been reviewed yet.
	HasPendingSubmission bool
}

// StateOf derives the TaskState of task from its submission history.
func StateOf(task model.Task, subs []model.Submission) TaskState {
	_, pending := PendingSubmission(subs)
	return TaskState{Status: task.Status, HasPendingSubmission: pending}
}

// PermittedActions is the capability table for a single task. It is pure:
// the same role and state always yield the same set.
//
//	start   FACULTY, status PENDING or OVERDUE
//	submit  FACULTY, status IN_PROGRESS
//	review  HOD, status SUBMITTED with a pending submission
//	history any role, status SUBMITTED or COMPLETED
//	view    any known role
func PermittedActions(role model.Role, st TaskState) ActionSet {
	if _, ok := model.ParseRole(string(role)); !ok {
		return 0
	}

	set := NewActionSet(ActionView)

	switch st.Status {
	case model.StatusSubmitted, model.StatusCompleted:
		set |= ActionSet(ActionHistory)
	}

	switch role {
	case model.RoleFaculty:
		switch st.Status {
		case model.StatusPending, model.StatusOverdue:
			set |= ActionSet(ActionStart)
		case model.StatusInProgress:
			set |= ActionSet(ActionSubmit)
		}
	case model.RoleHOD:
		if st.Status == model.StatusSubmitted && st.HasPendingSubmission {
			set |= ActionSet(ActionReview)
		}
	}

	return set
}

// PermittedCollectionActions returns the actions role may take on the
// task collection as a whole.
func PermittedCollectionActions(role model.Role) ActionSet {
	if role.In(model.RoleHOD, model.RoleAdmin) {
		return NewActionSet(ActionCreate)
	}
	return 0
}
