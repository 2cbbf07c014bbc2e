package model

import (
	"strings"
	"time"
)

// TaskStatus is the backend-owned lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusSubmitted  TaskStatus = "SUBMITTED"
	StatusCompleted  TaskStatus = "COMPLETED"
	StatusOverdue    TaskStatus = "OVERDUE"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []TaskStatus{
	StatusPending,
	StatusInProgress,
	StatusSubmitted,
	StatusCompleted,
	StatusOverdue,
}

// ParseStatus normalizes a status string. Unknown values report false.
func ParseStatus(s string) (TaskStatus, bool) {
	st := TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// Label returns the status in display form ("IN PROGRESS").
func (s TaskStatus) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// PriorityBand groups the numeric task priority for display.
type PriorityBand string

const (
	PriorityLow    PriorityBand = "Low"
	PriorityMedium PriorityBand = "Medium"
	PriorityHigh   PriorityBand = "High"
)

// DefaultPriority is applied by the backend when a task is created
// without an explicit priority.
const DefaultPriority = 3

// BandForPriority maps a priority to Low (<5), Medium (5-7) or High (>=8).
func BandForPriority(p int) PriorityBand {
	switch {
	case p >= 8:
		return PriorityHigh
	case p >= 5:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// UserRef is a read-only copy of a user's display fields held by
// another entity.
type UserRef struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
}

// Task is a unit of work assigned by one user to another.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueAt       time.Time  `json:"dueAt"`
	Priority    int        `json:"priority"`
	Status      TaskStatus `json:"status"`
	Locked      bool       `json:"locked"`
	Links       []string   `json:"links"`
	AssignedTo  UserRef    `json:"assignedTo"`
	AssignedBy  UserRef    `json:"assignedBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsCompleted reports whether the task reached its terminal state.
func (t Task) IsCompleted() bool { return t.Status == StatusCompleted }

// IsOverdue reports the display-only overdue condition: the due date
// has passed and the task is not completed. It never changes Status.
func (t Task) IsOverdue(now time.Time) bool {
	return !t.DueAt.IsZero() && t.DueAt.Before(now) && t.Status != StatusCompleted
}

// Band returns the priority band of the task.
func (t Task) Band() PriorityBand { return BandForPriority(t.Priority) }

// TaskCreate is the payload for creating a task.
type TaskCreate struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	DueAt            time.Time `json:"dueAt"`
	AssignedToUserID int64     `json:"assignedToUserId"`
	Priority         int       `json:"priority"`
	Links            []string  `json:"links,omitempty"`
}
