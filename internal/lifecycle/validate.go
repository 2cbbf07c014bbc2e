package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhle/facultyflow/internal/model"
)

// User-facing validation messages.
const (
	MsgEmptySummary    = "Please provide a summary of your work"
	MsgMissingDecision = "Please choose a decision"
	MsgEmptyTitle      = "Please enter a task title"
	MsgMissingAssignee = "Please choose who the task is assigned to"
	MsgMissingDueDate  = "Please set a due date"
)

// Limits applied to new tasks.
const (
	MaxTaskLinks    = 50
	MaxLinkLen      = 2048
	MinTaskPriority = 1
	MaxTaskPriority = 10
)

// ValidationError is a problem with user input found before any request
// is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// SubmitInput is the evidence a faculty member submits for a task.
type SubmitInput struct {
	Summary string
	Links   []string
}

// Normalize trims the summary and drops blank links.
func (in SubmitInput) Normalize() SubmitInput {
	return SubmitInput{
		Summary: strings.TrimSpace(in.Summary),
		Links:   cleanLinks(in.Links),
	}
}

// Validate checks a normalized input.
func (in SubmitInput) Validate() error {
	if in.Summary == "" {
		return invalid("summary", MsgEmptySummary)
	}
	return nil
}

// ReviewInput is a reviewer's decision on the pending submission.
type ReviewInput struct {
	Decision string
	Note     string
}

// Parse validates the input and returns the decision and trimmed note.
func (in ReviewInput) Parse() (model.Decision, string, error) {
	d, ok := model.ParseDecision(in.Decision)
	if !ok {
		return "", "", invalid("decision", MsgMissingDecision)
	}
	return d, strings.TrimSpace(in.Note), nil
}

// ValidateTaskCreate normalizes and checks a new task. A zero priority
// becomes model.DefaultPriority.
func ValidateTaskCreate(in model.TaskCreate) (model.TaskCreate, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Links = cleanLinks(in.Links)
	if in.Priority == 0 {
		in.Priority = model.DefaultPriority
	}

	switch {
	case in.Title == "":
		return in, invalid("title", MsgEmptyTitle)
	case in.AssignedToUserID <= 0:
		return in, invalid("assignee", MsgMissingAssignee)
	case in.DueAt.IsZero():
		return in, invalid("dueAt", MsgMissingDueDate)
	case in.Priority < MinTaskPriority || in.Priority > MaxTaskPriority:
		return in, invalid("priority", fmt.Sprintf("Priority must be between %d and %d", MinTaskPriority, MaxTaskPriority))
	case len(in.Links) > MaxTaskLinks:
		return in, invalid("links", fmt.Sprintf("At most %d links are allowed", MaxTaskLinks))
	}
	for _, l := range in.Links {
		if len(l) > MaxLinkLen {
			return in, invalid("links", fmt.Sprintf("Links must be at most %d characters", MaxLinkLen))
		}
		if !IsHTTPURL(l) {
			return in, invalid("links", fmt.Sprintf("Link %q must start with http:// or https://", l))
		}
	}
	return in, nil
}

// ParseDueDate accepts "2006-01-02" or "2006-01-02 15:04" in loc. A bare
// date means the end of that day.
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, loc); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, invalid("dueAt", "Due date must look like 2025-01-31 or 2025-01-31 17:00")
	}
	return t.Add(24*time.Hour - time.Minute), nil
}

// IsHTTPURL reports whether s starts with a lower-case http:// or
// https:// scheme, the only forms the server accepts.
func IsHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func cleanLinks(links []string) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
