// Package taskview holds the client-side shaping of the task collection:
// status filter, text search, ordering and the active/completed split.
// Everything here is pure; fetching belongs to the caller.
package taskview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nhle/facultyflow/internal/model"
)

// StatusAll is the filter value that matches every status.
const StatusAll = "all"

// EmptyMessage is shown when no task survives the filters.
const EmptyMessage = "No tasks match your filters."

// Filter narrows the task collection. A zero Filter matches everything.
type Filter struct {
	// Status is an exact status, or empty for all statuses.
	Status model.TaskStatus
	Search string
}

// IsAll reports whether no status filter is active.
func (f Filter) IsAll() bool { return f.Status == "" }

// ParseStatusFilter accepts "all" (or empty) and any known status.
func ParseStatusFilter(s string) (model.TaskStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, StatusAll) {
		return "", nil
	}
	st, ok := model.ParseStatus(strings.ReplaceAll(s, " ", "_"))
	if !ok {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Matches reports whether t passes f. The search term is trimmed and
// compared case-insensitively against the title and description.
func Matches(t model.Task, f Filter) bool {
	if !f.IsAll() && t.Status != f.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	hay := strings.ToLower(t.Title + " " + t.Description)
	return strings.Contains(hay, term)
}

// SortByUpdated orders tasks most recently updated first. Ties keep
// their input order.
func SortByUpdated(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt)
	})
}

// Result is the filtered collection ready to render.
type Result struct {
	// Active holds non-completed tasks, or every match when a status
	// filter is set.
	Active []model.Task

	// Completed holds COMPLETED tasks; it is only populated when no
	// status filter is set.
	Completed []model.Task

	// Partitioned is true when Active and Completed were split.
	Partitioned bool
}

// Total is the number of matching tasks.
func (r Result) Total() int { return len(r.Active) + len(r.Completed) }

// Empty reports whether nothing matched.
func (r Result) Empty() bool { return r.Total() == 0 }

// Apply filters, orders and partitions tasks. The input is not modified.
func Apply(tasks []model.Task, f Filter) Result {
	matched := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, f) {
			matched = append(matched, t)
		}
	}
	SortByUpdated(matched)

	if !f.IsAll() {
		return Result{Active: matched, Completed: []model.Task{}}
	}

	res := Result{
		Active:      make([]model.Task, 0, len(matched)),
		Completed:   []model.Task{},
		Partitioned: true,
	}
	for _, t := range matched {
		if t.IsCompleted() {
			res.Completed = append(res.Completed, t)
		} else {
			res.Active = append(res.Active, t)
		}
	}
	return res
}

// Title is the list heading for role.
func Title(role model.Role) string {
	if role == model.RoleFaculty {
		return "My Tasks"
	}
	return "All Tasks"
}

// Counts tallies tasks by status.
func Counts(tasks []model.Task) map[model.TaskStatus]int {
	out := make(map[model.TaskStatus]int, len(model.Statuses))
	for _, t := range tasks {
		out[t.Status]++
	}
	return out
}
