package taskview

import "github.com/nhle/facultyflow/internal/model"

// View is the mutable state of a task list screen: the last fetched
// collection, the filter and whether the completed group is expanded.
// The completed group starts collapsed.
type View struct {
	tasks    []model.Task
	filter   Filter
	expanded bool
	result   Result
}

// New returns a view over tasks with no filters.
func New(tasks []model.Task) *View {
	v := &View{}
	v.SetTasks(tasks)
	return v
}

// SetTasks replaces the collection, keeping filters and expansion.
func (v *View) SetTasks(tasks []model.Task) {
	v.tasks = append([]model.Task(nil), tasks...)
	v.recompute()
}

// Tasks returns the unfiltered collection.
func (v *View) Tasks() []model.Task { return v.tasks }

// Filter returns the active filter.
func (v *View) Filter() Filter { return v.filter }

func (v *View) SetStatus(s model.TaskStatus) {
	v.filter.Status = s
	v.recompute()
}

func (v *View) SetSearch(term string) {
	v.filter.Search = term
	v.recompute()
}

// Clear resets both the status filter and the search term.
func (v *View) Clear() {
	v.filter = Filter{}
	v.recompute()
}

// ToggleCompleted expands or collapses the completed group.
func (v *View) ToggleCompleted() { v.expanded = !v.expanded }

// CompletedExpanded reports whether completed tasks are shown.
func (v *View) CompletedExpanded() bool { return v.expanded }

// Result returns the current filtered collection.
func (v *View) Result() Result { return v.result }

// Visible returns the tasks that render as cards: the active list plus,
// when expanded, the completed group.
func (v *View) Visible() []model.Task {
	out := append([]model.Task(nil), v.result.Active...)
	if v.result.Partitioned && v.expanded {
		out = append(out, v.result.Completed...)
	}
	return out
}

// Find returns the task with id from the unfiltered collection.
func (v *View) Find(id int64) (model.Task, bool) {
	for _, t := range v.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (v *View) recompute() { v.result = Apply(v.tasks, v.filter) }
