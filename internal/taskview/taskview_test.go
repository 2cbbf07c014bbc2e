package taskview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/facultyflow/internal/model"
)

func at(min int) time.Time { return time.Date(2025, 3, 1, 12, min, 0, 0, time.UTC) }

func task(id int64, status model.TaskStatus, updated int, title, desc string) model.Task {
	return model.Task{ID: id, Status: status, UpdatedAt: at(updated), Title: title, Description: desc}
}

func fiveTasks() []model.Task {
	return []model.Task{
		task(1, model.StatusPending, 1, "Grade midterms", "Section A"),
		task(2, model.StatusCompleted, 5, "Submit syllabus", "Fall term"),
		task(3, model.StatusInProgress, 3, "Lab safety review", ""),
		task(4, model.StatusCompleted, 2, "Advising hours", "Post schedule"),
		task(5, model.StatusSubmitted, 4, "Research report", "Annual GRADE summary"),
	}
}

func ids(tasks []model.Task) []int64 {
	out := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestApplyPartitionsWithoutFilter(t *testing.T) {
	res := Apply(fiveTasks(), Filter{})

	assert.True(t, res.Partitioned)
	assert.Equal(t, []int64{5, 3, 1}, ids(res.Active))
	assert.Equal(t, []int64{2, 4}, ids(res.Completed))
}

func TestCompletedFilterDisablesPartition(t *testing.T) {
	res := Apply(fiveTasks(), Filter{Status: model.StatusCompleted})

	assert.False(t, res.Partitioned)
	assert.Equal(t, []int64{2, 4}, ids(res.Active))
	assert.Empty(t, res.Completed)
}

func TestSearchIsCaseInsensitiveOverTitleAndDescription(t *testing.T) {
	res := Apply(fiveTasks(), Filter{Search: "  grade "})
	assert.Equal(t, []int64{5, 1}, ids(res.Active))

	// The joined haystack spans the title/description boundary.
	res = Apply(fiveTasks(), Filter{Search: "syllabus fall"})
	assert.Equal(t, []int64{2}, ids(res.Completed))

	res = Apply(fiveTasks(), Filter{Search: "nothing like this"})
	assert.True(t, res.Empty())
}

func TestSearchCombinesWithStatus(t *testing.T) {
	res := Apply(fiveTasks(), Filter{Status: model.StatusPending, Search: "grade"})
	assert.Equal(t, []int64{1}, ids(res.Active))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := fiveTasks()
	Apply(in, Filter{})
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(in))
}

func TestSortIsStableForEqualTimes(t *testing.T) {
	in := []model.Task{
		task(1, model.StatusPending, 1, "a", ""),
		task(2, model.StatusPending, 1, "b", ""),
		task(3, model.StatusPending, 2, "c", ""),
	}
	res := Apply(in, Filter{})
	assert.Equal(t, []int64{3, 1, 2}, ids(res.Active))
}

func TestViewCollapseAndExpand(t *testing.T) {
	v := New(fiveTasks())

	res := v.Result()
	assert.Len(t, res.Active, 3)
	assert.Len(t, res.Completed, 2)
	assert.False(t, v.CompletedExpanded())
	assert.Equal(t, []int64{5, 3, 1}, ids(v.Visible()))

	v.ToggleCompleted()
	assert.Equal(t, []int64{5, 3, 1, 2, 4}, ids(v.Visible()))

	v.SetStatus(model.StatusCompleted)
	assert.Equal(t, []int64{2, 4}, ids(v.Visible()), "no duplicate completed group under a filter")

	v.SetSearch("advising")
	assert.Equal(t, []int64{4}, ids(v.Visible()))

	v.Clear()
	assert.Equal(t, Filter{}, v.Filter())
	assert.Len(t, v.Visible(), 5)
}

func TestViewSetTasksKeepsFilter(t *testing.T) {
	v := New(nil)
	v.SetStatus(model.StatusPending)
	assert.True(t, v.Result().Empty())

	v.SetTasks(fiveTasks())
	assert.Equal(t, []int64{1}, ids(v.Visible()))

	got, ok := v.Find(3)
	require.True(t, ok)
	assert.Equal(t, "Lab safety review", got.Title)
}

func TestParseStatusFilter(t *testing.T) {
	st, err := ParseStatusFilter("all")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatus(""), st)

	st, err = ParseStatusFilter("in progress")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, st)

	_, err = ParseStatusFilter("archived")
	assert.Error(t, err)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "My Tasks", Title(model.RoleFaculty))
	assert.Equal(t, "All Tasks", Title(model.RoleHOD))
	assert.Equal(t, "All Tasks", Title(model.RoleIT))
}

func TestCounts(t *testing.T) {
	c := Counts(fiveTasks())
	assert.Equal(t, 2, c[model.StatusCompleted])
	assert.Equal(t, 1, c[model.StatusPending])
	assert.Equal(t, 0, c[model.StatusOverdue])
}
