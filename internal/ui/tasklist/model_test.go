package tasklist

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/taskview"
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func sample() []model.Task {
	at := func(min int) time.Time { return time.Date(2025, 3, 1, 12, min, 0, 0, time.UTC) }
	return []model.Task{
		{ID: 1, Title: "Grade midterms", Status: model.StatusPending, UpdatedAt: at(1)},
		{ID: 2, Title: "Submit syllabus", Status: model.StatusCompleted, UpdatedAt: at(5)},
		{ID: 3, Title: "Lab safety review", Status: model.StatusInProgress, UpdatedAt: at(3)},
		{ID: 4, Title: "Advising hours", Status: model.StatusCompleted, UpdatedAt: at(2)},
		{ID: 5, Title: "Research report", Status: model.StatusSubmitted, UpdatedAt: at(4)},
	}
}

func newList(t *testing.T) Model {
	t.Helper()
	m := New(keys.DefaultKeyMap(), 100, 30)
	m.SetRole(model.RoleFaculty)
	m.SetTasks(sample())
	return m
}

func TestCompletedGroupCollapsed(t *testing.T) {
	m := newList(t)

	items := m.list.Items()
	require.Len(t, items, 4, "three active tasks plus the group header")
	g, ok := items[3].(groupItem)
	require.True(t, ok)
	assert.Equal(t, 2, g.count)
	assert.False(t, g.expanded)

	m, _ = m.Update(runes("H"))
	assert.Len(t, m.list.Items(), 6)
}

func TestEnterSelectsTask(t *testing.T) {
	m := newList(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, SelectedTaskMsg{TaskID: 5}, cmd())
}

func TestCycleStatusFilter(t *testing.T) {
	m := newList(t)

	m, _ = m.Update(runes("f"))
	assert.Equal(t, "status: PENDING", m.FilterSummary())
	assert.Len(t, m.list.Items(), 1)

	m, _ = m.Update(runes("x"))
	assert.Equal(t, "", m.FilterSummary())
	assert.Len(t, m.list.Items(), 4)
}

func TestSearchFiltersAsYouType(t *testing.T) {
	m := newList(t)

	m, _ = m.Update(runes("/"))
	require.True(t, m.Searching())
	for _, r := range "lab" {
		m, _ = m.Update(runes(string(r)))
	}
	items := m.list.Items()
	require.Len(t, items, 2, "the lab review plus the completed header")
	assert.Equal(t, int64(3), items[0].(TaskItem).Task.ID)
	g, ok := items[1].(groupItem)
	require.True(t, ok)
	assert.Equal(t, 1, g.count)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Searching())
	assert.Len(t, m.list.Items(), 4)
}

func TestCompletedHeaderShownWithoutCompletedMatches(t *testing.T) {
	m := newList(t)
	m.SetSearch("grade")

	items := m.list.Items()
	require.Len(t, items, 2)
	g, ok := items[1].(groupItem)
	require.True(t, ok)
	assert.Equal(t, 0, g.count)

	m.ToggleCompleted()
	assert.Len(t, m.list.Items(), 2)
	assert.Contains(t, m.View(), "No completed tasks yet.")
}

func TestEmptyStateMessage(t *testing.T) {
	m := newList(t)
	m.SetSearch("nothing like this")

	assert.Contains(t, m.View(), taskview.EmptyMessage)
}

func TestTitleByRole(t *testing.T) {
	m := newList(t)
	assert.Contains(t, m.View(), "My Tasks")

	m.SetRole(model.RoleHOD)
	assert.Contains(t, m.View(), "All Tasks")
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "", relativeTime(time.Time{}, now))
	assert.Equal(t, "just now", relativeTime(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", relativeTime(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", relativeTime(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", relativeTime(now.Add(-48*time.Hour), now))
	assert.Equal(t, "2w ago", relativeTime(now.Add(-15*24*time.Hour), now))
}
