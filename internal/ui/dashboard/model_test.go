package dashboard

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/model"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time { return time.Date(2025, 3, d, 12, 0, 0, 0, time.UTC) }

func tasks() []model.Task {
	return []model.Task{
		{ID: 1, Title: "Grade", Status: model.StatusPending, DueAt: day(8)},
		{ID: 2, Title: "Syllabus", Status: model.StatusCompleted, DueAt: day(1)},
		{ID: 3, Title: "Lab", Status: model.StatusInProgress, DueAt: day(12)},
		{ID: 4, Title: "Advising", Status: model.StatusSubmitted},
	}
}

func TestOverdueCountIsDisplayOnly(t *testing.T) {
	ts := tasks()
	assert.Equal(t, 1, OverdueCount(ts, now))
	assert.Equal(t, model.StatusPending, ts[0].Status)
}

func TestDueSoon(t *testing.T) {
	got := DueSoon(tasks(), 5)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)

	assert.Len(t, DueSoon(tasks(), 1), 1)
}

func TestViewSummarizes(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 40)
	m.SetClock(func() time.Time { return now })
	assert.Contains(t, m.View(), "Loading tasks...")

	m.SetUser(model.User{Name: "Ada", Role: model.RoleFaculty})
	m.SetTasks(tasks())
	out := m.View()
	assert.Contains(t, out, "Welcome, Ada")
	assert.Contains(t, out, "My Tasks")
	assert.Contains(t, out, "Past due")
	assert.Contains(t, out, "all caught up")
}

func TestOpenNotification(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 40)
	m.SetTasks(nil)
	m.SetNotifications([]model.Notification{
		{ID: "old", TaskID: 1, Message: "older", CreatedAt: day(1)},
		{ID: "new", TaskID: 2, Message: "newer", CreatedAt: day(2)},
	})
	assert.Equal(t, "new", m.Notifications()[0].ID, "newest first")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, "old", cmd().(OpenNotificationMsg).Notification.ID)

	m.SetNotifications(nil)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
