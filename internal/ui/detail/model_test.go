package detail

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/lifecycle"
	"github.com/nhle/facultyflow/internal/model"
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func submitted() lifecycle.Detail {
	task := model.Task{
		ID:         7,
		Title:      "Research report",
		Status:     model.StatusSubmitted,
		Priority:   8,
		AssignedTo: model.UserRef{ID: 1, Name: "Ada Faculty", Email: "ada@uni.edu"},
		DueAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	subs := []model.Submission{
		{ID: 1, TaskID: 7, Summary: "Draftone", Decision: model.DecisionRejected, Note: "Needs citations",
			SubmittedAt: time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)},
		{ID: 2, TaskID: 7, Summary: "Finalcopy", Decision: model.DecisionPending,
			SubmittedAt: time.Date(2024, 12, 5, 9, 0, 0, 0, time.UTC)},
	}
	return lifecycle.Detail{
		Task:        task,
		Submissions: subs,
		Actions:     lifecycle.PermittedActions(model.RoleHOD, lifecycle.StateOf(task, subs)),
	}
}

func newDetail(d lifecycle.Detail) Model {
	m := New(keys.DefaultKeyMap(), 100, 60)
	m.SetClock(func() time.Time { return time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC) })
	m.SetDetail(d)
	return m
}

func TestPermittedActionEmitsMsg(t *testing.T) {
	m := newDetail(submitted())

	_, cmd := m.Update(runes("v"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(ActionMsg)
	require.True(t, ok)
	assert.Equal(t, lifecycle.ActionReview, msg.Action)
	assert.Equal(t, int64(7), msg.Task.ID)
}

func TestForbiddenActionIsIgnored(t *testing.T) {
	m := newDetail(submitted())

	_, cmd := m.Update(runes("s"))
	assert.Nil(t, cmd, "start is not offered on a submitted task")
	_, cmd = m.Update(runes("u"))
	assert.Nil(t, cmd)
}

func TestBusyBlocksSecondRequest(t *testing.T) {
	m := newDetail(submitted())
	m.SetBusy(lifecycle.ActionReview)

	_, cmd := m.Update(runes("v"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.Hints(), "review in progress")
}

func TestRendersRelevantSubmissionAndHistory(t *testing.T) {
	m := newDetail(submitted())

	out := m.renderContent()
	assert.Contains(t, out, "Finalcopy")
	assert.Contains(t, out, "OVERDUE")
	assert.NotContains(t, out, "Draftone")

	m, _ = m.Update(runes("h"))
	assert.Contains(t, m.renderContent(), "Draftone")
	assert.Contains(t, m.renderContent(), "Needs citations")
}

func TestHintsListPermittedActions(t *testing.T) {
	m := newDetail(submitted())
	assert.Equal(t, "esc back | v review | h history | j/k scroll", m.Hints())
}

func TestErrorIsScopedToView(t *testing.T) {
	m := newDetail(submitted())
	m.SetBusy(lifecycle.ActionReview)
	m.SetError(errors.New("Task is not awaiting review"))

	assert.Equal(t, lifecycle.Action(0), m.Busy())
	assert.Contains(t, m.renderContent(), "Task is not awaiting review")
}

func TestBackMsg(t *testing.T) {
	m := newDetail(submitted())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}
