package forms

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/facultyflow/internal/lifecycle"
	"github.com/nhle/facultyflow/internal/model"
)

func TestEscCancels(t *testing.T) {
	m := New(80, 30)
	m.StartSubmit(model.Task{ID: 7, Title: "Grade"})
	require.True(t, m.Active())
	assert.Equal(t, KindSubmit, m.Kind())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CancelMsg{Kind: KindSubmit}, cmd())
}

func TestIdleFormIgnoresMessages(t *testing.T) {
	m := New(80, 30)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Empty(t, m.View())
}

func TestSetErrorKeepsValues(t *testing.T) {
	m := New(80, 30)
	m.StartLogin("ada@uni.edu")
	m.fb.password = "wrong"

	m.SetError(errors.New("Invalid email or password"))
	assert.True(t, m.Active())
	assert.Equal(t, "ada@uni.edu", m.fb.email)
	assert.Empty(t, m.fb.password, "password is cleared after a failed sign-in")
	assert.Contains(t, m.View(), "Invalid email or password")

	m.SetError(nil)
	assert.Empty(t, m.Err())
}

func TestSubmitResult(t *testing.T) {
	m := New(80, 30)
	m.StartSubmit(model.Task{ID: 7})
	m.fb.summary = "  "
	_, err := m.result()
	assert.EqualError(t, err, lifecycle.MsgEmptySummary)

	m.fb.summary = " Graded all papers "
	m.fb.links = "https://drive.example/a\n\n  https://drive.example/b  "
	out, err := m.result()
	require.NoError(t, err)
	assert.Equal(t, SubmitMsg{TaskID: 7, Input: lifecycle.SubmitInput{
		Summary: "Graded all papers",
		Links:   []string{"https://drive.example/a", "https://drive.example/b"},
	}}, out)
}

func TestReviewRequiresDecision(t *testing.T) {
	m := New(80, 30)
	m.StartReview(model.Task{ID: 3})
	_, err := m.result()
	assert.EqualError(t, err, lifecycle.MsgMissingDecision)

	m.fb.decision = string(model.DecisionRejected)
	m.fb.note = "Missing rubric"
	out, err := m.result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.(ReviewMsg).TaskID)
}

func TestCreateTaskResult(t *testing.T) {
	m := New(80, 30)
	m.SetLocation(time.UTC)
	m.StartCreateTask([]Assignee{{ID: 4, Label: "Ada (#4)"}})
	assert.Equal(t, int64(4), m.fb.assigneeID)
	assert.Equal(t, model.DefaultPriority, m.fb.priority)

	m.fb.title = "Grade finals"
	m.fb.dueDate = "2025-05-01"
	out, err := m.result()
	require.NoError(t, err)
	in := out.(CreateTaskMsg).Input
	assert.Equal(t, int64(4), in.AssignedToUserID)
	assert.Equal(t, time.Date(2025, 5, 1, 23, 59, 0, 0, time.UTC), in.DueAt)

	m.fb.assigneeOther = "12"
	out, err = m.result()
	require.NoError(t, err)
	assert.Equal(t, int64(12), out.(CreateTaskMsg).Input.AssignedToUserID)

	m.fb.assigneeOther = "12abc"
	_, err = m.result()
	assert.Error(t, err)

	m.fb.assigneeOther = ""
	m.fb.dueDate = ""
	_, err = m.result()
	assert.EqualError(t, err, lifecycle.MsgMissingDueDate)
}

func TestCreateTaskWithoutAssignee(t *testing.T) {
	m := New(80, 30)
	m.StartCreateTask(nil)
	m.fb.title = "Grade finals"
	m.fb.dueDate = "2025-05-01"
	_, err := m.result()
	assert.EqualError(t, err, lifecycle.MsgMissingAssignee)
}

func TestPortfolioPrefillAndValidate(t *testing.T) {
	m := New(80, 30)
	m.StartPortfolio(0, "My portfolio", &model.Portfolio{Bio: "Teaches OS", GithubURL: "https://github.com/ada"})
	assert.Equal(t, "Teaches OS", m.fb.bio)

	out, err := m.result()
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/ada", out.(PortfolioMsg).Input.GithubURL)

	m.fb.websiteURL = "ftp://files"
	_, err = m.result()
	assert.Error(t, err)
}

func TestFiltersResult(t *testing.T) {
	m := New(80, 30)
	m.StartFilters(model.AnalyticsFilters{Department: "CSE"})
	m.fb.startDate = "2025-02-01"
	m.fb.endDate = "2025-01-01"
	_, err := m.result()
	assert.Error(t, err)

	m.fb.endDate = ""
	out, err := m.result()
	require.NoError(t, err)
	assert.Equal(t, FiltersMsg{Filters: model.AnalyticsFilters{StartDate: "2025-02-01", Department: "CSE"}}, out)
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateLinks(""))
	assert.Error(t, validateLinks("https://ok.example\nnope"))
	assert.NoError(t, validateOptionalURL(" "))
	assert.Error(t, validateOptionalURL("www.example.com"))
	assert.Error(t, validateOptionalID("-3"))
	assert.NoError(t, validateOptionalDate("2025-01-31"))
	assert.Error(t, validateOptionalDate("31/01/2025"))
}

func TestAssignees(t *testing.T) {
	tasks := []model.Task{
		{AssignedTo: model.UserRef{ID: 2, Name: "bob"}},
		{AssignedTo: model.UserRef{ID: 1, Name: "Ada"}},
		{AssignedTo: model.UserRef{ID: 2, Name: "Bob Again"}},
		{AssignedTo: model.UserRef{}},
	}
	portfolios := []model.Portfolio{{UserID: 9, UserEmail: "zed@uni.edu"}}

	got := Assignees(tasks, portfolios)
	assert.Equal(t, []Assignee{
		{ID: 1, Label: "Ada (#1)"},
		{ID: 2, Label: "bob (#2)"},
		{ID: 9, Label: "zed@uni.edu (#9)"},
	}, got)
}
