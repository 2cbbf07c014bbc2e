package analyticsview

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/facultyflow/internal/analytics"
	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/model"
)

type fakeBackend struct {
	summary model.PerformanceSummary
	trends  []model.TaskTrend
	err     error
	got     model.AnalyticsFilters
}

func (f *fakeBackend) FacultyPerformance(_ context.Context, flt model.AnalyticsFilters) (model.PerformanceSummary, error) {
	f.got = flt
	return f.summary, f.err
}

func (f *fakeBackend) TaskTrends(context.Context, model.AnalyticsFilters) ([]model.TaskTrend, error) {
	return f.trends, nil
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func loaded(t *testing.T, b *fakeBackend) Model {
	t.Helper()
	m := New(b, keys.DefaultKeyMap(), 140, 40)
	cmd := m.Load(context.Background())
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m
}

func TestLoadAndRender(t *testing.T) {
	b := &fakeBackend{
		summary: model.PerformanceSummary{
			TotalFaculty:        2,
			TotalTasksAssigned:  4,
			TotalTasksCompleted: 3,
			FacultyPerformances: []model.FacultyPerformance{
				{FacultyID: 1, FacultyName: "Ada", PerformanceScore: 91},
				{FacultyID: 2, FacultyName: "Bob", PerformanceScore: 55},
			},
		},
		trends: []model.TaskTrend{{Month: "2025-01", Assigned: 4, Completed: 3}},
	}
	m := New(b, keys.DefaultKeyMap(), 140, 40)
	m.SetFilters(model.AnalyticsFilters{Department: "CSE"})
	m, _ = m.Update(m.Load(context.Background())())

	assert.Equal(t, "CSE", b.got.Department)
	rep, ok := m.Report()
	require.True(t, ok)
	assert.Equal(t, "75.0", rep.CompletionRate())

	out := m.View()
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "2025-01")
	assert.Contains(t, out, "dept CSE")
	assert.Contains(t, out, "Excellent", "badge of the highest score, which is selected first")
}

func TestLoadError(t *testing.T) {
	m := loaded(t, &fakeBackend{err: errors.New("down")})
	_, ok := m.Report()
	assert.False(t, ok)
	assert.Contains(t, m.View(), "Could not load analytics")
}

func TestEmptyFacultyList(t *testing.T) {
	m := loaded(t, &fakeBackend{})
	assert.Contains(t, m.View(), "No faculty match these filters.")
	assert.Contains(t, m.View(), "0.0%")
}

func TestSortKeys(t *testing.T) {
	m := loaded(t, &fakeBackend{})
	assert.Equal(t, analytics.SortScore, m.sortKey())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, analytics.SortLastActive, m.Sort().Key)
	assert.Equal(t, analytics.Desc, m.Sort().Order)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, analytics.SortName, m.Sort().Key, "wraps to the first column")

	m, _ = m.Update(runes("o"))
	assert.Equal(t, analytics.Asc, m.Sort().Order)
}

func TestFiltersRequest(t *testing.T) {
	m := loaded(t, &fakeBackend{})
	m.SetFilters(model.AnalyticsFilters{StartDate: "2025-01-01"})
	_, cmd := m.Update(runes("F"))
	require.NotNil(t, cmd)
	assert.Equal(t, FiltersRequestMsg{Filters: model.AnalyticsFilters{StartDate: "2025-01-01"}}, cmd())
}

func TestRow(t *testing.T) {
	r := Row(model.FacultyPerformance{
		FacultyEmail:          "x@uni.edu",
		TasksAssigned:         3,
		AverageCompletionTime: 2.24,
		PerformanceScore:      80.456,
		LastActiveDate:        time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, "Unknown", r[0])
	assert.Equal(t, "3", r[3])
	assert.Equal(t, "2.2", r[7])
	assert.Equal(t, "80.46", r[8])
	assert.Equal(t, "Mar 04, 2025", r[9])
}

func TestFilterSummary(t *testing.T) {
	assert.Empty(t, filterSummary(model.AnalyticsFilters{}))
	assert.Equal(t, "2025-01-01 → … · dept EEE", filterSummary(model.AnalyticsFilters{StartDate: "2025-01-01", Department: "EEE"}))
}
