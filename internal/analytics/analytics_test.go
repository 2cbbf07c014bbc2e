package analytics_test

import (
	"context"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/facultyflow/internal/analytics"
	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/apitest"
	"github.com/nhle/facultyflow/internal/credential"
	"github.com/nhle/facultyflow/internal/model"
)

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		completed, assigned float64
		want                string
	}{
		{0, 0, "0.0"},
		{5, 0, "0.0"},
		{3, -1, "0.0"},
		{1, math.NaN(), "0.0"},
		{1, math.Inf(1), "0.0"},
		{math.NaN(), 4, "0.0"},
		{1, 3, "33.3"},
		{2, 3, "66.7"},
		{4, 4, "100.0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, analytics.CompletionRate(tt.completed, tt.assigned), "%v/%v", tt.completed, tt.assigned)
	}

	zero := model.PerformanceSummary{TotalTasksAssigned: 0, TotalTasksCompleted: 0}
	assert.Equal(t, "0.0", analytics.SummaryCompletionRate(zero))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "82.5", analytics.FormatAverage(82.46))
	assert.Equal(t, "0.0", analytics.FormatAverage(math.NaN()))
	assert.Equal(t, "82.46", analytics.FormatScore(82.456))
	assert.Equal(t, "0.00", analytics.FormatScore(math.Inf(-1)))
	assert.Equal(t, "12", analytics.FormatCount(12))
	assert.Equal(t, "—", analytics.FormatDate(time.Time{}))
	assert.Equal(t, "Mar 04, 2025", analytics.FormatDate(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)))
}

func TestBadgeFor(t *testing.T) {
	assert.Equal(t, analytics.BadgeExcellent, analytics.BadgeFor(90))
	assert.Equal(t, analytics.BadgeGood, analytics.BadgeFor(89.99))
	assert.Equal(t, analytics.BadgeGood, analytics.BadgeFor(75))
	assert.Equal(t, analytics.BadgeAverage, analytics.BadgeFor(60))
	assert.Equal(t, analytics.BadgeNeedsImprovement, analytics.BadgeFor(59.9))
	assert.Equal(t, analytics.BadgeNeedsImprovement, analytics.BadgeFor(math.NaN()))
}

func rows() []model.FacultyPerformance {
	return []model.FacultyPerformance{
		{FacultyID: 1, FacultyName: "bob", Department: "EEE", PerformanceScore: 70, LastActiveDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{FacultyID: 2, FacultyName: "Alice", Department: "", PerformanceScore: 95},
		{FacultyID: 3, FacultyName: "", Department: "CSE", PerformanceScore: 70, LastActiveDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{FacultyID: 4, FacultyName: "Émile", Department: "CE", PerformanceScore: 40},
	}
}

func facultyIDs(rs []model.FacultyPerformance) []int64 {
	out := make([]int64, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.FacultyID)
	}
	return out
}

func TestSortFacultyNumbers(t *testing.T) {
	assert.Equal(t, []int64{2, 1, 3, 4}, facultyIDs(analytics.SortFaculty(rows(), analytics.SortScore, analytics.Desc)))
	assert.Equal(t, []int64{4, 1, 3, 2}, facultyIDs(analytics.SortFaculty(rows(), analytics.SortScore, analytics.Asc)))
}

func TestSortFacultyStrings(t *testing.T) {
	assert.Equal(t, []int64{2, 1, 4, 3}, facultyIDs(analytics.SortFaculty(rows(), analytics.SortName, analytics.Asc)))
	assert.Equal(t, []int64{3, 4, 1, 2}, facultyIDs(analytics.SortFaculty(rows(), analytics.SortName, analytics.Desc)))
}

func TestSortFacultyMissingValues(t *testing.T) {
	tests := []struct {
		key   analytics.SortKey
		order analytics.Order
		want  []int64
	}{
		{analytics.SortDepartment, analytics.Asc, []int64{4, 3, 1, 2}},
		{analytics.SortDepartment, analytics.Desc, []int64{2, 1, 3, 4}},
		{analytics.SortLastActive, analytics.Asc, []int64{1, 3, 2, 4}},
		{analytics.SortLastActive, analytics.Desc, []int64{2, 4, 3, 1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key)+" "+tt.order.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, facultyIDs(analytics.SortFaculty(rows(), tt.key, tt.order)))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "bob", analytics.DisplayName(model.FacultyPerformance{FacultyName: " bob "}))
	assert.Equal(t, analytics.UnknownName, analytics.DisplayName(model.FacultyPerformance{}))
}

func TestTableToggle(t *testing.T) {
	var tbl analytics.Table
	assert.Equal(t, []int64{2, 1, 3, 4}, facultyIDs(tbl.Rows(rows())), "defaults to score desc")

	tbl.SortBy(analytics.SortScore)
	assert.Equal(t, analytics.Asc, tbl.Order)

	tbl.SortBy(analytics.SortName)
	assert.Equal(t, analytics.SortName, tbl.Key)
	assert.Equal(t, analytics.Desc, tbl.Order)

	tbl.SortBy(analytics.SortName)
	assert.Equal(t, analytics.Asc, tbl.Order)
}

func TestParseSortKey(t *testing.T) {
	k, ok := analytics.ParseSortKey("PERFORMANCESCORE")
	assert.True(t, ok)
	assert.Equal(t, analytics.SortScore, k)

	_, ok = analytics.ParseSortKey("salary")
	assert.False(t, ok)
}

func TestValidateFilters(t *testing.T) {
	assert.NoError(t, analytics.ValidateFilters(model.AnalyticsFilters{}))
	assert.NoError(t, analytics.ValidateFilters(model.AnalyticsFilters{StartDate: "2025-01-01", EndDate: "2025-01-31"}))
	assert.Error(t, analytics.ValidateFilters(model.AnalyticsFilters{StartDate: "01/01/2025"}))
	assert.Error(t, analytics.ValidateFilters(model.AnalyticsFilters{StartDate: "2025-02-01", EndDate: "2025-01-01"}))
}

func newBackend(t *testing.T) (*api.Client, *apitest.Server) {
	t.Helper()
	hod := model.User{ID: 2, Name: "Hal Head", Email: "hal@uni.edu", Role: model.RoleHOD}
	srv := apitest.New(t)
	srv.AddUser(hod, "secret")
	tokens := credential.NewMemoryStore()
	require.NoError(t, tokens.Set(credential.TokenKey, srv.Token(t, hod.ID)))
	return api.NewClient(srv.URL(), tokens), srv
}

func TestFetchLoadsBothDatasets(t *testing.T) {
	client, srv := newBackend(t)
	srv.SetAnalytics(model.PerformanceSummary{
		TotalFaculty:        2,
		TotalTasksAssigned:  0,
		TotalTasksCompleted: 0,
		FacultyPerformances: rows()[:2],
	}, []model.TaskTrend{{Month: "2025-01", Assigned: 4, Completed: 3}})

	rep, err := analytics.Fetch(context.Background(), client, model.AnalyticsFilters{Department: "CSE"})
	require.NoError(t, err)
	assert.Equal(t, "0.0", rep.CompletionRate())
	assert.Len(t, rep.Summary.FacultyPerformances, 2)
	require.Len(t, rep.Trends, 1)
	assert.Equal(t, "2025-01", rep.Trends[0].Month)
}

func TestFetchFailsAsAWhole(t *testing.T) {
	client, srv := newBackend(t)
	srv.Respond(http.MethodGet, "/analytics/task-trends", http.StatusInternalServerError, `{"error":"trends unavailable"}`)

	_, err := analytics.Fetch(context.Background(), client, model.AnalyticsFilters{})
	require.Error(t, err)
	assert.Equal(t, "trends unavailable", api.MessageOf(err))
}
