package api

import (
	"context"
	"net/url"

	"github.com/nhle/facultyflow/internal/model"
)

func analyticsQuery(f model.AnalyticsFilters, withDepartment bool) string {
	q := url.Values{}
	if f.StartDate != "" {
		q.Set("startDate", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("endDate", f.EndDate)
	}
	if withDepartment && f.Department != "" {
		q.Set("department", f.Department)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// FacultyPerformance fetches the performance summary. Every numeric field
// of the result is finite.
func (c *Client) FacultyPerformance(ctx context.Context, f model.AnalyticsFilters) (model.PerformanceSummary, error) {
	var w wirePerformanceSummary
	if err := c.get(ctx, "/analytics/faculty-performance"+analyticsQuery(f, true), &w); err != nil {
		return model.PerformanceSummary{}, err
	}
	return decodePerformanceSummary(w), nil
}

// TaskTrends fetches the monthly task series. The department filter is
// not supported by this endpoint and is ignored.
func (c *Client) TaskTrends(ctx context.Context, f model.AnalyticsFilters) ([]model.TaskTrend, error) {
	var ws []*wireTaskTrend
	if err := c.get(ctx, "/analytics/task-trends"+analyticsQuery(f, false), &ws); err != nil {
		return nil, err
	}
	return decodeTaskTrends(ws), nil
}
