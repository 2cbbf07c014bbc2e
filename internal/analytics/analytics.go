// Package analytics derives display values from the server-computed
// performance summary and trend series. Inputs are already finite (see
// the api decoders); every function here still guards against NaN and
// infinities so no caller can render one.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/facultyflow/internal/model"
)

// finite returns v, or 0 when v is NaN or infinite.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CompletionRate is completed/assigned as a percentage with one decimal.
// It is "0.0" whenever assigned is not a positive number.
func CompletionRate(completed, assigned float64) string {
	assigned = finite(assigned)
	if assigned <= 0 {
		return "0.0"
	}
	rate := finite(completed) / assigned * 100
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", rate)
}

// SummaryCompletionRate is the completion rate of the whole summary.
func SummaryCompletionRate(s model.PerformanceSummary) string {
	return CompletionRate(s.TotalTasksCompleted, s.TotalTasksAssigned)
}

// FormatAverage renders a summary-level score with one decimal.
func FormatAverage(v float64) string { return fmt.Sprintf("%.1f", finite(v)) }

// FormatScore renders a per-faculty score with two decimals.
func FormatScore(v float64) string { return fmt.Sprintf("%.2f", finite(v)) }

// FormatCount renders a count without a fractional part.
func FormatCount(v float64) string { return fmt.Sprintf("%.0f", finite(v)) }

// FormatDate renders a date as "Jan 02, 2006", or "—" when unknown.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("Jan 02, 2006")
}

// Badge classifies a performance score.
type Badge string

const (
	BadgeExcellent        Badge = "Excellent"
	BadgeGood             Badge = "Good"
	BadgeAverage          Badge = "Average"
	BadgeNeedsImprovement Badge = "Needs Improvement"
)

// BadgeFor returns the badge for score: >=90, >=75, >=60, else needs
// improvement.
func BadgeFor(score float64) Badge {
	switch s := finite(score); {
	case s >= 90:
		return BadgeExcellent
	case s >= 75:
		return BadgeGood
	case s >= 60:
		return BadgeAverage
	default:
		return BadgeNeedsImprovement
	}
}

// Backend is the part of the API client analytics needs.
type Backend interface {
	FacultyPerformance(ctx context.Context, f model.AnalyticsFilters) (model.PerformanceSummary, error)
	TaskTrends(ctx context.Context, f model.AnalyticsFilters) ([]model.TaskTrend, error)
}

// Report is both analytics datasets for one set of filters.
type Report struct {
	Filters model.AnalyticsFilters
	Summary model.PerformanceSummary
	Trends  []model.TaskTrend
}

// CompletionRate is the summary's completion rate.
func (r Report) CompletionRate() string { return SummaryCompletionRate(r.Summary) }

// Fetch loads the summary and the trends concurrently. Either failure
// fails the whole report and cancels the other request.
func Fetch(ctx context.Context, b Backend, f model.AnalyticsFilters) (Report, error) {
	if err := ValidateFilters(f); err != nil {
		return Report{}, err
	}

	var r Report
	r.Filters = f

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := b.FacultyPerformance(gctx, f)
		if err != nil {
			return err
		}
		r.Summary = s
		return nil
	})
	g.Go(func() error {
		t, err := b.TaskTrends(gctx, f)
		if err != nil {
			return err
		}
		r.Trends = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return r, nil
}

// ValidateFilters checks that dates are YYYY-MM-DD and ordered.
func ValidateFilters(f model.AnalyticsFilters) error {
	var start, end time.Time
	var err error
	if f.StartDate != "" {
		if start, err = time.Parse(time.DateOnly, f.StartDate); err != nil {
			return fmt.Errorf("start date %q: expected YYYY-MM-DD", f.StartDate)
		}
	}
	if f.EndDate != "" {
		if end, err = time.Parse(time.DateOnly, f.EndDate); err != nil {
			return fmt.Errorf("end date %q: expected YYYY-MM-DD", f.EndDate)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("end date %s is before start date %s", f.EndDate, f.StartDate)
	}
	return nil
}
