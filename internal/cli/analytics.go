package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/facultyflow/internal/analytics"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/session"
)

func newAnalyticsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Faculty performance analytics (HOD and ADMIN)",
	}
	cmd.AddCommand(newAnalyticsSummaryCmd(app))
	cmd.AddCommand(newAnalyticsTrendsCmd(app))
	return cmd
}

func addFilterFlags(cmd *cobra.Command, f *model.AnalyticsFilters) {
	cmd.Flags().StringVar(&f.StartDate, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.EndDate, "to", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.Department, "department", "", "Only this department")
}

func newAnalyticsSummaryCmd(app *App) *cobra.Command {
	var (
		filters model.AnalyticsFilters
		sortBy  string
		asc     bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Department totals and the per-faculty performance table",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := analytics.SortScore
			if sortBy != "" {
				k, ok := analytics.ParseSortKey(sortBy)
				if !ok {
					return writeErr(cmd, fmt.Errorf("unknown column %q", sortBy))
				}
				key = k
			}
			order := analytics.Desc
			if asc {
				order = analytics.Asc
			}

			c, _, err := app.require(cmd.Context(), session.RouteAnalytics)
			if err != nil {
				return writeErr(cmd, err)
			}
			r, err := analytics.Fetch(cmd.Context(), c, filters)
			if err != nil {
				return writeErr(cmd, err)
			}
			rows := analytics.SortFaculty(r.Summary.FacultyPerformances, key, order)

			return writeOut(cmd, app, r.Summary, func(w io.Writer) {
				renderFields(w, [][2]string{
					{"Faculty", analytics.FormatCount(r.Summary.TotalFaculty)},
					{"Assigned", analytics.FormatCount(r.Summary.TotalTasksAssigned)},
					{"Completed", analytics.FormatCount(r.Summary.TotalTasksCompleted)},
					{"Completion", r.CompletionRate()},
					{"Avg score", analytics.FormatScore(r.Summary.AveragePerformanceScore)},
				})
				fmt.Fprintln(w)
				renderPerformance(w, rows)
			})
		},
	}

	addFilterFlags(cmd, &filters)
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort column ("+sortKeyList()+")")
	cmd.Flags().BoolVar(&asc, "asc", false, "Sort ascending")
	return cmd
}

func sortKeyList() string {
	names := make([]string, len(analytics.SortKeys))
	for i, k := range analytics.SortKeys {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func renderPerformance(w io.Writer, rows []model.FacultyPerformance) {
	out := make([][]string, 0, len(rows))
	for _, p := range rows {
		out = append(out, []string{
			analytics.DisplayName(p),
			p.Department,
			analytics.FormatCount(p.TasksAssigned),
			analytics.FormatCount(p.TasksCompleted),
			analytics.FormatCount(p.TasksInProgress),
			analytics.FormatCount(p.TasksOverdue),
			analytics.FormatAverage(p.AverageCompletionTime),
			analytics.FormatScore(p.PerformanceScore),
			string(analytics.BadgeFor(p.PerformanceScore)),
			analytics.FormatDate(p.LastActiveDate),
		})
	}
	renderTable(w, []string{"Name", "Dept", "Assigned", "Done", "Active", "Overdue", "Avg days", "Score", "Rating", "Last active"}, out)
}

func newAnalyticsTrendsCmd(app *App) *cobra.Command {
	var filters model.AnalyticsFilters

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Monthly assigned, completed and overdue counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := analytics.ValidateFilters(filters); err != nil {
				return writeErr(cmd, err)
			}
			c, _, err := app.require(cmd.Context(), session.RouteAnalytics)
			if err != nil {
				return writeErr(cmd, err)
			}
			trends, err := c.TaskTrends(cmd.Context(), filters)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, trends, func(w io.Writer) {
				rows := make([][]string, 0, len(trends))
				for _, t := range trends {
					rows = append(rows, []string{
						t.Month,
						analytics.FormatCount(t.Assigned),
						analytics.FormatCount(t.Completed),
						analytics.FormatCount(t.Overdue),
					})
				}
				renderTable(w, []string{"Month", "Assigned", "Completed", "Overdue"}, rows)
			})
		},
	}

	addFilterFlags(cmd, &filters)
	return cmd
}
