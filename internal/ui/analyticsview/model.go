package analyticsview

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/facultyflow/internal/analytics"
	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/theme"
)

// LoadedMsg carries a fetched report or the error that replaced it.
type LoadedMsg struct {
	Report analytics.Report
	Err    error
}

// FiltersRequestMsg asks the app to open the filter form.
type FiltersRequestMsg struct {
	Filters model.AnalyticsFilters
}

type column struct {
	key   analytics.SortKey
	title string
	width int
}

var columns = []column{
	{analytics.SortName, "Name", 20},
	{analytics.SortEmail, "Email", 22},
	{analytics.SortDepartment, "Dept", 8},
	{analytics.SortAssigned, "Assigned", 8},
	{analytics.SortCompleted, "Done", 6},
	{analytics.SortInProgress, "Active", 6},
	{analytics.SortOverdue, "Overdue", 7},
	{analytics.SortCompletionTime, "Avg days", 8},
	{analytics.SortScore, "Score", 7},
	{analytics.SortLastActive, "Last active", 12},
}

// Model is the analytics screen: summary, trends and the sortable
// performance table.
type Model struct {
	backend analytics.Backend
	keys    *keys.KeyMap
	filters model.AnalyticsFilters
	report  *analytics.Report
	sort    analytics.Table
	table   table.Model
	loading bool
	err     error
	width   int
	height  int
}

// New creates an analytics view reading from backend.
func New(backend analytics.Backend, k *keys.KeyMap, width, height int) Model {
	t := table.New(table.WithFocused(true))
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.Foreground(theme.ColorWhite).Background(theme.ColorBlue)
	t.SetStyles(s)

	m := Model{backend: backend, keys: k, table: t}
	m.SetSize(width, height)
	m.refreshColumns()
	return m
}

// Load fetches the report for the current filters.
func (m *Model) Load(ctx context.Context) tea.Cmd {
	m.loading = true
	m.err = nil
	b, f := m.backend, m.filters
	return func() tea.Msg {
		rep, err := analytics.Fetch(ctx, b, f)
		return LoadedMsg{Report: rep, Err: err}
	}
}

// SetFilters replaces the filters; call Load afterwards.
func (m *Model) SetFilters(f model.AnalyticsFilters) { m.filters = f }

// Filters returns the active filters.
func (m Model) Filters() model.AnalyticsFilters { return m.filters }

// Report returns the loaded report, if any.
func (m Model) Report() (analytics.Report, bool) {
	if m.report == nil {
		return analytics.Report{}, false
	}
	return *m.report, true
}

// Sort returns the table sort state.
func (m Model) Sort() analytics.Table { return m.sort }

// SortBy selects a column; selecting the current one flips direction.
func (m *Model) SortBy(k analytics.SortKey) {
	m.sort.SortBy(k)
	m.refreshColumns()
	m.refreshRows()
}

// CycleSort moves the sort to the next column.
func (m *Model) CycleSort() {
	cur := m.sortKey()
	next := columns[0].key
	for i, c := range columns {
		if c.key == cur {
			next = columns[(i+1)%len(columns)].key
			break
		}
	}
	m.SortBy(next)
}

// ToggleOrder flips the sort direction.
func (m *Model) ToggleOrder() { m.SortBy(m.sortKey()) }

// Update handles messages for the analytics view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		rep := msg.Report
		m.report = &rep
		m.refreshRows()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.CycleSort):
			m.CycleSort()
			return m, nil
		case key.Matches(msg, m.keys.ToggleOrder):
			m.ToggleOrder()
			return m, nil
		case key.Matches(msg, m.keys.Filters):
			f := m.filters
			return m, func() tea.Msg { return FiltersRequestMsg{Filters: f} }
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the analytics screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Performance Analytics"))
	if f := filterSummary(m.filters); f != "" {
		b.WriteString("  " + theme.DimmedStyle.Render(f))
	}
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(theme.ErrorStyle.Render("Could not load analytics: " + api.MessageOf(m.err)))
		b.WriteString("\n" + theme.HelpStyle.Render("r retry | F filters"))
		return b.String()
	case m.report == nil:
		b.WriteString(theme.DimmedStyle.Render("Loading analytics..."))
		return b.String()
	}

	rep := *m.report
	b.WriteString(m.renderCards(rep))
	b.WriteString("\n\n")
	if trends := renderTrends(rep.Trends, m.width); trends != "" {
		b.WriteString(trends)
		b.WriteString("\n")
	}
	if len(rep.Summary.FacultyPerformances) == 0 {
		b.WriteString(theme.DimmedStyle.Render("No faculty match these filters."))
		return b.String()
	}
	b.WriteString(m.table.View())
	if row, ok := m.selected(); ok {
		badge := analytics.BadgeFor(row.PerformanceScore)
		b.WriteString("\n" + theme.LabelStyle.Render(analytics.DisplayName(row)+": ") + theme.BadgeStyle(badge).Render(string(badge)))
	}
	if m.loading {
		b.WriteString("\n" + theme.DimmedStyle.Render("refreshing..."))
	}
	return b.String()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	h := height - 12
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
	m.table.SetWidth(width)
}

func (m Model) sortKey() analytics.SortKey {
	if m.sort.Key == "" {
		return analytics.SortScore
	}
	return m.sort.Key
}

func (m *Model) refreshColumns() {
	cur := m.sortKey()
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		title := c.title
		if c.key == cur {
			if m.sort.Order == analytics.Asc {
				title += " ▲"
			} else {
				title += " ▼"
			}
		}
		cols[i] = table.Column{Title: title, Width: c.width}
	}
	m.table.SetColumns(cols)
}

func (m *Model) refreshRows() {
	if m.report == nil {
		m.table.SetRows(nil)
		return
	}
	sorted := m.sort.Rows(m.report.Summary.FacultyPerformances)
	rows := make([]table.Row, len(sorted))
	for i, r := range sorted {
		rows[i] = Row(r)
	}
	m.table.SetRows(rows)
}

func (m Model) selected() (model.FacultyPerformance, bool) {
	if m.report == nil {
		return model.FacultyPerformance{}, false
	}
	sorted := m.sort.Rows(m.report.Summary.FacultyPerformances)
	i := m.table.Cursor()
	if i < 0 || i >= len(sorted) {
		return model.FacultyPerformance{}, false
	}
	return sorted[i], true
}

// Row renders one performance entry as table cells.
func Row(r model.FacultyPerformance) table.Row {
	return table.Row{
		analytics.DisplayName(r),
		r.FacultyEmail,
		r.Department,
		analytics.FormatCount(r.TasksAssigned),
		analytics.FormatCount(r.TasksCompleted),
		analytics.FormatCount(r.TasksInProgress),
		analytics.FormatCount(r.TasksOverdue),
		analytics.FormatAverage(r.AverageCompletionTime),
		analytics.FormatScore(r.PerformanceScore),
		analytics.FormatDate(r.LastActiveDate),
	}
}

func (m Model) renderCards(rep analytics.Report) string {
	s := rep.Summary
	card := func(label, value string) string {
		return theme.BorderStyle.Padding(0, 1).Render(
			theme.LabelStyle.Render(label) + "\n" + theme.ValueStyle.Bold(true).Render(value),
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Faculty", analytics.FormatCount(s.TotalFaculty)),
		card("Assigned", analytics.FormatCount(s.TotalTasksAssigned)),
		card("Completed", analytics.FormatCount(s.TotalTasksCompleted)),
		card("Completion", rep.CompletionRate()+"%"),
		card("Avg score", analytics.FormatAverage(s.AveragePerformanceScore)),
	)
}

// renderTrends draws one bar line per month scaled to the widest value.
func renderTrends(trends []model.TaskTrend, width int) string {
	if len(trends) == 0 {
		return ""
	}
	maxV := 0.0
	for _, t := range trends {
		maxV = math.Max(maxV, math.Max(t.Assigned, math.Max(t.Completed, t.Overdue)))
	}
	barWidth := width - 40
	if barWidth < 10 {
		barWidth = 10
	}
	bar := func(v float64, c lipgloss.TerminalColor) string {
		n := 0
		if maxV > 0 && v > 0 && !math.IsInf(v, 0) {
			n = int(math.Round(v / maxV * float64(barWidth)))
		}
		return lipgloss.NewStyle().Foreground(c).Render(strings.Repeat("█", n))
	}

	var b strings.Builder
	b.WriteString(theme.LabelStyle.Render("Task trends (assigned / completed / overdue)") + "\n")
	for _, t := range trends {
		fmt.Fprintf(&b, "%-8s %s %s\n", t.Month, bar(t.Assigned, theme.ColorBlue), analytics.FormatCount(t.Assigned))
		fmt.Fprintf(&b, "%-8s %s %s\n", "", bar(t.Completed, theme.ColorGreen), analytics.FormatCount(t.Completed))
		if t.Overdue > 0 {
			fmt.Fprintf(&b, "%-8s %s %s\n", "", bar(t.Overdue, theme.ColorRed), analytics.FormatCount(t.Overdue))
		}
	}
	return b.String()
}

func filterSummary(f model.AnalyticsFilters) string {
	var parts []string
	if f.StartDate != "" || f.EndDate != "" {
		from, to := f.StartDate, f.EndDate
		if from == "" {
			from = "…"
		}
		if to == "" {
			to = "…"
		}
		parts = append(parts, from+" → "+to)
	}
	if f.Department != "" {
		parts = append(parts, "dept "+f.Department)
	}
	return strings.Join(parts, " · ")
}
