package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/lifecycle"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/theme"
	"github.com/nhle/facultyflow/internal/ui"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ActionMsg asks the parent to perform a lifecycle action on the task.
type ActionMsg struct {
	Action lifecycle.Action
	Task   model.Task
}

// Model is the task detail view component.
type Model struct {
	detail      *lifecycle.Detail
	viewport    viewport.Model
	keys        *keys.KeyMap
	width       int
	height      int
	loading     bool
	showHistory bool
	busy        lifecycle.Action
	flash       string
	err         error
	now         func() time.Time
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
		now:      time.Now,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.History):
			if m.permits(lifecycle.ActionHistory) {
				m.showHistory = !m.showHistory
				m.render()
			}
			return m, nil

		case key.Matches(msg, m.keys.Start):
			return m, m.request(lifecycle.ActionStart)

		case key.Matches(msg, m.keys.Submit):
			return m, m.request(lifecycle.ActionSubmit)

		case key.Matches(msg, m.keys.Review):
			return m, m.request(lifecycle.ActionReview)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) permits(a lifecycle.Action) bool {
	return m.detail != nil && !m.loading && m.detail.Actions.Has(a)
}

// request emits an ActionMsg when a is permitted and not already running.
func (m Model) request(a lifecycle.Action) tea.Cmd {
	if !m.permits(a) || m.busy != 0 {
		return nil
	}
	task := m.detail.Task
	return func() tea.Msg { return ActionMsg{Action: a, Task: task} }
}

// View renders the detail view.
func (m Model) View() string {
	if m.loading && m.detail == nil {
		return m.centered("Loading task details...")
	}
	if m.detail == nil {
		if m.err != nil {
			return m.centered(theme.ErrorStyle.Render(m.err.Error()))
		}
		return m.centered("No task selected")
	}
	return m.viewport.View()
}

func (m Model) centered(s string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(s)
}

// render rebuilds the viewport content, keeping the scroll position.
func (m *Model) render() {
	m.viewport.SetContent(m.renderContent())
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.detail == nil {
		return ""
	}

	d := m.detail
	task := d.Task
	var sections []string

	sections = append(sections, theme.TitleStyle.Render(task.Title))

	statusBadge := theme.StatusStyle(task.Status).Render(task.Status.Label())
	priBadge := theme.PriorityStyle(task.Band()).Render(
		fmt.Sprintf("%s priority (%d)", task.Band(), task.Priority),
	)
	badges := []string{statusBadge, "  ", priBadge}
	if task.IsOverdue(m.now()) {
		badges = append(badges, "  ", theme.OverdueStyle.Render("OVERDUE"))
	}
	if task.Locked {
		badges = append(badges, "  ", theme.DimmedStyle.Render("locked"))
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, badges...), "")

	sections = append(sections, field("Assigned to", person(task.AssignedTo)))
	sections = append(sections, field("Assigned by", person(task.AssignedBy)))
	if !task.DueAt.IsZero() {
		sections = append(sections, field("Due", task.DueAt.Local().Format("Mon Jan 02, 2006 15:04")))
	}
	if !task.CreatedAt.IsZero() {
		sections = append(sections, field("Created", task.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	if !task.UpdatedAt.IsZero() {
		sections = append(sections, field("Updated", task.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
	for i, l := range task.Links {
		label := ""
		if i == 0 {
			label = "Links"
		}
		sections = append(sections, field(label, l))
	}

	separator := lipgloss.NewStyle().
		Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	sections = append(sections, "", separator, "")

	sections = append(sections, heading("Description"))
	body := ui.RenderMarkdown(task.Description, m.wrapWidth())
	if body == "" {
		body = theme.DimmedStyle.Italic(true).Render("No description")
	}
	sections = append(sections, body)

	if sub, ok := d.Relevant(); ok {
		sections = append(sections, "", separator, "", heading("Submission"))
		sections = append(sections, m.renderSubmission(sub))
	}
	if d.SubmissionsErr != nil {
		sections = append(sections, "", theme.DimmedStyle.Render("Submission history unavailable: "+d.SubmissionsErr.Error()))
	}

	if m.showHistory {
		sections = append(sections, "", separator, "",
			heading(fmt.Sprintf("History (%d)", len(d.Submissions))))
		if len(d.Submissions) == 0 {
			sections = append(sections, theme.DimmedStyle.Render("No submissions yet"))
		}
		for _, s := range lifecycle.SortedSubmissions(d.Submissions) {
			sections = append(sections, m.renderSubmission(s), "")
		}
	}

	if m.flash != "" {
		sections = append(sections, "", theme.SuccessStyle.Render(m.flash))
	}
	if m.err != nil {
		sections = append(sections, "", theme.ErrorStyle.Render(m.err.Error()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderSubmission(s model.Submission) string {
	lines := []string{
		theme.DecisionStyle(s.Decision).Render(string(s.Decision)) + "  " +
			theme.DimmedStyle.Render("submitted "+stamp(s.SubmittedAt)),
	}
	if summary := ui.RenderMarkdown(s.Summary, m.wrapWidth()); summary != "" {
		lines = append(lines, summary)
	}
	for _, l := range s.Links {
		lines = append(lines, "  • "+l)
	}
	if s.ReviewedBy != nil || !s.ReviewedAt.IsZero() {
		by := ""
		if s.ReviewedBy != nil {
			by = " by " + s.ReviewedBy.Name
		}
		lines = append(lines, theme.DimmedStyle.Render("reviewed"+by+" "+stamp(s.ReviewedAt)))
	}
	if s.Note != "" {
		lines = append(lines, field("Note", s.Note))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) wrapWidth() int { return min(m.width-4, 100) }

func heading(s string) string {
	return theme.TitleStyle.MarginBottom(1).Render(s)
}

func field(label, value string) string {
	l := ""
	if label != "" {
		l = label + ":"
	}
	return fmt.Sprintf("%s %s",
		theme.LabelStyle.Width(13).Render(l),
		theme.ValueStyle.Render(value),
	)
}

func person(r model.UserRef) string {
	switch {
	case r.Name == "" && r.Email == "":
		return "—"
	case r.Email == "":
		return r.Name
	default:
		return fmt.Sprintf("%s <%s>", r.Name, r.Email)
	}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

// SetDetail shows d, replacing any previous task.
func (m *Model) SetDetail(d lifecycle.Detail) {
	same := m.detail != nil && m.detail.Task.ID == d.Task.ID
	m.detail = &d
	m.loading = false
	m.busy = 0
	m.err = nil
	m.render()
	if !same {
		m.showHistory = false
		m.flash = ""
		m.viewport.GotoTop()
	}
}

// Detail returns the shown task, if any.
func (m Model) Detail() (lifecycle.Detail, bool) {
	if m.detail == nil {
		return lifecycle.Detail{}, false
	}
	return *m.detail, true
}

// Reset clears the view before a different task is loaded.
func (m *Model) Reset() {
	m.detail = nil
	m.loading = true
	m.busy = 0
	m.flash = ""
	m.err = nil
	m.showHistory = false
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetBusy records the action in flight; zero clears it.
func (m *Model) SetBusy(a lifecycle.Action) {
	m.busy = a
}

// Busy returns the action in flight, or zero.
func (m Model) Busy() lifecycle.Action { return m.busy }

// SetFlash shows a success message below the task.
func (m *Model) SetFlash(s string) {
	m.flash = s
	m.err = nil
	m.render()
}

// SetError shows an error scoped to the current task.
func (m *Model) SetError(err error) {
	m.err = err
	m.loading = false
	m.busy = 0
	m.render()
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.render()
}

// Hints returns the key hints for the actions currently permitted.
func (m Model) Hints() string {
	hints := []string{"esc back"}
	if m.detail == nil {
		return hints[0]
	}
	if m.busy != 0 {
		return fmt.Sprintf("esc back | %s in progress...", m.busy)
	}
	for _, a := range m.detail.Actions.Actions() {
		switch a {
		case lifecycle.ActionStart:
			hints = append(hints, "s start")
		case lifecycle.ActionSubmit:
			hints = append(hints, "u submit")
		case lifecycle.ActionReview:
			hints = append(hints, "v review")
		case lifecycle.ActionHistory:
			hints = append(hints, "h history")
		}
	}
	return strings.Join(append(hints, "j/k scroll"), " | ")
}

// SetClock overrides the time used for the overdue marker.
func (m *Model) SetClock(now func() time.Time) { m.now = now }
