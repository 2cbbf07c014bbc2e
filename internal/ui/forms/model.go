package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/facultyflow/internal/analytics"
	"github.com/nhle/facultyflow/internal/lifecycle"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/portfolio"
	"github.com/nhle/facultyflow/internal/theme"
)

// Kind identifies which form is open.
type Kind int

const (
	KindNone Kind = iota
	KindLogin
	KindSubmit
	KindReview
	KindPortfolio
	KindCreateTask
	KindFilters
)

// LoginMsg carries the credentials entered on the sign-in form.
type LoginMsg struct {
	Email    string
	Password string
}

// SubmitMsg is dispatched when the work submission form is completed.
type SubmitMsg struct {
	TaskID int64
	Input  lifecycle.SubmitInput
}

// ReviewMsg is dispatched when the review form is completed.
type ReviewMsg struct {
	TaskID int64
	Input  lifecycle.ReviewInput
}

// PortfolioMsg is dispatched when the portfolio editor is completed.
// UserID is zero when editing the viewer's own portfolio.
type PortfolioMsg struct {
	UserID int64
	Input  model.PortfolioInput
}

// CreateTaskMsg is dispatched with a validated new task.
type CreateTaskMsg struct {
	Input model.TaskCreate
}

// FiltersMsg is dispatched with validated analytics filters.
type FiltersMsg struct {
	Filters model.AnalyticsFilters
}

// CancelMsg is dispatched when the user leaves a form without saving.
type CancelMsg struct {
	Kind Kind
}

// Assignee is a selectable task assignee.
type Assignee struct {
	ID    int64
	Label string
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	password string

	summary string
	links   string

	decision string
	note     string

	bio               string
	researchInterests string
	achievements      string
	education         string
	experience        string
	websiteURL        string
	linkedinURL       string
	githubURL         string
	twitterURL        string

	title         string
	description   string
	dueDate       string
	priority      int
	assigneeID    int64
	assigneeOther string

	startDate  string
	endDate    string
	department string
}

// Model is the Bubble Tea model shared by every input form.
type Model struct {
	form      *huh.Form
	fb        *formBindings
	kind      Kind
	heading   string
	taskID    int64
	userID    int64
	assignees []Assignee
	err       string
	loc       *time.Location
	width     int
	height    int
}

// New creates an idle form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		loc:    time.Local,
		width:  width,
		height: height,
	}
}

// SetLocation sets the zone used to read due dates.
func (m *Model) SetLocation(loc *time.Location) {
	if loc != nil {
		m.loc = loc
	}
}

// Kind returns the open form, or KindNone.
func (m Model) Kind() Kind { return m.kind }

// Active reports whether a form is open.
func (m Model) Active() bool { return m.form != nil }

// Err returns the message shown above the form.
func (m Model) Err() string { return m.err }

// Reset closes the form and clears its values.
func (m *Model) Reset() {
	m.form = nil
	m.kind = KindNone
	m.err = ""
	m.fb = &formBindings{}
}

// StartLogin opens the sign-in form, prefilled with email.
func (m *Model) StartLogin(email string) tea.Cmd {
	m.open(KindLogin, "Sign in")
	m.fb.email = email
	return m.build()
}

// StartSubmit opens the work submission form for task.
func (m *Model) StartSubmit(task model.Task) tea.Cmd {
	m.open(KindSubmit, "Submit work: "+task.Title)
	m.taskID = task.ID
	return m.build()
}

// StartReview opens the review form for the pending submission of task.
func (m *Model) StartReview(task model.Task) tea.Cmd {
	m.open(KindReview, "Review: "+task.Title)
	m.taskID = task.ID
	return m.build()
}

// StartPortfolio opens the portfolio editor. userID is zero for the
// viewer's own portfolio; existing may be nil.
func (m *Model) StartPortfolio(userID int64, heading string, existing *model.Portfolio) tea.Cmd {
	m.open(KindPortfolio, heading)
	m.userID = userID
	if existing != nil {
		in := existing.Input()
		m.fb.bio = in.Bio
		m.fb.researchInterests = in.ResearchInterests
		m.fb.achievements = in.Achievements
		m.fb.education = in.Education
		m.fb.experience = in.Experience
		m.fb.websiteURL = in.WebsiteURL
		m.fb.linkedinURL = in.LinkedinURL
		m.fb.githubURL = in.GithubURL
		m.fb.twitterURL = in.TwitterURL
	}
	return m.build()
}

// StartCreateTask opens the new task form with assignees to choose from.
func (m *Model) StartCreateTask(assignees []Assignee) tea.Cmd {
	m.open(KindCreateTask, "New Task")
	m.assignees = assignees
	m.fb.priority = model.DefaultPriority
	if len(assignees) > 0 {
		m.fb.assigneeID = assignees[0].ID
	}
	return m.build()
}

// StartFilters opens the analytics filter form prefilled with f.
func (m *Model) StartFilters(f model.AnalyticsFilters) tea.Cmd {
	m.open(KindFilters, "Analytics filters")
	m.fb.startDate = f.StartDate
	m.fb.endDate = f.EndDate
	m.fb.department = f.Department
	return m.build()
}

// SetError shows err above the form and reopens it with the values
// already entered.
func (m *Model) SetError(err error) tea.Cmd {
	if err == nil {
		m.err = ""
		return nil
	}
	m.err = err.Error()
	if m.kind == KindNone {
		return nil
	}
	if m.kind == KindLogin {
		m.fb.password = ""
	}
	return m.build()
}

func (m *Model) open(k Kind, heading string) {
	m.fb = &formBindings{}
	m.kind = k
	m.heading = heading
	m.err = ""
	m.taskID = 0
	m.userID = 0
	m.assignees = nil
}

func (m *Model) build() tea.Cmd {
	var groups []*huh.Group
	switch m.kind {
	case KindLogin:
		groups = m.loginGroups()
	case KindSubmit:
		groups = m.submitGroups()
	case KindReview:
		groups = m.reviewGroups()
	case KindPortfolio:
		groups = m.portfolioGroups()
	case KindCreateTask:
		groups = m.createTaskGroups()
	case KindFilters:
		groups = m.filterGroups()
	default:
		return nil
	}
	m.form = huh.NewForm(groups...).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
	return m.form.Init()
}

// Update handles messages for the open form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		kind := m.kind
		return m, func() tea.Msg { return CancelMsg{Kind: kind} }
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		out, err := m.result()
		if err != nil {
			return m, m.SetError(err)
		}
		m.err = ""
		return m, func() tea.Msg { return out }
	}
	if m.form.State == huh.StateAborted {
		kind := m.kind
		return m, func() tea.Msg { return CancelMsg{Kind: kind} }
	}

	return m, cmd
}

// View renders the open form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(m.heading) + "\n"
	if m.err != "" {
		content += theme.ErrorStyle.Render(m.err) + "\n\n"
	}
	content += m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth()).WithHeight(m.formHeight())
	}
}

func (m *Model) loginGroups() []*huh.Group {
	return []*huh.Group{huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Placeholder("you@university.edu").
			Value(&m.fb.email).
			Validate(validateRequired("Please enter your email")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(validateRequired("Please enter your password")),
	)}
}

func (m *Model) submitGroups() []*huh.Group {
	return []*huh.Group{huh.NewGroup(
		huh.NewText().
			Title("Summary").
			Placeholder("What did you do?").
			Value(&m.fb.summary).
			Validate(validateRequired(lifecycle.MsgEmptySummary)),
		huh.NewText().
			Title("Links").
			Description("One URL per line (optional)").
			Lines(3).
			Value(&m.fb.links).
			Validate(validateLinks),
	)}
}

func (m *Model) reviewGroups() []*huh.Group {
	return []*huh.Group{huh.NewGroup(
		huh.NewSelect[string]().
			Title("Decision").
			Options(
				huh.NewOption("Choose...", ""),
				huh.NewOption("Approve", string(model.DecisionApproved)),
				huh.NewOption("Reject", string(model.DecisionRejected)),
			).
			Value(&m.fb.decision).
			Validate(validateRequired(lifecycle.MsgMissingDecision)),
		huh.NewText().
			Title("Note").
			Placeholder("Optional feedback for the submitter").
			Value(&m.fb.note),
	)}
}

func (m *Model) portfolioGroups() []*huh.Group {
	long := func(title string, v *string) huh.Field {
		return huh.NewText().
			Title(title).
			CharLimit(model.MaxLongTextLen).
			Lines(3).
			Value(v)
	}
	short := func(title string, v *string) huh.Field {
		return huh.NewText().
			Title(title).
			CharLimit(model.MaxShortTextLen).
			Lines(2).
			Value(v)
	}
	url := func(title string, v *string) huh.Field {
		return huh.NewInput().
			Title(title).
			Placeholder("https://").
			CharLimit(model.MaxShortTextLen).
			Value(v).
			Validate(validateOptionalURL)
	}
	return []*huh.Group{
		huh.NewGroup(
			long("Bio", &m.fb.bio),
			short("Research interests", &m.fb.researchInterests),
			long("Achievements", &m.fb.achievements),
		),
		huh.NewGroup(
			long("Education", &m.fb.education),
			long("Experience", &m.fb.experience),
		),
		huh.NewGroup(
			url("Website", &m.fb.websiteURL),
			url("LinkedIn", &m.fb.linkedinURL),
			url("GitHub", &m.fb.githubURL),
			url("Twitter", &m.fb.twitterURL),
		),
	}
}

func (m *Model) createTaskGroups() []*huh.Group {
	prio := make([]huh.Option[int], 0, lifecycle.MaxTaskPriority)
	for p := lifecycle.MinTaskPriority; p <= lifecycle.MaxTaskPriority; p++ {
		prio = append(prio, huh.NewOption(fmt.Sprintf("%d - %s", p, model.BandForPriority(p)), p))
	}

	people := make([]huh.Option[int64], 0, len(m.assignees)+1)
	for _, a := range m.assignees {
		people = append(people, huh.NewOption(a.Label, a.ID))
	}
	people = append(people, huh.NewOption("Someone else (enter user ID)", int64(0)))

	return []*huh.Group{
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&m.fb.title).
				Validate(validateRequired(lifecycle.MsgEmptyTitle)),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				Value(&m.fb.description),
			huh.NewInput().
				Title("Due").
				Placeholder("YYYY-MM-DD or YYYY-MM-DD HH:MM").
				Value(&m.fb.dueDate).
				Validate(m.validateDueDate),
			huh.NewSelect[int]().
				Title("Priority").
				Options(prio...).
				Value(&m.fb.priority),
		),
		huh.NewGroup(
			huh.NewSelect[int64]().
				Title("Assign to").
				Options(people...).
				Value(&m.fb.assigneeID),
			huh.NewInput().
				Title("User ID").
				Description("Only when assigning to someone not listed").
				Value(&m.fb.assigneeOther).
				Validate(validateOptionalID),
			huh.NewText().
				Title("Links").
				Description("One URL per line (optional)").
				Lines(3).
				Value(&m.fb.links).
				Validate(validateLinks),
		),
	}
}

func (m *Model) filterGroups() []*huh.Group {
	return []*huh.Group{huh.NewGroup(
		huh.NewInput().
			Title("From").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.startDate).
			Validate(validateOptionalDate),
		huh.NewInput().
			Title("To").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.endDate).
			Validate(validateOptionalDate),
		huh.NewInput().
			Title("Department").
			Placeholder("All departments").
			Value(&m.fb.department),
	)}
}

// result turns the completed form into its message.
func (m Model) result() (tea.Msg, error) {
	switch m.kind {
	case KindLogin:
		return LoginMsg{Email: strings.TrimSpace(m.fb.email), Password: m.fb.password}, nil
	case KindSubmit:
		in := lifecycle.SubmitInput{Summary: m.fb.summary, Links: splitLines(m.fb.links)}.Normalize()
		if err := in.Validate(); err != nil {
			return nil, err
		}
		return SubmitMsg{TaskID: m.taskID, Input: in}, nil
	case KindReview:
		in := lifecycle.ReviewInput{Decision: m.fb.decision, Note: m.fb.note}
		if _, _, err := in.Parse(); err != nil {
			return nil, err
		}
		return ReviewMsg{TaskID: m.taskID, Input: in}, nil
	case KindPortfolio:
		in := portfolio.Normalize(m.fb.portfolioInput())
		if err := portfolio.Validate(in); err != nil {
			return nil, err
		}
		return PortfolioMsg{UserID: m.userID, Input: in}, nil
	case KindCreateTask:
		in, err := m.fb.taskCreate(m.loc)
		if err != nil {
			return nil, err
		}
		return CreateTaskMsg{Input: in}, nil
	case KindFilters:
		f := model.AnalyticsFilters{
			StartDate:  strings.TrimSpace(m.fb.startDate),
			EndDate:    strings.TrimSpace(m.fb.endDate),
			Department: strings.TrimSpace(m.fb.department),
		}
		if err := analytics.ValidateFilters(f); err != nil {
			return nil, err
		}
		return FiltersMsg{Filters: f}, nil
	}
	return nil, errors.New("no form is open")
}

func (fb *formBindings) portfolioInput() model.PortfolioInput {
	return model.PortfolioInput{
		Bio:               fb.bio,
		ResearchInterests: fb.researchInterests,
		Achievements:      fb.achievements,
		Education:         fb.education,
		Experience:        fb.experience,
		WebsiteURL:        fb.websiteURL,
		LinkedinURL:       fb.linkedinURL,
		GithubURL:         fb.githubURL,
		TwitterURL:        fb.twitterURL,
	}
}

func (fb *formBindings) taskCreate(loc *time.Location) (model.TaskCreate, error) {
	in := model.TaskCreate{
		Title:            fb.title,
		Description:      fb.description,
		Priority:         fb.priority,
		AssignedToUserID: fb.assigneeID,
		Links:            splitLines(fb.links),
	}
	if other := strings.TrimSpace(fb.assigneeOther); other != "" {
		id, err := strconv.ParseInt(other, 10, 64)
		if err != nil || id <= 0 {
			return in, errors.New("User ID must be a positive number")
		}
		in.AssignedToUserID = id
	}
	if strings.TrimSpace(fb.dueDate) != "" {
		due, err := lifecycle.ParseDueDate(fb.dueDate, loc)
		if err != nil {
			return in, err
		}
		in.DueAt = due
	}
	return lifecycle.ValidateTaskCreate(in)
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}

func (m Model) validateDueDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New(lifecycle.MsgMissingDueDate)
	}
	_, err := lifecycle.ParseDueDate(s, m.loc)
	return err
}

func validateRequired(msg string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	}
}

func validateLinks(s string) error {
	for _, l := range splitLines(s) {
		if !lifecycle.IsHTTPURL(l) {
			return fmt.Errorf("%q must start with http:// or https://", l)
		}
	}
	return nil
}

func validateOptionalURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || lifecycle.IsHTTPURL(s) {
		return nil
	}
	return errors.New("must start with http:// or https://")
}

func validateOptionalID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if id, err := strconv.ParseInt(s, 10, 64); err != nil || id <= 0 {
		return errors.New("enter a numeric user ID")
	}
	return nil
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return errors.New("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

// splitLines returns the non-blank trimmed lines of s.
func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
