package portfolioview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/portfolio"
	"github.com/nhle/facultyflow/internal/theme"
	"github.com/nhle/facultyflow/internal/ui"
)

// EditRequestMsg asks the app to open the portfolio editor.
type EditRequestMsg struct {
	UserID   int64
	Heading  string
	Existing *model.Portfolio
}

// SavedMsg reports the outcome of a save started with Save.
type SavedMsg struct {
	Portfolio model.Portfolio
	Err       error
}

type loadedMsg struct {
	overview portfolio.Overview
	err      error
}

type deletedMsg struct{ err error }

type mode int

const (
	modeView mode = iota
	modeConfirmDelete
)

type formBindings struct {
	confirm bool
}

// Model shows the viewer's portfolio and, for managers, a read-only
// directory of everyone else's.
type Model struct {
	mode        mode
	svc         *portfolio.Service
	keys        *keys.KeyMap
	viewer      model.User
	overview    *portfolio.Overview
	loading     bool
	err         error
	statusMsg   string
	directory   bool
	selectedIdx int
	viewing     *model.Portfolio
	confirmForm *huh.Form
	fb          *formBindings
	viewport    viewport.Model
	ctx         context.Context
	width       int
	height      int
}

// New creates a portfolio view backed by svc.
func New(svc *portfolio.Service, k *keys.KeyMap, width, height int) Model {
	m := Model{
		svc:      svc,
		keys:     k,
		fb:       &formBindings{},
		viewport: viewport.New(width, height-2),
		ctx:      context.Background(),
	}
	m.SetSize(width, height)
	return m
}

// Load fetches the overview for viewer. Requests made from this view use
// ctx until the next Load.
func (m *Model) Load(ctx context.Context, viewer model.User) tea.Cmd {
	m.ctx = ctx
	m.viewer = viewer
	m.loading = true
	m.err = nil
	m.mode = modeView
	svc := m.svc
	return func() tea.Msg {
		ov, err := svc.Load(ctx, viewer)
		return loadedMsg{overview: ov, err: err}
	}
}

// Save stores in for userID, or for the viewer when userID is zero.
func (m Model) Save(userID int64, in model.PortfolioInput) tea.Cmd {
	svc, ctx, viewer := m.svc, m.ctx, m.viewer
	return func() tea.Msg {
		var p model.Portfolio
		var err error
		if userID == 0 || userID == viewer.ID {
			p, err = svc.SaveMine(ctx, in)
		} else {
			p, err = svc.SaveFor(ctx, viewer, userID, in)
		}
		return SavedMsg{Portfolio: p, Err: err}
	}
}

// Mine returns the viewer's portfolio, nil when none exists.
func (m Model) Mine() *model.Portfolio {
	if m.overview == nil {
		return nil
	}
	return m.overview.Mine
}

// Directory returns the portfolios listed for managers.
func (m Model) Directory() []model.Portfolio {
	if m.overview == nil {
		return nil
	}
	return m.overview.All
}

// Confirming reports whether the delete prompt is open.
func (m Model) Confirming() bool { return m.mode == modeConfirmDelete }

// Update handles messages for the portfolio view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.render()
			return m, nil
		}
		ov := msg.overview
		m.overview = &ov
		if m.selectedIdx >= len(ov.All) {
			m.selectedIdx = max(len(ov.All)-1, 0)
		}
		m.viewing = nil
		m.render()
		return m, nil

	case SavedMsg:
		if msg.Err != nil {
			return m, nil
		}
		m.statusMsg = "Portfolio saved"
		return m, m.Load(m.ctx, m.viewer)

	case deletedMsg:
		m.mode = modeView
		if msg.err != nil {
			m.statusMsg = "Error: " + api.MessageOf(msg.err)
			m.render()
			return m, nil
		}
		m.statusMsg = "Portfolio deleted"
		return m, m.Load(m.ctx, m.viewer)
	}

	if m.mode == modeConfirmDelete {
		return m.updateConfirm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Edit):
			return m, m.editRequest()

		case key.Matches(msg, m.keys.Delete):
			if portfolio.CanEdit(m.viewer, m.Mine()) && m.viewing == nil {
				m.fb.confirm = false
				m.mode = modeConfirmDelete
				m.confirmForm = m.buildConfirmForm()
				return m, m.confirmForm.Init()
			}
			return m, nil

		case key.Matches(msg, m.keys.CycleSort):
			if m.canBrowse() {
				m.directory = !m.directory
				m.render()
			}
			return m, nil

		case key.Matches(msg, m.keys.Back):
			if m.viewing != nil {
				m.viewing = nil
				m.render()
			}
			return m, nil
		}

		if m.directory {
			return m.updateDirectory(msg)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateDirectory(msg tea.KeyMsg) (Model, tea.Cmd) {
	all := m.overview.All
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedIdx < len(all)-1 {
			m.selectedIdx++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
	case key.Matches(msg, m.keys.Select):
		if m.selectedIdx < len(all) {
			p := all[m.selectedIdx]
			m.viewing = &p
			m.directory = false
			m.viewport.GotoTop()
		}
	}
	m.render()
	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		m.mode = modeView
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm {
			return m, m.deleteMine()
		}
		m.mode = modeView
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeView
		return m, nil
	}
	return m, cmd
}

func (m Model) buildConfirmForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete your portfolio?").
				Description("This cannot be undone.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(min(m.width-4, 60))
}

func (m Model) deleteMine() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		return deletedMsg{err: svc.DeleteMine(ctx)}
	}
}

func (m Model) editRequest() tea.Cmd {
	if m.overview == nil || m.viewing != nil || m.loading {
		return nil
	}
	mine := m.overview.Mine
	if mine != nil && !portfolio.CanEdit(m.viewer, mine) {
		return nil
	}
	heading := "Create your portfolio"
	if mine != nil {
		heading = "Edit your portfolio"
	}
	return func() tea.Msg {
		return EditRequestMsg{Heading: heading, Existing: mine}
	}
}

func (m Model) canBrowse() bool {
	return portfolio.CanManage(m.viewer) && m.overview != nil && len(m.overview.All) > 0
}

// View renders the portfolio view.
func (m Model) View() string {
	if m.mode == modeConfirmDelete && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	var parts []string
	if m.statusMsg != "" {
		parts = append(parts, theme.SuccessStyle.Render(m.statusMsg))
	}
	if m.directory {
		parts = append(parts, m.renderDirectory())
	} else {
		parts = append(parts, m.viewport.View())
	}
	return strings.Join(parts, "\n")
}

// render rebuilds the viewport content.
func (m *Model) render() {
	m.viewport.SetContent(m.renderContent())
}

func (m Model) renderContent() string {
	switch {
	case m.err != nil:
		return theme.ErrorStyle.Render("Could not load portfolio: " + api.MessageOf(m.err))
	case m.overview == nil:
		return theme.DimmedStyle.Render("Loading portfolio...")
	case m.viewing != nil:
		return ui.RenderMarkdown(portfolio.Markdown(*m.viewing), m.wrapWidth()) +
			"\n\n" + theme.HelpStyle.Render("Viewing only. esc back")
	}

	var b strings.Builder
	if mine := m.overview.Mine; mine != nil {
		b.WriteString(ui.RenderMarkdown(portfolio.Markdown(*mine), m.wrapWidth()))
		if !mine.UpdatedAt.IsZero() {
			b.WriteString("\n\n" + theme.DimmedStyle.Render("Last updated "+mine.UpdatedAt.Local().Format("Jan 02, 2006 15:04")))
		}
	} else {
		b.WriteString(theme.TitleStyle.Render("You have not created a portfolio yet."))
		b.WriteString("\n" + theme.HelpStyle.Render("Press e to create one."))
	}

	if portfolio.CanManage(m.viewer) {
		b.WriteString("\n\n")
		switch {
		case m.overview.AllErr != nil:
			b.WriteString(theme.ErrorStyle.Render("Could not list portfolios: " + api.MessageOf(m.overview.AllErr)))
		case len(m.overview.All) == 0:
			b.WriteString(theme.DimmedStyle.Render("No faculty portfolios yet."))
		default:
			b.WriteString(theme.LabelStyle.Render(fmt.Sprintf("%d portfolios. tab to browse", len(m.overview.All))))
		}
	}
	return b.String()
}

func (m Model) renderDirectory() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Faculty Portfolios") + "\n\n")
	for i, p := range m.overview.All {
		name := p.UserName
		if name == "" {
			name = fmt.Sprintf("User #%d", p.UserID)
		}
		line := name
		if p.UserDepartment != "" {
			line += " " + theme.DimmedStyle.Render("("+p.UserDepartment+")")
		}
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Hints returns status bar hints for the current state.
func (m Model) Hints() string {
	switch {
	case m.mode == modeConfirmDelete:
		return "enter confirm | esc cancel"
	case m.directory:
		return "j/k move | enter view | tab back"
	case m.viewing != nil:
		return "esc back | j/k scroll"
	}
	hints := []string{"e edit"}
	if m.Mine() == nil {
		hints[0] = "e create"
	} else {
		hints = append(hints, "d delete")
	}
	if m.canBrowse() {
		hints = append(hints, "tab browse")
	}
	return strings.Join(hints, " | ")
}

func (m Model) wrapWidth() int {
	return max(m.width-4, 20)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-2, 1)
	m.render()
}
