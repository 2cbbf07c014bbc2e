package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/session"
	"github.com/nhle/facultyflow/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	role   model.Role
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// SetRole limits the listed areas to those role may open.
func (m *Model) SetRole(role model.Role) {
	m.role = role
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	parts := []string{title, helpText}
	if areas := m.areas(); areas != "" {
		parts = append(parts, "", theme.LabelStyle.Render("Areas: ")+areas)
	}
	parts = append(parts, "", theme.HelpStyle.Render("Commands: "+strings.Join(commandNames, ", ")))

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}

var commandNames = []string{
	"refresh", "filter <status>", "search <text>", "clear", "completed",
	"new task", "sort <column>", "order", "read", "theme <style>", "logout", "quit",
}

func (m Model) areas() string {
	if m.role == "" {
		return ""
	}
	title := cases.Title(language.English)
	var names []string
	for _, r := range session.Routes(m.role) {
		if r == session.RouteCreateTask {
			continue
		}
		names = append(names, title.String(string(r)))
	}
	return strings.Join(names, " · ")
}
