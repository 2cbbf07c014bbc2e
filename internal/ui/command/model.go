package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/facultyflow/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

const maxHistory = 20

// Model is the ":" palette. It keeps the entries run this session so up
// and down can recall them, and tab completes the verb.
type Model struct {
	input   textinput.Model
	history []string
	// recall indexes history while browsing; len(history) means the
	// line being typed.
	recall int
	draft  string
	width  int
}

func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "tasks, filter pending, search grading, sort facultyName..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6
	return Model{input: ti, width: width}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "enter":
		line := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		m.draft = ""
		if line == "" {
			m.recall = len(m.history)
			return m, nil
		}
		m.remember(line)
		return m, func() tea.Msg { return CommandMsg(line) }

	case "up":
		if m.recall > 0 {
			if m.recall == len(m.history) {
				m.draft = m.input.Value()
			}
			m.recall--
			m.setLine(m.history[m.recall])
		}
		return m, nil

	case "down":
		if m.recall < len(m.history) {
			m.recall++
			if m.recall == len(m.history) {
				m.setLine(m.draft)
			} else {
				m.setLine(m.history[m.recall])
			}
		}
		return m, nil

	case "tab":
		if s := Suggest(m.input.Value()); len(s) > 0 {
			m.setLine(s[0] + " ")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// remember appends line, dropping an identical previous entry.
func (m *Model) remember(line string) {
	if n := len(m.history); n > 0 && m.history[n-1] == line {
		m.recall = n
		return
	}
	m.history = append(m.history, line)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.recall = len(m.history)
}

func (m *Model) setLine(s string) {
	m.input.SetValue(s)
	m.input.CursorEnd()
}

// History returns past entries, oldest first.
func (m Model) History() []string { return m.history }

func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Command")

	parts := []string{title, m.input.View()}
	if s := Suggest(m.input.Value()); len(s) > 0 {
		if len(s) > 6 {
			s = s[:6]
		}
		parts = append(parts, theme.DimmedStyle.Render("tab: "+strings.Join(s, "  ")))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input and starts a fresh line.
func (m *Model) Focus() tea.Cmd {
	m.input.Reset()
	m.draft = ""
	m.recall = len(m.history)
	return m.input.Focus()
}
