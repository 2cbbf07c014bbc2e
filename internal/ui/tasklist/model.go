package tasklist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/taskview"
	"github.com/nhle/facultyflow/internal/theme"
)

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	TaskID int64
}

// statusCycle is the order the status filter steps through.
var statusCycle = append([]model.TaskStatus{""}, model.Statuses...)

// Model is the task list view component.
type Model struct {
	list        list.Model
	view        *taskview.View
	keys        *keys.KeyMap
	role        model.Role
	searchMode  bool
	searchInput textinput.Model
	loading     bool
	err         error
	width       int
	height      int
}

// New creates a new task list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.SetShowTitle(false)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	si := textinput.New()
	si.Placeholder = "search title or description..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		view:        taskview.New(nil),
		keys:        k,
		searchInput: si,
		loading:     true,
		width:       width,
		height:      height,
	}
}

// SetRole sets the viewer's role, which selects the title and whether
// assignees are shown.
func (m *Model) SetRole(r model.Role) {
	m.role = r
	m.refresh()
}

// SetTasks replaces the collection, keeping the current filters.
func (m *Model) SetTasks(tasks []model.Task) {
	m.loading = false
	m.err = nil
	m.view.SetTasks(tasks)
	m.refresh()
}

// SetError records a failed load. The previous tasks stay visible.
func (m *Model) SetError(err error) {
	m.loading = false
	m.err = err
}

// SetLoading marks a load in progress.
func (m *Model) SetLoading(loading bool) { m.loading = loading }

// Tasks returns the unfiltered collection.
func (m Model) Tasks() []model.Task { return m.view.Tasks() }

// Find returns a task from the collection by id.
func (m Model) Find(id int64) (model.Task, bool) { return m.view.Find(id) }

// SetStatus applies a status filter; empty means all.
func (m *Model) SetStatus(s model.TaskStatus) {
	m.view.SetStatus(s)
	m.refresh()
}

// SetSearch applies a search term.
func (m *Model) SetSearch(term string) {
	m.view.SetSearch(term)
	m.refresh()
}

// ClearFilters resets the status filter and search term.
func (m *Model) ClearFilters() {
	m.view.Clear()
	m.searchInput.Reset()
	m.refresh()
}

// ToggleCompleted expands or collapses the completed group.
func (m *Model) ToggleCompleted() {
	m.view.ToggleCompleted()
	m.refresh()
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool { return m.searchMode }

// FilterSummary describes the active filters, or "" when none.
func (m Model) FilterSummary() string {
	f := m.view.Filter()
	var parts []string
	if !f.IsAll() {
		parts = append(parts, "status: "+f.Status.Label())
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		parts = append(parts, fmt.Sprintf("search: %q", s))
	}
	return strings.Join(parts, " | ")
}

// refresh rebuilds the list items from the view.
func (m *Model) refresh() {
	res := m.view.Result()
	showAssignee := m.role != model.RoleFaculty

	items := make([]list.Item, 0, res.Total()+1)
	for _, t := range res.Active {
		items = append(items, TaskItem{Task: t, ShowAssignee: showAssignee})
	}
	if res.Partitioned {
		items = append(items, groupItem{count: len(res.Completed), expanded: m.view.CompletedExpanded()})
		if m.view.CompletedExpanded() {
			for _, t := range res.Completed {
				items = append(items, TaskItem{Task: t, ShowAssignee: showAssignee})
			}
		}
	}
	m.list.SetItems(items)
}

// Init returns the initial command for the list view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode. The filter
// follows the input as it is typed.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		m.SetSearch("")
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.SetSearch(m.searchInput.Value())
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		switch it := m.list.SelectedItem().(type) {
		case TaskItem:
			id := it.Task.ID
			return m, func() tea.Msg { return SelectedTaskMsg{TaskID: id} }
		case groupItem:
			m.ToggleCompleted()
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.view.Filter().Search)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleStatus):
		m.SetStatus(nextStatus(m.view.Filter().Status))
		return m, nil

	case key.Matches(msg, m.keys.ClearFilters):
		m.ClearFilters()
		return m, nil

	case key.Matches(msg, m.keys.ToggleCompleted):
		m.ToggleCompleted()
		return m, nil
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func nextStatus(cur model.TaskStatus) model.TaskStatus {
	for i, s := range statusCycle {
		if s == cur {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return ""
}

// View renders the task list view.
func (m Model) View() string {
	title := theme.TitleStyle.Render(taskview.Title(m.role))
	if summary := m.FilterSummary(); summary != "" {
		title += "  " + theme.DimmedStyle.Render(summary)
	}
	if m.err != nil {
		title += "  " + theme.ErrorStyle.Render(m.err.Error())
	}

	var body string
	switch {
	case m.searchMode:
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Render(m.searchInput.View())
		body = lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	case m.loading && len(m.view.Tasks()) == 0:
		body = m.centered("Loading tasks...")
	case m.view.Result().Empty():
		body = m.renderEmptyState()
	default:
		body = m.list.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, " "+title, body)
}

// renderEmptyState shows guidance text when no tasks are visible.
func (m Model) renderEmptyState() string {
	if m.FilterSummary() != "" {
		return m.centered(taskview.EmptyMessage + "\nPress x to clear filters.")
	}
	return m.centered("No tasks yet.")
}

func (m Model) centered(s string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(s)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}

// SetClock overrides the time used for the overdue marker.
func (m *Model) SetClock(now func() time.Time) {
	m.list.SetDelegate(ItemDelegate{now: now})
}
