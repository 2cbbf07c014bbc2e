package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/taskview"
	"github.com/nhle/facultyflow/internal/theme"
)

// OpenNotificationMsg is sent when the user opens a notification.
type OpenNotificationMsg struct {
	Notification model.Notification
}

// dueSoonLimit caps the upcoming deadlines list.
const dueSoonLimit = 5

// Model is the landing screen: task counts, upcoming deadlines and
// unread notifications.
type Model struct {
	keys          *keys.KeyMap
	user          model.User
	tasks         []model.Task
	loaded        bool
	notifications []model.Notification
	selectedIdx   int
	now           func() time.Time
	width         int
	height        int
}

// New creates a dashboard model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, now: time.Now, width: width, height: height}
}

// SetUser sets the signed-in user.
func (m *Model) SetUser(u model.User) { m.user = u }

// SetTasks replaces the tasks the counts are computed from.
func (m *Model) SetTasks(tasks []model.Task) {
	m.tasks = tasks
	m.loaded = true
}

// SetNotifications replaces the unread notifications, newest first.
func (m *Model) SetNotifications(ns []model.Notification) {
	m.notifications = append([]model.Notification(nil), ns...)
	sort.SliceStable(m.notifications, func(i, j int) bool {
		return m.notifications[i].CreatedAt.After(m.notifications[j].CreatedAt)
	})
	if m.selectedIdx >= len(m.notifications) {
		m.selectedIdx = max(len(m.notifications)-1, 0)
	}
}

// Notifications returns the unread notifications shown.
func (m Model) Notifications() []model.Notification { return m.notifications }

// SetClock replaces the time source used for overdue checks.
func (m *Model) SetClock(now func() time.Time) { m.now = now }

// Update handles messages for the dashboard.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, m.keys.Down):
		if m.selectedIdx < len(m.notifications)-1 {
			m.selectedIdx++
		}
	case key.Matches(km, m.keys.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
	case key.Matches(km, m.keys.Select):
		if m.selectedIdx < len(m.notifications) {
			n := m.notifications[m.selectedIdx]
			return m, func() tea.Msg { return OpenNotificationMsg{Notification: n} }
		}
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	greeting := "Welcome"
	if m.user.Name != "" {
		greeting += ", " + m.user.Name
	}
	b.WriteString(theme.TitleStyle.Render(greeting))
	if m.user.Role != "" {
		b.WriteString(" " + theme.DimmedStyle.Render("("+string(m.user.Role)+")"))
	}
	b.WriteString("\n\n")

	if !m.loaded {
		b.WriteString(theme.DimmedStyle.Render("Loading tasks..."))
		return b.String()
	}

	b.WriteString(m.renderCounts())
	b.WriteString("\n\n")
	b.WriteString(m.renderDueSoon())
	b.WriteString("\n")
	b.WriteString(m.renderNotifications())
	return b.String()
}

func (m Model) renderCounts() string {
	counts := taskview.Counts(m.tasks)
	tiles := []string{tile(taskview.Title(m.user.Role), fmt.Sprint(len(m.tasks)), theme.ValueStyle)}
	for _, st := range model.Statuses {
		tiles = append(tiles, tile(st.Label(), fmt.Sprint(counts[st]), theme.StatusStyle(st)))
	}
	if n := OverdueCount(m.tasks, m.now()); n > 0 {
		tiles = append(tiles, tile("Past due", fmt.Sprint(n), theme.OverdueStyle))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tiles...)
}

func tile(label, value string, style lipgloss.Style) string {
	return theme.BorderStyle.Padding(0, 1).Render(
		theme.LabelStyle.Render(label) + "\n" + style.Render(value),
	)
}

func (m Model) renderDueSoon() string {
	var b strings.Builder
	b.WriteString(theme.LabelStyle.Render("Upcoming deadlines") + "\n")
	upcoming := DueSoon(m.tasks, dueSoonLimit)
	if len(upcoming) == 0 {
		b.WriteString(theme.DimmedStyle.Render("  Nothing due.") + "\n")
		return b.String()
	}
	now := m.now()
	for _, t := range upcoming {
		due := t.DueAt.Local().Format("Jan 02 15:04")
		style := theme.DueDateStyle
		if t.IsOverdue(now) {
			style = theme.OverdueStyle
		}
		fmt.Fprintf(&b, "  %s %s  %s\n", style.Render(due), t.Title, theme.StatusStyle(t.Status).Render(t.Status.Label()))
	}
	return b.String()
}

func (m Model) renderNotifications() string {
	var b strings.Builder
	b.WriteString(theme.LabelStyle.Render(fmt.Sprintf("Notifications (%d unread)", len(m.notifications))) + "\n")
	if len(m.notifications) == 0 {
		b.WriteString(theme.DimmedStyle.Render("  You're all caught up."))
		return b.String()
	}
	for i, n := range m.notifications {
		line := n.Message + " " + theme.DimmedStyle.Render(n.CreatedAt.Local().Format("Jan 02 15:04"))
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Hints returns status bar hints.
func (m Model) Hints() string {
	if len(m.notifications) > 0 {
		return "j/k move | enter open | 2 tasks | ? help"
	}
	return "2 tasks | r refresh | ? help | q quit"
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// OverdueCount counts tasks past their due date that are not completed.
func OverdueCount(tasks []model.Task, now time.Time) int {
	n := 0
	for _, t := range tasks {
		if t.IsOverdue(now) {
			n++
		}
	}
	return n
}

// DueSoon returns up to limit incomplete tasks with a due date, earliest
// first.
func DueSoon(tasks []model.Task, limit int) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if !t.IsCompleted() && !t.DueAt.IsZero() {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
