package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
	// ShowAssignee is set for viewers who see other people's tasks.
	ShowAssignee bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{
		i.Task.Status.Label(),
		string(i.Task.Band()),
		relativeTime(i.Task.UpdatedAt, time.Now()),
	}
	return strings.Join(parts, " | ")
}

// groupItem is the collapsible header of the completed group.
type groupItem struct {
	count    int
	expanded bool
}

func (g groupItem) FilterValue() string { return "" }

// ItemDelegate implements list.ItemDelegate for rendering list items.
type ItemDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	isSelected := index == m.Index()

	var line string
	switch it := item.(type) {
	case TaskItem:
		line = d.renderTask(it)
	case groupItem:
		line = renderGroup(it)
	default:
		return
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

func (d ItemDelegate) renderTask(it TaskItem) string {
	t := it.Task
	now := time.Now()
	if d.now != nil {
		now = d.now()
	}

	statusBadge := theme.StatusStyle(t.Status).Render(t.Status.Label())
	priBadge := theme.PriorityStyle(t.Band()).Render(fmt.Sprintf("P%d", t.Priority))

	due := ""
	if !t.DueAt.IsZero() {
		due = theme.DueDateStyle.Render(" due " + t.DueAt.Local().Format("Jan 02"))
	}

	overdue := ""
	if t.IsOverdue(now) {
		overdue = theme.OverdueStyle.Render(" OVERDUE")
	}

	assignee := ""
	if it.ShowAssignee && t.AssignedTo.Name != "" {
		assignee = lipgloss.NewStyle().
			Foreground(theme.ColorMagenta).
			Render(" @" + t.AssignedTo.Name)
	}

	lock := ""
	if t.Locked {
		lock = theme.DimmedStyle.Render(" [locked]")
	}

	updated := theme.DimmedStyle.Render(relativeTime(t.UpdatedAt, now))

	line := fmt.Sprintf("%s %s %s%s%s%s%s  %s",
		statusBadge, priBadge, t.Title, assignee, due, overdue, lock, updated,
	)
	if t.IsCompleted() {
		line = theme.DimmedStyle.Render(line)
	}
	return line
}

func renderGroup(g groupItem) string {
	arrow := "▸"
	if g.expanded {
		arrow = "▾"
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorGreen).
		Render(fmt.Sprintf("%s Completed (%d)", arrow, g.count))
	if g.expanded && g.count == 0 {
		header += "  " + theme.DimmedStyle.Render("No completed tasks yet.")
	}
	return header
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
