package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeLine(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: k})
}

func TestEnterEmitsTrimmedCommand(t *testing.T) {
	m := typeLine(New(80, 24), "  filter pending ")

	m, cmd := press(m, tea.KeyEnter)

	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg("filter pending"), cmd())
	assert.Equal(t, []string{"filter pending"}, m.History())
	assert.Empty(t, m.input.Value())
}

func TestBlankEnterDoesNothing(t *testing.T) {
	_, cmd := press(typeLine(New(80, 24), "   "), tea.KeyEnter)
	assert.Nil(t, cmd)
}

func TestHistoryRecall(t *testing.T) {
	m := New(80, 24)
	for _, line := range []string{"tasks", "sync", "sync"} {
		m = typeLine(m, line)
		m, _ = press(m, tea.KeyEnter)
	}
	assert.Equal(t, []string{"tasks", "sync"}, m.History())

	m = typeLine(m, "sea")
	m, _ = press(m, tea.KeyUp)
	assert.Equal(t, "sync", m.input.Value())
	m, _ = press(m, tea.KeyUp)
	assert.Equal(t, "tasks", m.input.Value())
	m, _ = press(m, tea.KeyUp)
	assert.Equal(t, "tasks", m.input.Value())
	m, _ = press(m, tea.KeyDown)
	m, _ = press(m, tea.KeyDown)
	assert.Equal(t, "sea", m.input.Value())
}

func TestTabCompletes(t *testing.T) {
	m := typeLine(New(80, 24), "ana")
	m, _ = press(m, tea.KeyTab)
	assert.Equal(t, "analytics ", m.input.Value())
	assert.Contains(t, typeLine(New(80, 24), "se").View(), "search")
}
