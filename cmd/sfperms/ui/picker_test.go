package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sfperms/internal/generate"
	"sfperms/internal/metadata"
)

func press(t *testing.T, m PickerModel, msg tea.Msg) (PickerModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(PickerModel)
	require.True(t, ok)
	return pm, cmd
}

func TestPickerItems(t *testing.T) {
	m := NewPickerModel(metadata.PermissionSet, []string{"Sales_User", "Support_User"})

	items := m.list.Items()
	require.Len(t, items, 4)

	last := items[3].(choiceItem)
	assert.Equal(t, generate.ModeSummary, last.choice.Mode)
	assert.Equal(t, generate.ModeEach, items[2].(choiceItem).choice.Mode)
	assert.Equal(t, "Sales_User", items[0].(choiceItem).FilterValue())
}

func TestPickerEnterSelectsEntity(t *testing.T) {
	m := NewPickerModel(metadata.PermissionSet, []string{"Sales_User", "Support_User"})

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	c, ok := m.Choice()
	require.True(t, ok)
	assert.Equal(t, Choice{Mode: generate.ModeSingle, Entity: "Support_User"}, c)
	assert.Empty(t, m.View())
}

func TestPickerSummaryChoice(t *testing.T) {
	m := NewPickerModel(metadata.Profile, []string{"Admin"})

	for i := 0; i < 2; i++ {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	c, ok := m.Choice()
	require.True(t, ok)
	assert.Equal(t, generate.ModeSummary, c.Mode)
	assert.Empty(t, c.Entity)
}

func TestPickerEscCancels(t *testing.T) {
	m := NewPickerModel(metadata.PermissionSet, []string{"Sales_User"})

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	_, ok := m.Choice()
	assert.False(t, ok)
	assert.True(t, m.cancelled)
}

func TestPickerView(t *testing.T) {
	m := NewPickerModel(metadata.PermissionSet, []string{"Sales_User"})
	m, _ = press(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	view := m.View()
	assert.True(t, strings.Contains(view, "Sales_User"))
}
