package toaster

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New()

	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
}

func TestShow(t *testing.T) {
	m, cmd := New().Show("File saved successfully!", LevelSuccess)

	require.NotNil(t, cmd)
	assert.True(t, m.Visible())
	assert.Equal(t, LevelSuccess, m.Level())
	assert.Contains(t, m.View(), "File saved successfully!")
	assert.Contains(t, m.View(), "✓")
}

func TestShow_Levels(t *testing.T) {
	tests := []struct {
		level Level
		icon  string
	}{
		{LevelSuccess, "✓"},
		{LevelError, "✗"},
		{LevelInfo, "i "},
		{LevelWarn, "!"},
	}
	for _, tt := range tests {
		m, _ := New().Show("msg", tt.level)
		assert.Contains(t, m.View(), tt.icon)
	}
}

func TestDismiss_IgnoresStaleID(t *testing.T) {
	m, _ := New().Show("first", LevelInfo)
	m, _ = m.Show("second", LevelError)

	m = m.Update(DismissMsg{ID: 1})
	assert.True(t, m.Visible(), "dismissal scheduled for the replaced toast must not hide the new one")
	assert.Equal(t, "second", m.Message())

	m = m.Update(DismissMsg{ID: 2})
	assert.False(t, m.Visible())
}

func TestDismissCommand_CarriesID(t *testing.T) {
	m, cmd := New().WithDuration(time.Millisecond).Show("hello", LevelInfo)
	msg := cmd()

	d, ok := msg.(DismissMsg)
	require.True(t, ok)
	assert.False(t, m.Update(d).Visible())
}

func TestShow_ZeroDurationHasNoCommand(t *testing.T) {
	m, cmd := New().WithDuration(0).Show("sticky", LevelWarn)
	assert.Nil(t, cmd)
	assert.True(t, m.Visible())
}

func TestOverlay(t *testing.T) {
	bg := strings.TrimSuffix(strings.Repeat(strings.Repeat(".", 40)+"\n", 10), "\n")

	hidden := New()
	assert.Equal(t, bg, hidden.Overlay(bg, 40, 10))

	m, _ := New().Show("Saved", LevelSuccess)
	out := m.Overlay(bg, 40, 10)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 10)
	assert.Contains(t, lines[7], "Saved")
	assert.True(t, strings.HasPrefix(lines[0], "...."))
}
