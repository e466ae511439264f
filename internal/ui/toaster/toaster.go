// Package toaster provides the transient notification shown for file and
// schema operations.
package toaster

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/yedit/internal/ui/overlay"
	"github.com/zjrosen/yedit/internal/ui/styles"
)

// Level determines the visual appearance of the toast.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
	LevelInfo
	LevelWarn
)

// DefaultDuration is how long a toast stays up before dismissing itself.
const DefaultDuration = 3 * time.Second

// DismissMsg dismisses the toast it was scheduled for. A toast replaced by a
// newer one ignores its stale dismissal.
type DismissMsg struct {
	ID int
}

// Model holds the toaster state.
type Model struct {
	message  string
	level    Level
	visible  bool
	seq      int
	duration time.Duration
}

// New creates a new toaster model.
func New() Model {
	return Model{duration: DefaultDuration}
}

// WithDuration overrides the auto-dismiss delay. Zero disables it.
func (m Model) WithDuration(d time.Duration) Model {
	m.duration = d
	return m
}

// Show displays message and returns the command that dismisses it.
func (m Model) Show(message string, level Level) (Model, tea.Cmd) {
	m.seq++
	m.message = message
	m.level = level
	m.visible = true
	if m.duration <= 0 {
		return m, nil
	}
	id := m.seq
	return m, tea.Tick(m.duration, func(time.Time) tea.Msg {
		return DismissMsg{ID: id}
	})
}

// Update handles DismissMsg.
func (m Model) Update(msg tea.Msg) Model {
	if d, ok := msg.(DismissMsg); ok && d.ID == m.seq {
		return m.Hide()
	}
	return m
}

// Hide dismisses the toast.
func (m Model) Hide() Model {
	m.visible = false
	m.message = ""
	return m
}

// Visible returns whether the toast is currently showing.
func (m Model) Visible() bool {
	return m.visible
}

// Message returns the text of the visible toast.
func (m Model) Message() string {
	return m.message
}

// Level returns the level of the visible toast.
func (m Model) Level() Level {
	return m.level
}

// View renders the toast box.
func (m Model) View() string {
	if !m.visible || m.message == "" {
		return ""
	}

	style := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder())

	var icon string
	switch m.level {
	case LevelError:
		style = style.BorderForeground(styles.StatusErrorColor)
		icon = "✗ "
	case LevelInfo:
		style = style.BorderForeground(styles.StatusInfoColor)
		icon = "i "
	case LevelWarn:
		style = style.BorderForeground(styles.StatusWarningColor)
		icon = "! "
	default:
		style = style.BorderForeground(styles.StatusSuccessColor)
		icon = "✓ "
	}
	return style.Render(icon + m.message)
}

// Overlay renders the toast in the lower right corner of bg.
func (m Model) Overlay(bg string, width, height int) string {
	if !m.visible || m.message == "" {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    width,
		Height:   height,
		Position: overlay.BottomRight,
		PadX:     1,
		PadY:     1,
	}, m.View(), bg)
}
