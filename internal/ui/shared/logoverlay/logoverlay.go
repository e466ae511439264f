// Package logoverlay provides the debug log viewer toggled with Ctrl+X. It
// tails entries delivered from the log broker.
package logoverlay

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/yedit/internal/log"
	"github.com/zjrosen/yedit/internal/ui/overlay"
	"github.com/zjrosen/yedit/internal/ui/styles"
)

const (
	// MaxEntries bounds the tail kept in memory.
	MaxEntries = 500

	viewportMaxHeight = 20
	viewportMinHeight = 3
	boxMaxWidth       = 140
	boxMinWidth       = 40
)

// CloseMsg is sent when the overlay closes itself.
type CloseMsg struct{}

// Model is the log overlay component state.
type Model struct {
	visible  bool
	minLevel log.Level
	entries  []log.Entry
	width    int
	height   int
	viewport viewport.Model
}

// New creates a hidden log overlay.
func New() Model {
	return Model{minLevel: log.LevelDebug}
}

// Append records a log entry, dropping the oldest beyond MaxEntries.
func (m *Model) Append(entry log.Entry) {
	m.entries = append(m.entries, entry)
	if over := len(m.entries) - MaxEntries; over > 0 {
		m.entries = append([]log.Entry(nil), m.entries[over:]...)
	}
	if m.visible {
		atBottom := m.viewport.AtBottom()
		m.refresh()
		if atBottom {
			m.viewport.GotoBottom()
		}
	}
}

// Entries returns the entries passing the current level filter.
func (m Model) Entries() []log.Entry {
	var out []log.Entry
	for _, e := range m.entries {
		if e.Level >= m.minLevel {
			out = append(out, e)
		}
	}
	return out
}

// MinLevel returns the active filter.
func (m Model) MinLevel() log.Level {
	return m.minLevel
}

// Update handles keys while the overlay is visible.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "c":
			m.entries = nil
			m.refresh()
		case "d":
			m.setLevel(log.LevelDebug)
		case "i":
			m.setLevel(log.LevelInfo)
		case "w":
			m.setLevel(log.LevelWarn)
		case "e":
			m.setLevel(log.LevelError)
		case "up", "k":
			m.viewport.ScrollUp(1)
		case "down", "j":
			m.viewport.ScrollDown(1)
		case "home", "g":
			m.viewport.GotoTop()
		case "end", "G":
			m.viewport.GotoBottom()
		case "ctrl+x", "esc":
			m.visible = false
			return m, func() tea.Msg { return CloseMsg{} }
		}

	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	}
	return m, nil
}

func (m *Model) setLevel(l log.Level) {
	m.minLevel = l
	m.refresh()
	m.viewport.GotoBottom()
}

// Toggle flips visibility.
func (m *Model) Toggle() {
	m.visible = !m.visible
	if m.visible {
		m.refresh()
		m.viewport.GotoBottom()
	}
}

// Visible returns whether the overlay is showing.
func (m Model) Visible() bool {
	return m.visible
}

// SetSize updates the viewport size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.refresh()
}

func (m Model) boxWidth() int {
	return max(min(m.width-4, boxMaxWidth), boxMinWidth)
}

func (m *Model) refresh() {
	if m.width == 0 || m.height == 0 {
		return
	}
	// border, title, two dividers, footer
	h := max(min(viewportMaxHeight, m.height-6), viewportMinHeight)
	w := m.boxWidth() - 2
	m.viewport = viewport.New(w, h)

	entries := m.Entries()
	if len(entries) == 0 {
		m.viewport.SetContent(styles.MutedStyle.Italic(true).Render("No log entries"))
		return
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = colorize(e, w)
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

// View renders the overlay box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	w := m.boxWidth()
	divider := styles.MutedStyle.Render(strings.Repeat("─", w))

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(" Debug log"))
	b.WriteString("\n" + divider + "\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n" + divider + "\n")
	b.WriteString(m.footer())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.BorderDefaultColor).
		Width(w).
		Render(b.String())
}

func (m Model) footer() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor)
	parts := []string{styles.MutedStyle.Render("[c] clear")}
	for _, f := range []struct {
		level log.Level
		label string
	}{
		{log.LevelDebug, "[d] debug"},
		{log.LevelInfo, "[i] info"},
		{log.LevelWarn, "[w] warn"},
		{log.LevelError, "[e] error"},
	} {
		if f.level == m.minLevel {
			parts = append(parts, active.Render(f.label))
		} else {
			parts = append(parts, styles.MutedStyle.Render(f.label))
		}
	}
	return strings.Join(parts, "  ")
}

// Overlay renders the log viewer centered over bg.
func (m Model) Overlay(bg string) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.View(), bg)
}

func colorize(e log.Entry, width int) string {
	line := e.String()
	if ansi.StringWidth(line) > width {
		line = ansi.Truncate(line, width, "...")
	}
	switch e.Level {
	case log.LevelError:
		return styles.SeverityErrorStyle.Render(line)
	case log.LevelWarn:
		return styles.SeverityWarningStyle.Render(line)
	case log.LevelInfo:
		return styles.SeverityInfoStyle.Render(line)
	default:
		return styles.MutedStyle.Render(line)
	}
}
