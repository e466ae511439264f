// Package errorlist shows the session's validation errors. Choosing a row,
// by keyboard or mouse click, asks the app to reveal that line.
package errorlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/reflow/truncate"

	"github.com/zjrosen/yedit/internal/keys"
	"github.com/zjrosen/yedit/internal/session"
	"github.com/zjrosen/yedit/internal/ui/overlay"
	"github.com/zjrosen/yedit/internal/ui/styles"
	"github.com/zjrosen/yedit/internal/validate"
)

const maxVisibleRows = 10

// SelectMsg asks the app to reveal Entry.
type SelectMsg struct {
	Entry session.ErrorEntry
}

// CloseMsg is sent when the list is dismissed without a choice.
type CloseMsg struct{}

// Model is the error list panel.
type Model struct {
	entries []session.ErrorEntry
	keys    keys.List
	cursor  int
	offset  int
	width   int
	height  int
}

// New creates a list over entries.
func New(entries []session.ErrorEntry) Model {
	return Model{
		entries: entries,
		keys:    keys.DefaultList(),
	}
}

// SetEntries replaces the rows, keeping the cursor in range. Markers keep
// arriving while the list is open.
func (m Model) SetEntries(entries []session.ErrorEntry) Model {
	m.entries = entries
	m.cursor = min(m.cursor, max(len(entries)-1, 0))
	return m.scrollToCursor()
}

// SetSize sets the terminal size used for placement.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// Cursor returns the highlighted row.
func (m Model) Cursor() int {
	return m.cursor
}

// Update handles navigation, selection and mouse clicks on rows.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m.scrollToCursor(), nil
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
			return m.scrollToCursor(), nil
		case key.Matches(msg, m.keys.Select):
			return m, m.selectCmd(m.cursor)
		case key.Matches(msg, m.keys.Close):
			return m, func() tea.Msg { return CloseMsg{} }
		}

	case tea.MouseMsg:
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease {
			for i := m.offset; i < min(m.offset+maxVisibleRows, len(m.entries)); i++ {
				if z := zone.Get(rowZoneID(i)); z != nil && z.InBounds(msg) {
					m.cursor = i
					return m, m.selectCmd(i)
				}
			}
		}
		if msg.Button == tea.MouseButtonWheelUp && m.offset > 0 {
			m.offset--
		}
		if msg.Button == tea.MouseButtonWheelDown && m.offset+maxVisibleRows < len(m.entries) {
			m.offset++
		}
	}
	return m, nil
}

func (m Model) selectCmd(i int) tea.Cmd {
	if i < 0 || i >= len(m.entries) {
		return nil
	}
	e := m.entries[i]
	return func() tea.Msg { return SelectMsg{Entry: e} }
}

func (m Model) scrollToCursor() Model {
	if m.cursor >= m.offset+maxVisibleRows {
		m.offset = m.cursor - maxVisibleRows + 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	return m
}

func rowZoneID(i int) string {
	return fmt.Sprintf("errorlist-row-%d", i)
}

func (m Model) boxWidth() int {
	if m.width == 0 {
		return 72
	}
	return max(min(m.width-6, 100), 30)
}

// View renders the panel. Rows are zone-marked; the caller must zone.Scan the
// final frame.
func (m Model) View() string {
	w := m.boxWidth() - 2

	var rows []string
	if len(m.entries) == 0 {
		rows = append(rows, styles.StatusSavedStyle.Render("No errors!"))
	}
	end := min(m.offset+maxVisibleRows, len(m.entries))
	for i := m.offset; i < end; i++ {
		rows = append(rows, zone.Mark(rowZoneID(i), m.renderRow(m.entries[i], i == m.cursor, w)))
	}
	if end < len(m.entries) {
		rows = append(rows, styles.MutedStyle.Render(fmt.Sprintf("↓ %d more", len(m.entries)-end)))
	}

	title := fmt.Sprintf("Errors (%d)", len(m.entries))
	return styles.RenderWithTitleBorder(strings.Join(rows, "\n"), title, w+2, len(rows)+2, true)
}

func (m Model) renderRow(e session.ErrorEntry, selected bool, width int) string {
	indicator := " "
	if selected {
		indicator = styles.SelectionIndicatorStyle.Render(">")
	}
	pos := fmt.Sprintf("%4d:%-3d", e.Line, e.Column+1)
	sev := severityStyle(e.Severity).Render(fmt.Sprintf("%-7s", e.Severity))

	room := max(width-lipgloss.Width(indicator)-lipgloss.Width(pos)-lipgloss.Width(sev)-3, 1)
	msg := strings.ReplaceAll(e.Message, "\n", " ")
	if lipgloss.Width(msg) > room {
		msg = truncate.StringWithTail(msg, uint(room), "…")
	}
	if selected {
		msg = styles.SelectedRowStyle.Render(msg)
	}
	return indicator + " " + styles.MutedStyle.Render(pos) + " " + sev + " " + msg
}

func severityStyle(s validate.Severity) lipgloss.Style {
	switch s {
	case validate.SeverityError:
		return styles.SeverityErrorStyle
	case validate.SeverityWarning:
		return styles.SeverityWarningStyle
	case validate.SeverityInfo:
		return styles.SeverityInfoStyle
	default:
		return styles.SeverityHintStyle
	}
}

// Overlay places the panel near the top of bg.
func (m Model) Overlay(bg string) string {
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Top,
		PadY:     1,
	}, m.View(), bg)
}
