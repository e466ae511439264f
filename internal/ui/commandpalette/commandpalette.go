// Package commandpalette provides the searchable command list opened with
// Ctrl+J.
package commandpalette

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/yedit/internal/keys"
	"github.com/zjrosen/yedit/internal/ui/overlay"
	"github.com/zjrosen/yedit/internal/ui/styles"
)

// Item is a selectable command.
type Item struct {
	ID       string
	Name     string
	Group    string // shown muted before the name, e.g. "Schema" or "Template"
	Hint     string // right-aligned shortcut hint
	Disabled bool
}

// Config defines command palette configuration.
type Config struct {
	Title           string
	Placeholder     string
	Items           []Item
	Width           int // default 60
	MaxVisibleItems int // default 8
}

// SelectMsg is sent when an enabled item is chosen.
type SelectMsg struct {
	Item Item
}

// CancelMsg is sent when the palette is dismissed.
type CancelMsg struct{}

// Model holds the command palette state.
type Model struct {
	config         Config
	keys           keys.List
	input          textinput.Model
	filtered       []Item
	cursor         int
	offset         int
	viewportWidth  int
	viewportHeight int
}

// New creates a new command palette. The cursor starts on the first enabled
// item.
func New(cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = cfg.Placeholder
	if ti.Placeholder == "" {
		ti.Placeholder = "Type a command..."
	}
	ti.Prompt = ""
	ti.Focus()

	m := Model{
		config:   cfg,
		keys:     keys.DefaultList(),
		input:    ti,
		filtered: cfg.Items,
	}
	m.cursor = m.nextEnabled(-1, 1)
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Down):
			m.cursor = m.nextEnabled(m.cursor, 1)
			m = m.scrollToCursor()
			return m, nil

		case key.Matches(msg, m.keys.Up):
			m.cursor = m.nextEnabled(m.cursor, -1)
			m = m.scrollToCursor()
			return m, nil

		case key.Matches(msg, m.keys.Select):
			return m, m.selectCmd()

		case key.Matches(msg, m.keys.Close):
			return m, func() tea.Msg { return CancelMsg{} }

		case msg.Type == tea.KeyCtrlU:
			m.input.SetValue("")
			return m.refilter(), nil

		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m.refilter(), cmd
		}

	case tea.WindowSizeMsg:
		m.viewportWidth = msg.Width
		m.viewportHeight = msg.Height
	}
	return m, nil
}

// refilter keeps items whose name or group contains the query. Name matches
// sort ahead of group-only matches.
func (m Model) refilter() Model {
	query := strings.ToLower(strings.TrimSpace(m.input.Value()))
	if query == "" {
		m.filtered = m.config.Items
	} else {
		var byName, byGroup []Item
		for _, it := range m.config.Items {
			switch {
			case strings.Contains(strings.ToLower(it.Name), query):
				byName = append(byName, it)
			case strings.Contains(strings.ToLower(it.Group), query):
				byGroup = append(byGroup, it)
			}
		}
		m.filtered = append(byName, byGroup...)
	}
	m.offset = 0
	m.cursor = m.nextEnabled(-1, 1)
	return m
}

// nextEnabled walks from i in direction dir to the next enabled item. It
// returns i unchanged when there is none, or -1 when nothing is selectable.
func (m Model) nextEnabled(i, dir int) int {
	for j := i + dir; j >= 0 && j < len(m.filtered); j += dir {
		if !m.filtered[j].Disabled {
			return j
		}
	}
	if i >= 0 && i < len(m.filtered) && !m.filtered[i].Disabled {
		return i
	}
	return -1
}

func (m Model) maxVisible() int {
	n := m.config.MaxVisibleItems
	if n <= 0 {
		n = 8
	}
	if m.viewportHeight > 0 {
		// border, title, divider, search, divider
		n = min(n, max(m.viewportHeight-6, 1))
	}
	return n
}

func (m Model) scrollToCursor() Model {
	if m.cursor < 0 {
		return m
	}
	visible := m.maxVisible()
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	return m
}

func (m Model) selectCmd() tea.Cmd {
	it, ok := m.Selected()
	if !ok {
		return nil
	}
	return func() tea.Msg { return SelectMsg{Item: it} }
}

// SetSize sets the viewport dimensions for overlay rendering.
func (m Model) SetSize(width, height int) Model {
	m.viewportWidth = width
	m.viewportHeight = height
	return m
}

// Selected returns the highlighted item. Disabled items are never selected.
func (m Model) Selected() (Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) || m.filtered[m.cursor].Disabled {
		return Item{}, false
	}
	return m.filtered[m.cursor], true
}

// FilteredItems returns the items matching the current query.
func (m Model) FilteredItems() []Item {
	return m.filtered
}

// View renders the palette box.
func (m Model) View() string {
	width := m.config.Width
	if width <= 0 {
		width = 60
	}
	if m.viewportWidth > 0 {
		width = min(width, max(m.viewportWidth-4, 20))
	}

	divider := styles.MutedStyle.Render(strings.Repeat("─", width))

	var b strings.Builder
	if m.config.Title != "" {
		title := styles.TitleStyle.Render(" " + m.config.Title)
		hints := styles.MutedStyle.Render("↑/↓ • enter • esc")
		pad := max(width-lipgloss.Width(title)-lipgloss.Width(hints)-1, 1)
		b.WriteString(title + strings.Repeat(" ", pad) + hints + "\n")
		b.WriteString(divider + "\n")
	}

	m.input.Width = width - 4
	b.WriteString(styles.MutedStyle.Render(" > ") + m.input.View() + "\n")
	b.WriteString(divider)

	visible := m.maxVisible()
	if len(m.filtered) == 0 {
		b.WriteString("\n" + styles.MutedStyle.Italic(true).Render(" No matching commands"))
	}
	end := min(m.offset+visible, len(m.filtered))
	for i := m.offset; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderItem(m.filtered[i], i == m.cursor, width))
	}
	if end < len(m.filtered) {
		more := styles.MutedStyle.Render("↓ more")
		b.WriteString("\n" + strings.Repeat(" ", (width-lipgloss.Width(more))/2) + more)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.BorderDefaultColor).
		Width(width).
		Render(b.String())
}

func (m Model) renderItem(it Item, selected bool, width int) string {
	indicator := " "
	if selected {
		indicator = styles.SelectionIndicatorStyle.Render(">")
	}

	label := it.Name
	if it.Group != "" {
		label = it.Group + ": " + it.Name
	}
	hintWidth := lipgloss.Width(it.Hint)
	label = styles.TruncateString(label, max(width-hintWidth-3, 1))

	switch {
	case it.Disabled:
		label = styles.DisabledRowStyle.Render(label)
	case selected:
		label = styles.SelectedRowStyle.Render(label)
	}

	pad := max(width-2-lipgloss.Width(label)-hintWidth, 1)
	return indicator + " " + label + strings.Repeat(" ", pad) + styles.MutedStyle.Render(it.Hint)
}

// Overlay renders the palette near the top of background.
func (m Model) Overlay(background string) string {
	return overlay.Place(overlay.Config{
		Width:    m.viewportWidth,
		Height:   m.viewportHeight,
		Position: overlay.Top,
		PadY:     1,
	}, m.View(), background)
}
