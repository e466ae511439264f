// Package schemainfo shows the active schema's property reference, rendered
// from markdown with glamour.
package schemainfo

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/zjrosen/yedit/internal/schema"
	"github.com/zjrosen/yedit/internal/ui/overlay"
	"github.com/zjrosen/yedit/internal/ui/styles"
)

// noMarginStyle removes glamour's document margins so the text lines up with
// the box border.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// CloseMsg is sent when the panel is dismissed.
type CloseMsg struct{}

// Render converts markdown to styled terminal output wrapped at width. The
// dark style is fixed; auto-detection queries the terminal and leaks the reply
// into the input stream.
func Render(markdown string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

// Model is the schema info panel.
type Model struct {
	desc     schema.Descriptor
	viewport viewport.Model
	width    int
	height   int
}

// New builds the panel for desc sized to the terminal.
func New(desc schema.Descriptor, width, height int) Model {
	m := Model{desc: desc}
	m.SetSize(width, height)
	return m
}

// Descriptor returns the schema being shown.
func (m Model) Descriptor() schema.Descriptor {
	return m.desc
}

// SetSize re-renders the content for the new terminal size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	w := max(min(width-6, 100), 20)
	h := max(min(height-4, 30), 3)
	m.viewport = viewport.New(w, h)

	content, err := Render(m.desc.Markdown(), w)
	if err != nil {
		content = styles.SeverityErrorStyle.Render("rendering schema: " + err.Error())
	}
	m.viewport.SetContent(content)
}

// Update scrolls the panel and closes it on esc.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+g", "q":
			return m, func() tea.Msg { return CloseMsg{} }
		}
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the bordered panel.
func (m Model) View() string {
	title := "Schema: " + m.desc.DisplayName
	return styles.RenderWithTitleBorder(
		m.viewport.View(), title,
		m.viewport.Width+2, m.viewport.Height+2, true,
	)
}

// Overlay centers the panel over bg.
func (m Model) Overlay(bg string) string {
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.View(), bg)
}
