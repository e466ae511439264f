// Package help contains the keybindings overlay.
package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/yedit/internal/keys"
	"github.com/zjrosen/yedit/internal/ui/overlay"
	"github.com/zjrosen/yedit/internal/ui/styles"
)

// Footer is shown under the binding columns.
const Footer = "Press F1 or Esc to close"

// sections names the groups of keys.KeyMap.FullHelp, in order.
var sections = []string{"File", "Panels", "General"}

// Model holds the help view state.
type Model struct {
	keys   keys.KeyMap
	list   keys.List
	width  int
	height int
}

// New creates the help view for the default bindings.
func New() Model {
	return Model{
		keys: keys.DefaultKeyMap(),
		list: keys.DefaultList(),
	}
}

// SetSize updates dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// View renders the help box centered in an empty screen.
func (m Model) View() string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderContent())
}

// Overlay renders the help box on top of a background view.
func (m Model) Overlay(background string) string {
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.renderContent(), background)
}

func (m Model) renderContent() string {
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor)
	columnStyle := lipgloss.NewStyle().MarginRight(4)

	var cols []string
	for i, group := range m.keys.FullHelp() {
		var col strings.Builder
		col.WriteString(sectionStyle.Render(sections[i]))
		col.WriteString("\n")
		for _, b := range group {
			col.WriteString(renderBinding(b))
		}
		cols = append(cols, columnStyle.Render(col.String()))
	}

	var lists strings.Builder
	lists.WriteString(sectionStyle.Render("Lists"))
	lists.WriteString("\n")
	lists.WriteString(renderKeyDesc("↑/↓", "move"))
	lists.WriteString(renderBinding(m.list.Select))
	lists.WriteString(renderKeyDesc("click", "reveal error"))
	cols = append(cols, lists.String())

	columns := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	footer := styles.MutedStyle.MarginTop(1).Render(Footer)
	body := lipgloss.NewStyle().Padding(0, 1).Render(columns + "\n" + footer)

	return styles.RenderWithTitleBorder(body, "Keybindings",
		lipgloss.Width(body)+2, lipgloss.Height(body)+2, true)
}

func renderBinding(b key.Binding) string {
	h := b.Help()
	return renderKeyDesc(h.Key, h.Desc)
}

func renderKeyDesc(k, desc string) string {
	keyStyle := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).Width(9)
	return keyStyle.Render(k) + lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Render(desc) + "\n"
}
