// Package pathprompt is the terminal stand-in for the host file pickers. It
// answers one persistence.PickRequest with a typed path.
package pathprompt

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/yedit/internal/keys"
	"github.com/zjrosen/yedit/internal/persistence"
	"github.com/zjrosen/yedit/internal/ui/overlay"
	"github.com/zjrosen/yedit/internal/ui/styles"
)

// DoneMsg is sent once the request has been answered either way.
type DoneMsg struct {
	Path      string
	Cancelled bool
}

// Model holds one pending pick.
type Model struct {
	req    persistence.PickRequest
	keys   keys.Prompt
	input  textinput.Model
	errMsg string
	width  int
	height int
}

// New creates a prompt for req. Save picks are prefilled with the suggested
// name inside dir.
func New(req persistence.PickRequest, dir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "path/to/file.yaml"
	ti.CharLimit = 4096
	if req.Mode == persistence.PickSave && req.Suggested != "" {
		ti.SetValue(filepath.Join(dir, req.Suggested))
	}
	ti.Focus()

	return Model{req: req, keys: keys.DefaultPrompt(), input: ti}
}

// Request returns the pending pick.
func (m Model) Request() persistence.PickRequest {
	return m.req
}

// Value returns the typed path.
func (m Model) Value() string {
	return m.input.Value()
}

// Err returns the inline validation message, if any.
func (m Model) Err() string {
	return m.errMsg
}

// SetSize sets the terminal size.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles typing, confirm and cancel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, m.keys.Submit):
			return m.submit()
		case key.Matches(k, m.keys.Cancel):
			m.req.Cancel()
			return m, func() tea.Msg { return DoneMsg{Cancelled: true} }
		}
		m.errMsg = ""
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	path := strings.TrimSpace(m.input.Value())
	if path == "" {
		m.errMsg = "Enter a file path."
		return m, nil
	}
	// Save picks get the extension appended by the bridge.
	if m.req.Mode == persistence.PickOpen && !m.req.Filter.Accepts(path) {
		m.errMsg = m.req.Filter.Description + " only: " + strings.Join(m.req.Filter.Extensions, ", ")
		return m, nil
	}
	m.req.Resolve(path)
	return m, func() tea.Msg { return DoneMsg{Path: path} }
}

// View renders the prompt box.
func (m Model) View() string {
	title := "Open file"
	if m.req.Mode == persistence.PickSave {
		title = "Save as"
	}
	w := 60
	if m.width > 0 {
		w = max(min(m.width-6, 80), 30)
	}
	m.input.Width = w - 4

	lines := []string{
		m.input.View(),
		styles.MutedStyle.Render(m.req.Filter.Description + " (" + strings.Join(m.req.Filter.Extensions, ", ") + ")  enter confirm • esc cancel"),
	}
	if m.errMsg != "" {
		lines = append(lines, styles.SeverityErrorStyle.Render(m.errMsg))
	}
	return styles.RenderWithTitleBorder(strings.Join(lines, "\n"), title, w, len(lines)+2, true)
}

// Overlay centers the prompt over bg.
func (m Model) Overlay(bg string) string {
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.View(), bg)
}
