// Package app contains the root application model.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/afero"

	"github.com/zjrosen/yedit/internal/editor"
	"github.com/zjrosen/yedit/internal/keys"
	"github.com/zjrosen/yedit/internal/log"
	"github.com/zjrosen/yedit/internal/persistence"
	"github.com/zjrosen/yedit/internal/pubsub"
	"github.com/zjrosen/yedit/internal/schema"
	"github.com/zjrosen/yedit/internal/session"
	"github.com/zjrosen/yedit/internal/templates"
	"github.com/zjrosen/yedit/internal/ui/commandpalette"
	"github.com/zjrosen/yedit/internal/ui/errorlist"
	"github.com/zjrosen/yedit/internal/ui/help"
	"github.com/zjrosen/yedit/internal/ui/pathprompt"
	"github.com/zjrosen/yedit/internal/ui/schemainfo"
	"github.com/zjrosen/yedit/internal/ui/shared/logoverlay"
	"github.com/zjrosen/yedit/internal/ui/statusbar"
	"github.com/zjrosen/yedit/internal/ui/toaster"
	"github.com/zjrosen/yedit/internal/watcher"
)

// Toast texts.
const (
	ToastRead    = "File read successfully!"
	ToastSaved   = "File saved successfully!"
	ToastBusy    = "Another file operation is still running."
	ToastChanged = "%s changed on disk."
)

// Palette item ids. Schema and template items are prefixed with their kind.
const (
	itemOpen       = "open"
	itemSave       = "save"
	itemSaveAs     = "save-as"
	itemErrors     = "errors"
	itemSchemaInfo = "schema-info"
	itemHelp       = "help"
	prefixSchema   = "schema:"
	prefixTemplate = "template:"
)

// Config carries the collaborators the shell drives. Session, Workspace and
// Feed are required.
type Config struct {
	Session   *session.Session
	Workspace *editor.Workspace
	Feed      *session.Feed
	Templates *templates.Catalog

	// Picker receives open/save picks to show as a path prompt. Nil when the
	// bridge never prompts.
	Picker *persistence.PromptPicker
	// Fs and Watcher enable the changed-on-disk warning.
	Fs      afero.Fs
	Watcher *watcher.Watcher
	// Dir prefills save prompts.
	Dir string

	// OpenOnStart runs OpenFile once at startup, normally with a preset path.
	OpenOnStart bool
	Debug       bool
}

type panel int

const (
	panelNone panel = iota
	panelPalette
	panelErrors
	panelSchema
	panelPrompt
	panelHelp
)

type opKind string

const (
	opOpen   opKind = "open"
	opSave   opKind = "save"
	opSaveAs opKind = "save-as"
)

// opDoneMsg reports a finished file operation.
type opDoneMsg struct {
	op  opKind
	err error
}

type pickRequestMsg struct {
	req persistence.PickRequest
}

type fileChangedMsg struct {
	path string
}

// Model is the root application state.
type Model struct {
	cfg    Config
	keys   keys.KeyMap
	ctx    context.Context
	cancel context.CancelFunc

	editor   textarea.Model
	model    *editor.Model
	revision uint64

	panel      panel
	palette    commandpalette.Model
	errorList  errorlist.Model
	schemaInfo schemainfo.Model
	prompt     pathprompt.Model
	help       help.Model

	toaster    toaster.Model
	logOverlay logoverlay.Model

	sessionEvents <-chan pubsub.Event[session.Change]
	logListener   *log.LogListener

	width  int
	height int
}

// New creates the root model and starts the validation feed. Call Close when
// the program exits.
func New(cfg Config) Model {
	ctx, cancel := context.WithCancel(context.Background())

	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Placeholder = ""
	ta.Focus()

	m := Model{
		cfg:           cfg,
		keys:          keys.DefaultKeyMap(),
		ctx:           ctx,
		cancel:        cancel,
		editor:        ta,
		toaster:       toaster.New(),
		help:          help.New(),
		logOverlay:    logoverlay.New(),
		sessionEvents: cfg.Session.Subscribe(ctx),
	}
	if cfg.Debug {
		m.logListener = log.NewListener(ctx)
	}

	go cfg.Feed.Run(ctx)

	m.syncEditor()
	return m
}

// Close stops background listeners and cancels any pending pick.
func (m Model) Close() {
	m.cancel()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.listenSession(), m.listenPicks(), m.listenWatcher()}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	if m.cfg.OpenOnStart {
		cmds = append(cmds, m.runOp(opOpen))
	}
	return tea.Batch(cmds...)
}

func (m Model) listenSession() tea.Cmd {
	return pubsub.ListenCmd(m.ctx, m.sessionEvents)
}

func (m Model) listenPicks() tea.Cmd {
	if m.cfg.Picker == nil {
		return nil
	}
	ctx, requests := m.ctx, m.cfg.Picker.Requests()
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case req := <-requests:
			return pickRequestMsg{req: req}
		}
	}
}

func (m Model) listenWatcher() tea.Cmd {
	if m.cfg.Watcher == nil {
		return nil
	}
	ctx, changes := m.ctx, m.cfg.Watcher.Changes()
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-changes:
			if !ok {
				return nil
			}
			return fileChangedMsg{path: path}
		}
	}
}

// runOp performs a blocking session operation off the update loop.
func (m Model) runOp(op opKind) tea.Cmd {
	s, ctx := m.cfg.Session, m.ctx
	return func() tea.Msg {
		var err error
		switch op {
		case opOpen:
			err = s.OpenFile(ctx)
		case opSave:
			err = s.Save(ctx, false)
		case opSaveAs:
			err = s.Save(ctx, true)
		}
		return opDoneMsg{op: op, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.editor.SetWidth(msg.Width)
		m.editor.SetHeight(max(msg.Height-1, 1))
		m.logOverlay.SetSize(msg.Width, msg.Height)
		m.palette = m.palette.SetSize(msg.Width, msg.Height)
		m.errorList = m.errorList.SetSize(msg.Width, msg.Height)
		m.prompt = m.prompt.SetSize(msg.Width, msg.Height)
		m.help = m.help.SetSize(msg.Width, msg.Height)
		if m.panel == panelSchema {
			m.schemaInfo.SetSize(msg.Width, msg.Height)
		}
		return m, nil

	case pubsub.Event[session.Change]:
		m.syncEditor()
		if m.panel == panelErrors {
			m.errorList = m.errorList.SetEntries(m.cfg.Session.Errors())
		}
		return m, m.listenSession()

	case log.LogEvent:
		m.logOverlay.Append(msg.Payload)
		return m, m.logListener.Listen()

	case pickRequestMsg:
		m.panel = panelPrompt
		m.prompt = pathprompt.New(msg.req, m.cfg.Dir).SetSize(m.width, m.height)
		return m, tea.Batch(m.prompt.Init(), m.listenPicks())

	case pathprompt.DoneMsg:
		if m.panel == panelPrompt {
			m.panel = panelNone
		}
		return m, nil

	case opDoneMsg:
		return m.handleOpDone(msg)

	case fileChangedMsg:
		return m.handleFileChanged(msg)

	case toaster.DismissMsg:
		m.toaster = m.toaster.Update(msg)
		return m, nil

	case logoverlay.CloseMsg:
		return m, nil

	case commandpalette.SelectMsg:
		m.panel = panelNone
		return m.runAction(msg.Item.ID)

	case commandpalette.CancelMsg, errorlist.CloseMsg, schemainfo.CloseMsg:
		m.panel = panelNone
		return m, nil

	case errorlist.SelectMsg:
		m.panel = panelNone
		m.cfg.Session.Reveal(msg.Entry)
		m.syncEditor()
		return m, nil

	case tea.MouseMsg:
		if m.panel == panelErrors {
			var cmd tea.Cmd
			m.errorList, cmd = m.errorList.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Cursor blinks and other ticks go to whichever input is focused.
	var cmd tea.Cmd
	switch m.panel {
	case panelPalette:
		m.palette, cmd = m.palette.Update(msg)
	case panelPrompt:
		m.prompt, cmd = m.prompt.Update(msg)
	default:
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.cfg.Debug && key.Matches(msg, m.keys.DebugLog) && !m.logOverlay.Visible() {
		m.logOverlay.Toggle()
		return m, nil
	}
	if m.logOverlay.Visible() {
		var cmd tea.Cmd
		m.logOverlay, cmd = m.logOverlay.Update(msg)
		return m, cmd
	}

	// Palette and save stay global over every panel except the prompt,
	// which may be answering the save's own pick.
	if m.panel != panelPrompt {
		switch {
		case key.Matches(msg, m.keys.Palette):
			if m.panel == panelPalette {
				m.panel = panelNone
				return m, nil
			}
			return m.openPalette()
		case key.Matches(msg, m.keys.Save):
			return m.runAction(itemSave)
		}
	}

	var cmd tea.Cmd
	switch m.panel {
	case panelPrompt:
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	case panelPalette:
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	case panelErrors:
		if key.Matches(msg, m.keys.Errors) {
			m.panel = panelNone
			return m, nil
		}
		m.errorList, cmd = m.errorList.Update(msg)
		return m, cmd
	case panelSchema:
		m.schemaInfo, cmd = m.schemaInfo.Update(msg)
		return m, cmd
	case panelHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Escape) {
			m.panel = panelNone
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.SaveAs):
		return m.runAction(itemSaveAs)
	case key.Matches(msg, m.keys.Open):
		return m.runAction(itemOpen)
	case key.Matches(msg, m.keys.Errors):
		return m.runAction(itemErrors)
	case key.Matches(msg, m.keys.Schema):
		return m.runAction(itemSchemaInfo)
	case key.Matches(msg, m.keys.Help):
		return m.runAction(itemHelp)
	case key.Matches(msg, m.keys.Escape):
		return m, nil
	}

	// An open or save may have rebound the workspace before its result
	// reached Update; load the new model first so the key edits it.
	m.syncEditor()
	m.editor, cmd = m.editor.Update(msg)
	m.pushEdit()
	return m, cmd
}

// pushEdit forwards typed text to the widget model and the session. Text is
// only pushed while the text area shows the workspace's current model.
func (m *Model) pushEdit() {
	cur := m.cfg.Workspace.Current()
	if cur == nil {
		return
	}
	if cur != m.model {
		m.syncEditor()
		return
	}
	text := m.editor.Value()
	if text == cur.Value() {
		return
	}
	m.cfg.Workspace.SetValue(text)
	m.cfg.Session.Edit(text)
}

// syncEditor reloads the text area when the workspace shows a different
// model, and applies cursor requests.
func (m *Model) syncEditor() {
	ws := m.cfg.Workspace
	rev := ws.Revision()
	if rev == m.revision && ws.Current() == m.model {
		return
	}
	m.revision = rev

	if cur := ws.Current(); cur != m.model {
		m.model = cur
		if cur != nil {
			m.editor.SetValue(cur.Value())
		}
	}
	pos := ws.Cursor()
	moveCursor(&m.editor, pos.Line-1, pos.Column)
}

// moveCursor places the text area cursor on row and column, both 0-based.
func moveCursor(ta *textarea.Model, row, col int) {
	row = min(max(row, 0), max(ta.LineCount()-1, 0))
	for guard := ta.LineCount() * 4; ta.Line() > row && guard > 0; guard-- {
		ta.CursorUp()
	}
	for guard := ta.LineCount() * 4; ta.Line() < row && guard > 0; guard-- {
		ta.CursorDown()
	}
	ta.SetCursor(col)
}

func (m Model) openPalette() (tea.Model, tea.Cmd) {
	snap := m.cfg.Session.Snapshot()

	items := []commandpalette.Item{
		{ID: itemOpen, Name: "Open a file", Hint: "ctrl+o"},
		{ID: itemSave, Name: "Save the current file", Hint: "ctrl+s", Disabled: !snap.HasHandle},
		{ID: itemSaveAs, Name: "Save as new file", Hint: "alt+s"},
		{ID: itemErrors, Name: "Show errors (" + snap.ErrorSummary() + ")", Hint: "ctrl+e"},
		{ID: itemSchemaInfo, Name: "Describe active schema", Hint: "ctrl+g"},
		{ID: itemHelp, Name: "Show keybindings", Hint: "f1"},
	}
	for _, d := range m.cfg.Session.Registry().List() {
		items = append(items, commandpalette.Item{
			ID:       prefixSchema + d.ID,
			Name:     d.DisplayName,
			Group:    "Switch schema",
			Disabled: d.ID == snap.Schema.ID,
		})
	}
	if m.cfg.Templates != nil {
		for _, t := range m.cfg.Templates.List() {
			items = append(items, commandpalette.Item{
				ID:    prefixTemplate + t.ID,
				Name:  t.DisplayName,
				Group: "Load template",
			})
		}
	}

	m.palette = commandpalette.New(commandpalette.Config{
		Title: snap.Title(),
		Items: items,
	}).SetSize(m.width, m.height)
	m.panel = panelPalette
	return m, m.palette.Init()
}

func (m Model) runAction(id string) (tea.Model, tea.Cmd) {
	switch {
	case id == itemOpen:
		m.panel = panelNone
		return m, m.runOp(opOpen)
	case id == itemSave:
		return m, m.runOp(opSave)
	case id == itemSaveAs:
		return m, m.runOp(opSaveAs)
	case id == itemErrors:
		m.errorList = errorlist.New(m.cfg.Session.Errors()).SetSize(m.width, m.height)
		m.panel = panelErrors
		return m, nil
	case id == itemSchemaInfo:
		m.schemaInfo = schemainfo.New(m.cfg.Session.ActiveSchema(), m.width, m.height)
		m.panel = panelSchema
		return m, nil
	case id == itemHelp:
		m.panel = panelHelp
		return m, nil
	case strings.HasPrefix(id, prefixSchema):
		m.panel = panelNone
		err := m.cfg.Session.SwitchSchema(strings.TrimPrefix(id, prefixSchema))
		m.syncEditor()
		return m.report(err)
	case strings.HasPrefix(id, prefixTemplate):
		m.panel = panelNone
		if m.cfg.Templates == nil {
			return m, nil
		}
		t, err := m.cfg.Templates.Get(strings.TrimPrefix(id, prefixTemplate))
		if err == nil {
			err = m.cfg.Session.LoadTemplate(t)
		}
		m.syncEditor()
		return m.report(err)
	}
	log.Warn(log.CatUI, "unknown palette action", "id", id)
	return m, nil
}

func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	m.syncEditor()
	if msg.err != nil {
		return m.report(msg.err)
	}

	if m.cfg.Watcher != nil {
		if fh, ok := m.cfg.Session.Handle().(persistence.FileHandle); ok {
			if err := m.cfg.Watcher.Watch(fh.Path()); err != nil {
				log.Warn(log.CatWatcher, "cannot watch file", "path", fh.Path(), "error", err)
			}
		}
	}

	text := ToastSaved
	if msg.op == opOpen {
		text = ToastRead
	}
	return m.showToast(text, toaster.LevelSuccess)
}

func (m Model) handleFileChanged(msg fileChangedMsg) (tea.Model, tea.Cmd) {
	next := m.listenWatcher()
	if m.cfg.Fs == nil {
		return m, next
	}
	data, err := afero.ReadFile(m.cfg.Fs, msg.path)
	if err != nil {
		log.Warn(log.CatWatcher, "cannot read changed file", "path", msg.path, "error", err)
		return m, next
	}
	// Our own saves land here too; they match the saved text.
	if string(data) == m.cfg.Session.SavedText() {
		return m, next
	}
	m, cmd := m.showToast(fmt.Sprintf(ToastChanged, filepath.Base(msg.path)), toaster.LevelWarn)
	return m, tea.Batch(cmd, next)
}

// report turns a session error into a toast. Cancellation is silent.
func (m Model) report(err error) (Model, tea.Cmd) {
	var ioErr *session.IOError
	switch {
	case err == nil, session.IsCancelled(err):
		return m, nil
	case errors.Is(err, session.ErrBusy):
		return m.showToast(ToastBusy, toaster.LevelWarn)
	case errors.Is(err, schema.ErrSchemaNotFound):
		log.ErrorErr(log.CatSession, "schema lookup failed", err)
		return m.showToast(err.Error(), toaster.LevelError)
	case errors.As(err, &ioErr):
		verb := "read"
		if ioErr.Op == "save" || ioErr.Op == "write" {
			verb = "save"
		}
		return m.showToast(fmt.Sprintf("Could not %s file: %v", verb, ioErr.Err), toaster.LevelError)
	default:
		log.ErrorErr(log.CatUI, "unexpected session error", err)
		return m.showToast(err.Error(), toaster.LevelError)
	}
}

func (m Model) showToast(text string, level toaster.Level) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.toaster, cmd = m.toaster.Show(text, level)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	view := m.editor.View() + "\n" + statusbar.Render(m.cfg.Session.Snapshot(), m.width)

	switch m.panel {
	case panelPalette:
		view = m.palette.Overlay(view)
	case panelErrors:
		view = m.errorList.Overlay(view)
	case panelSchema:
		view = m.schemaInfo.Overlay(view)
	case panelPrompt:
		view = m.prompt.Overlay(view)
	case panelHelp:
		view = m.help.Overlay(view)
	}
	view = m.logOverlay.Overlay(view)
	view = m.toaster.Overlay(view, m.width, m.height)

	return zone.Scan(view)
}
