package editor

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/zjrosen/yedit/internal/log"
	"github.com/zjrosen/yedit/internal/pubsub"
	"github.com/zjrosen/yedit/internal/validate"
)

// Position is a 1-based line and 0-based column.
type Position struct {
	Line   int
	Column int
}

// Workspace is the in-memory model store. It schedules validation for every
// content change of a live model and forwards marker changes from the
// validator.
type Workspace struct {
	validator Validator

	mu         sync.Mutex
	models     map[URI]*Model
	current    *Model
	generation uint64
	cursor     Position
	reveal     int
	revision   uint64
}

var (
	_ Widget       = (*Workspace)(nil)
	_ MarkerSource = (*Workspace)(nil)
)

// NewWorkspace creates an empty workspace validated by v.
func NewWorkspace(v Validator) *Workspace {
	return &Workspace{
		validator: v,
		models:    make(map[URI]*Model),
		cursor:    Position{Line: 1},
	}
}

// CreateModel registers a new model at uri and schedules its validation.
// A live model already registered at uri is disposed first.
func (w *Workspace) CreateModel(content string, uri URI) *Model {
	w.mu.Lock()
	old := w.models[uri]
	w.generation++
	m := &Model{
		id:         uuid.NewString(),
		uri:        uri,
		generation: w.generation,
		value:      content,
	}
	w.models[uri] = m
	w.mu.Unlock()

	if old != nil {
		log.Warn(log.CatUI, "model replaced without dispose", "uri", string(uri), "generation", old.generation)
		w.release(old)
	}

	log.Debug(log.CatUI, "model created", "uri", string(uri), "generation", m.generation, "model", m.id)
	w.schedule(m)
	return m
}

// SetModel makes m the displayed model.
func (w *Workspace) SetModel(m *Model) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = m
	w.cursor = Position{Line: 1}
	w.reveal = 0
	w.revision++
}

// DisposeModel releases m and drops its markers.
func (w *Workspace) DisposeModel(m *Model) {
	if m == nil {
		return
	}
	w.mu.Lock()
	if w.models[m.uri] == m {
		delete(w.models, m.uri)
	}
	if w.current == m {
		w.current = nil
		w.revision++
	}
	w.mu.Unlock()
	w.release(m)
}

func (w *Workspace) release(m *Model) {
	if !m.dispose() {
		return
	}
	w.validator.Forget(string(m.uri), m.generation)
	log.Debug(log.CatUI, "model disposed", "uri", string(m.uri), "generation", m.generation, "model", m.id)
}

// RevealLine asks the view to scroll line into sight.
func (w *Workspace) RevealLine(line int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reveal = max(line, 1)
	w.revision++
}

// SetCursorPosition moves the cursor of the displayed model.
func (w *Workspace) SetCursorPosition(line, column int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cursor = Position{Line: max(line, 1), Column: max(column, 0)}
	w.revision++
}

// SetValue replaces the content of the displayed model, as typing does, and
// schedules validation. It reports false when no live model is displayed.
func (w *Workspace) SetValue(content string) bool {
	w.mu.Lock()
	m := w.current
	w.mu.Unlock()
	if m == nil || !m.setValue(content) {
		return false
	}
	w.schedule(m)
	return true
}

func (w *Workspace) schedule(m *Model) {
	w.validator.Schedule(validate.Document{
		URI:        string(m.uri),
		Generation: m.generation,
		Content:    m.Value(),
	})
}

// Current returns the displayed model, or nil.
func (w *Workspace) Current() *Model {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Cursor returns the requested cursor position.
func (w *Workspace) Cursor() Position {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}

// RevealedLine returns the last line passed to RevealLine, or 0.
func (w *Workspace) RevealedLine() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reveal
}

// Revision increases whenever the displayed model, cursor or reveal request
// changes. Views compare it to decide when to resync.
func (w *Workspace) Revision() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.revision
}

// Len returns the number of live models.
func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.models)
}

// SubscribeMarkers streams marker changes for every model.
func (w *Workspace) SubscribeMarkers(ctx context.Context) <-chan pubsub.Event[validate.Change] {
	return w.validator.Subscribe(ctx)
}

// Markers returns the full marker set for m when the validator's latest
// result belongs to m.
func (w *Workspace) Markers(m *Model) ([]validate.Marker, bool) {
	if m == nil || m.Disposed() {
		return nil, false
	}
	gen, markers := w.validator.Markers(string(m.uri))
	if gen != m.generation {
		return nil, false
	}
	return markers, true
}
