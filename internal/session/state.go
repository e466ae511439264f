package session

import (
	"fmt"

	"github.com/zjrosen/yedit/internal/editor"
	"github.com/zjrosen/yedit/internal/schema"
)

// Status line texts.
const (
	StatusSaved = "File saved."
	StatusDirty = "File contains modifications, please save."
	Untitled    = "untitled file"
)

// Snapshot is a consistent copy of the session's observable state.
type Snapshot struct {
	Buffer          string
	Saved           string
	Dirty           bool
	Schema          schema.Descriptor
	DisplayFilename string
	HasHandle       bool
	Errors          []ErrorEntry
	BoundURI        editor.URI
	Generation      uint64
	Busy            bool
}

// Snapshot returns the current state under a single lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Buffer:          s.buffer,
		Saved:           s.saved,
		Dirty:           s.dirtyLocked(),
		Schema:          s.active,
		DisplayFilename: s.displayFilenameLocked(),
		HasHandle:       s.handle != nil,
		Errors:          append([]ErrorEntry(nil), s.errors...),
		Busy:            s.busy,
	}
	if s.model != nil {
		snap.BoundURI = s.model.URI()
		snap.Generation = s.model.Generation()
	}
	return snap
}

// dirtyLocked compares the buffer with the saved content and the schema
// that content was saved or opened under.
func (s *Session) dirtyLocked() bool {
	return s.buffer != s.saved || s.active.ID != s.savedSchema
}

func (s *Session) displayFilenameLocked() string {
	if s.handle == nil {
		return ""
	}
	return s.handle.Name()
}

// IsDirty reports unsaved changes.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

// Buffer returns the current content.
func (s *Session) Buffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer
}

// SavedText returns the content as of the last successful open or save.
func (s *Session) SavedText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// ActiveSchema returns the bound schema.
func (s *Session) ActiveSchema() schema.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ActiveSchemaID returns the id of the bound schema.
func (s *Session) ActiveSchemaID() string {
	return s.ActiveSchema().ID
}

// Handle returns the persistence handle, nil while untitled.
func (s *Session) Handle() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// HasHandle reports whether Save can write without prompting.
func (s *Session) HasHandle() bool {
	return s.Handle() != nil
}

// DisplayFilename is the handle's name, empty while untitled.
func (s *Session) DisplayFilename() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayFilenameLocked()
}

// Errors returns a copy of the current error list.
func (s *Session) Errors() []ErrorEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ErrorEntry(nil), s.errors...)
}

// BoundModel returns the model currently shown by the widget.
func (s *Session) BoundModel() *editor.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Busy reports an open or save in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// StatusText is the single-line dirty indicator.
func (snap Snapshot) StatusText() string {
	if snap.Dirty {
		return StatusDirty
	}
	return StatusSaved
}

// ErrorSummary is the label of the error list toggle.
func (snap Snapshot) ErrorSummary() string {
	switch n := len(snap.Errors); n {
	case 0:
		return "No errors!"
	case 1:
		return "1 error"
	default:
		return fmt.Sprintf("%d errors", n)
	}
}

// Title names the document for window and header display.
func (snap Snapshot) Title() string {
	name := snap.DisplayFilename
	if name == "" {
		name = Untitled
	}
	return "Editing " + name
}
