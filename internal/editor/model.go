package editor

import "sync"

// Model is one document buffer bound to a resource URI. A Model is never
// rebound: a different URI or schema means a new Model.
type Model struct {
	id         string
	uri        URI
	generation uint64

	mu       sync.RWMutex
	value    string
	disposed bool
}

// ID is a unique identifier used in logs and traces.
func (m *Model) ID() string { return m.id }

// URI returns the resource the model is registered under.
func (m *Model) URI() URI { return m.uri }

// Generation increases with every model a Workspace creates.
func (m *Model) Generation() uint64 { return m.generation }

// Value returns the current content.
func (m *Model) Value() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}

// Disposed reports whether the model has been released.
func (m *Model) Disposed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.disposed
}

func (m *Model) setValue(v string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return false
	}
	m.value = v
	return true
}

func (m *Model) dispose() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return false
	}
	m.disposed = true
	return true
}
