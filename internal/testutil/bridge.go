package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/zjrosen/yedit/internal/session"
)

// Handle is a named in-memory file location.
type Handle struct {
	name string
}

// Name implements session.Handle.
func (h Handle) Name() string { return h.name }

// Write records one successful Bridge.Write.
type Write struct {
	Name string
	Text string
}

type pick struct {
	name string
	err  error
}

// Bridge is an in-memory session.Bridge. Picker answers are queued; an empty
// queue answers session.ErrUserCancelled.
type Bridge struct {
	mu          sync.Mutex
	files       map[string]string
	opens       []pick
	saves       []pick
	readErr     error
	writeErr    error
	writes      []Write
	suggestions []string
	gate        chan struct{}
	waiting     int
}

var _ session.Bridge = (*Bridge)(nil)

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{files: make(map[string]string)}
}

// WithFile stores content under name.
func (b *Bridge) WithFile(name, content string) *Bridge {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[name] = content
	return b
}

// QueueOpen answers the next open picker with name.
func (b *Bridge) QueueOpen(name string) *Bridge {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opens = append(b.opens, pick{name: name})
	return b
}

// QueueSave answers the next save picker with name.
func (b *Bridge) QueueSave(name string) *Bridge {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saves = append(b.saves, pick{name: name})
	return b
}

// QueueOpenError answers the next open picker with err.
func (b *Bridge) QueueOpenError(err error) *Bridge {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opens = append(b.opens, pick{err: err})
	return b
}

// FailReads makes every Read return err.
func (b *Bridge) FailReads(err error) *Bridge {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readErr = err
	return b
}

// FailWrites makes every Write return err. A nil err restores writes.
func (b *Bridge) FailWrites(err error) *Bridge {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeErr = err
	return b
}

// Hold blocks writes until the returned release func is called.
func (b *Bridge) Hold() (release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	gate := make(chan struct{})
	b.gate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// PickOpenTarget implements session.Bridge.
func (b *Bridge) PickOpenTarget(ctx context.Context, _ session.Filter) (session.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := pop(&b.opens)
	if !ok {
		return nil, session.ErrUserCancelled
	}
	if p.err != nil {
		return nil, p.err
	}
	return Handle{name: p.name}, nil
}

// PickSaveTarget implements session.Bridge.
func (b *Bridge) PickSaveTarget(ctx context.Context, _ session.Filter, suggestedName string) (session.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suggestions = append(b.suggestions, suggestedName)
	p, ok := pop(&b.saves)
	if !ok {
		return nil, session.ErrUserCancelled
	}
	if p.err != nil {
		return nil, p.err
	}
	return Handle{name: p.name}, nil
}

// Read implements session.Bridge.
func (b *Bridge) Read(ctx context.Context, h session.Handle) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readErr != nil {
		return "", b.readErr
	}
	content, ok := b.files[h.Name()]
	if !ok {
		return "", fmt.Errorf("open %s: file does not exist", h.Name())
	}
	return content, nil
}

// Write implements session.Bridge.
func (b *Bridge) Write(ctx context.Context, h session.Handle, text string) error {
	b.mu.Lock()
	gate := b.gate
	b.mu.Unlock()
	if gate != nil {
		b.setWaiting(1)
		select {
		case <-gate:
			b.setWaiting(-1)
		case <-ctx.Done():
			b.setWaiting(-1)
			return ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.files[h.Name()] = text
	b.writes = append(b.writes, Write{Name: h.Name(), Text: text})
	return nil
}

func (b *Bridge) setWaiting(delta int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waiting += delta
}

// WaitingWrites counts writes blocked by Hold.
func (b *Bridge) WaitingWrites() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waiting
}

// File returns the stored content of name.
func (b *Bridge) File(name string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	content, ok := b.files[name]
	return content, ok
}

// Writes returns every successful write in order.
func (b *Bridge) Writes() []Write {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Write(nil), b.writes...)
}

// Suggestions returns the suggested names passed to the save picker.
func (b *Bridge) Suggestions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.suggestions...)
}

func pop(q *[]pick) (pick, bool) {
	if len(*q) == 0 {
		return pick{}, false
	}
	p := (*q)[0]
	*q = (*q)[1:]
	return p, true
}
