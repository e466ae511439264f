package persistence

import (
	"context"
	"sync"

	"github.com/zjrosen/yedit/internal/session"
)

// PickMode says which picker a request stands for.
type PickMode int

const (
	PickOpen PickMode = iota
	PickSave
)

func (m PickMode) String() string {
	if m == PickSave {
		return "save"
	}
	return "open"
}

type pickResult struct {
	path string
	err  error
}

// PickRequest is a pending picker waiting for the UI to answer it.
type PickRequest struct {
	Mode      PickMode
	Filter    session.Filter
	Suggested string

	reply chan pickResult
	once  *sync.Once
}

// Resolve answers the request with path.
func (r PickRequest) Resolve(path string) {
	r.once.Do(func() { r.reply <- pickResult{path: path} })
}

// Cancel dismisses the request.
func (r PickRequest) Cancel() {
	r.once.Do(func() { r.reply <- pickResult{err: session.ErrUserCancelled} })
}

// PromptPicker hands each pick to whoever reads Requests, normally a path
// prompt in the UI. Paths given to Preset are used, in order, for open picks
// without asking.
type PromptPicker struct {
	requests chan PickRequest

	mu     sync.Mutex
	preset []string
}

var _ Picker = (*PromptPicker)(nil)

// NewPromptPicker creates a picker with an unbuffered request channel.
func NewPromptPicker() *PromptPicker {
	return &PromptPicker{requests: make(chan PickRequest)}
}

// Requests delivers pending picks.
func (p *PromptPicker) Requests() <-chan PickRequest {
	return p.requests
}

// Preset queues a path to answer the next open pick.
func (p *PromptPicker) Preset(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.preset = append(p.preset, path)
}

// PickOpen implements Picker.
func (p *PromptPicker) PickOpen(ctx context.Context, filter session.Filter) (string, error) {
	p.mu.Lock()
	if len(p.preset) > 0 {
		path := p.preset[0]
		p.preset = p.preset[1:]
		p.mu.Unlock()
		return path, nil
	}
	p.mu.Unlock()
	return p.ask(ctx, PickRequest{Mode: PickOpen, Filter: filter})
}

// PickSave implements Picker.
func (p *PromptPicker) PickSave(ctx context.Context, filter session.Filter, suggestedName string) (string, error) {
	return p.ask(ctx, PickRequest{Mode: PickSave, Filter: filter, Suggested: suggestedName})
}

func (p *PromptPicker) ask(ctx context.Context, req PickRequest) (string, error) {
	req.reply = make(chan pickResult, 1)
	req.once = &sync.Once{}

	select {
	case p.requests <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.path, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
