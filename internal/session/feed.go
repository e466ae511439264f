package session

import (
	"context"
	"time"

	"github.com/zjrosen/yedit/internal/editor"
	"github.com/zjrosen/yedit/internal/log"
	"github.com/zjrosen/yedit/internal/pubsub"
	"github.com/zjrosen/yedit/internal/validate"
)

// DefaultResync is how often Run compares the session's error list with the
// source, catching change notifications the broker dropped.
const DefaultResync = 500 * time.Millisecond

// Feed pushes marker changes for the session's bound model into the session.
type Feed struct {
	session *Session
	source  editor.MarkerSource
	resync  time.Duration
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithResync sets the resync interval. Zero disables it.
func WithResync(d time.Duration) FeedOption {
	return func(f *Feed) { f.resync = d }
}

// NewFeed connects source to s.
func NewFeed(s *Session, source editor.MarkerSource, opts ...FeedOption) *Feed {
	f := &Feed{session: s, source: source, resync: DefaultResync}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Deliver handles one change notification. Changes for other resources or
// older models are ignored; otherwise the full marker set is read and
// handed to the session.
func (f *Feed) Deliver(ev pubsub.Event[validate.Change]) bool {
	if ev.Type == pubsub.DeletedEvent {
		return false
	}
	m := f.session.BoundModel()
	if m == nil || string(m.URI()) != ev.Payload.URI || m.Generation() != ev.Payload.Generation {
		return false
	}
	return f.Sync()
}

// Sync applies whatever marker set the source already holds for the bound
// model.
func (f *Feed) Sync() bool {
	m := f.session.BoundModel()
	if m == nil {
		return false
	}
	markers, ok := f.source.Markers(m)
	if !ok {
		return false
	}
	return f.session.OnValidationMarkers(m.Generation(), markers)
}

// resyncIfStale applies the source's marker set only when it differs from
// the session's error list.
func (f *Feed) resyncIfStale() bool {
	m := f.session.BoundModel()
	if m == nil {
		return false
	}
	markers, ok := f.source.Markers(m)
	if !ok || sameEntries(f.session.Errors(), markers) {
		return false
	}
	log.Debug(log.CatValidate, "resyncing stale markers", "session", f.session.ID(), "generation", m.Generation())
	return f.session.OnValidationMarkers(m.Generation(), markers)
}

func sameEntries(entries []ErrorEntry, markers []validate.Marker) bool {
	if len(entries) != len(markers) {
		return false
	}
	for i, m := range markers {
		e := entries[i]
		if e.Line != m.Line || e.Column != m.Column || e.Message != m.Message || e.Severity != m.Severity {
			return false
		}
	}
	return true
}

// Run delivers changes until ctx is cancelled or the source closes.
func (f *Feed) Run(ctx context.Context) {
	ch := f.source.SubscribeMarkers(ctx)
	f.Sync()

	var tick <-chan time.Time
	if f.resync > 0 {
		t := time.NewTicker(f.resync)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			f.resyncIfStale()
		case ev, ok := <-ch:
			if !ok {
				log.Debug(log.CatValidate, "marker feed closed", "session", f.session.ID())
				return
			}
			f.Deliver(ev)
		}
	}
}
