// Package session owns the document being edited: its buffer, the schema it
// is bound to, where it is persisted, and whether it has unsaved changes.
// Every state transition goes through a Session method.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/yedit/internal/editor"
	"github.com/zjrosen/yedit/internal/log"
	"github.com/zjrosen/yedit/internal/pubsub"
	"github.com/zjrosen/yedit/internal/schema"
	"github.com/zjrosen/yedit/internal/templates"
	"github.com/zjrosen/yedit/internal/tracing"
	"github.com/zjrosen/yedit/internal/validate"
)

// WelcomeText is the buffer of a new session. It is never saved, so a new
// session starts dirty.
const WelcomeText = "Welcome to the generic yaml schema editor!"

// ErrorEntry is one validation problem shown to the user.
type ErrorEntry struct {
	Line     int
	Column   int
	Message  string
	Severity validate.Severity
}

// ChangeKind says what part of the session changed.
type ChangeKind string

const (
	ChangeOpened  ChangeKind = "opened"
	ChangeSaved   ChangeKind = "saved"
	ChangeSchema  ChangeKind = "schema"
	ChangeMarkers ChangeKind = "markers"
)

// Change is published after a transition completes.
type Change struct {
	Kind     ChangeKind
	SchemaID string
}

// Option configures a Session.
type Option func(*Session)

// WithTracer records a span per open, save and schema switch.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

// WithBuffer replaces the welcome text of a new session.
func WithBuffer(text string) Option {
	return func(s *Session) { s.buffer = text }
}

// WithSchema starts the session bound to id instead of the registry default.
// Unknown ids are ignored.
func WithSchema(id string) Option {
	return func(s *Session) {
		if d, err := s.registry.Get(id); err == nil {
			s.active = d
			s.savedSchema = d.ID
		}
	}
}

// Session is the single document of an editor. It is safe for concurrent use.
type Session struct {
	id       string
	registry *schema.Registry
	widget   editor.Widget
	bridge   Bridge
	tracer   trace.Tracer
	broker   *pubsub.Broker[Change]

	mu          sync.Mutex
	buffer      string
	saved       string
	savedSchema string
	active      schema.Descriptor
	handle      Handle
	model       *editor.Model
	errors      []ErrorEntry
	busy        bool
}

// New creates a session bound to the registry's first schema and shows its
// welcome buffer in widget.
func New(reg *schema.Registry, widget editor.Widget, bridge Bridge, opts ...Option) *Session {
	def := reg.Default()
	s := &Session{
		id:          uuid.NewString(),
		registry:    reg,
		widget:      widget,
		bridge:      bridge,
		tracer:      noop.NewTracerProvider().Tracer("session"),
		broker:      pubsub.NewBroker[Change](),
		buffer:      WelcomeText,
		active:      def,
		savedSchema: def.ID,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	s.rebindLocked()
	s.mu.Unlock()

	log.Info(log.CatSession, "session created", "session", s.id, "schema", s.active.ID)
	return s
}

// ID identifies the session in logs and traces.
func (s *Session) ID() string { return s.id }

// Registry returns the schema catalog the session binds against.
func (s *Session) Registry() *schema.Registry { return s.registry }

// OpenFile asks the bridge for a file, reads it and makes it the buffer and
// saved content, rebinding to the active schema. Nothing changes unless the
// read succeeds.
func (s *Session) OpenFile(ctx context.Context) (err error) {
	ctx, span := s.startSpan(ctx, tracing.SpanOpenFile)
	defer func() { endSpan(span, err) }()

	if err := s.beginIO(); err != nil {
		return err
	}
	defer s.endIO()

	h, err := s.bridge.PickOpenTarget(ctx, YAMLFilter)
	if err != nil {
		return s.classify("open", err)
	}
	text, err := s.bridge.Read(ctx, h)
	if err != nil {
		return s.classify("read", err)
	}
	span.SetAttributes(
		attribute.String(tracing.AttrFileName, h.Name()),
		attribute.Int(tracing.AttrBytes, len(text)),
	)

	s.mu.Lock()
	s.handle = h
	s.buffer = text
	s.saved = text
	s.savedSchema = s.active.ID
	s.rebindLocked()
	schemaID := s.active.ID
	s.mu.Unlock()

	log.Info(log.CatIO, "file opened", "session", s.id, "file", h.Name(), "bytes", len(text))
	s.broker.Publish(pubsub.UpdatedEvent, Change{Kind: ChangeOpened, SchemaID: schemaID})
	return nil
}

// Save writes the buffer to the current handle. Without a handle, or when
// asNew is set, the bridge is asked for a target first. A failed or
// cancelled save leaves the session untouched.
func (s *Session) Save(ctx context.Context, asNew bool) (err error) {
	ctx, span := s.startSpan(ctx, tracing.SpanSave, attribute.Bool(tracing.AttrSaveAsNew, asNew))
	defer func() { endSpan(span, err) }()

	if err := s.beginIO(); err != nil {
		return err
	}
	defer s.endIO()

	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()

	if h == nil || asNew {
		suggested := SuggestedName
		if h != nil {
			suggested = h.Name()
		}
		h, err = s.bridge.PickSaveTarget(ctx, YAMLFilter, suggested)
		if err != nil {
			return s.classify("save", err)
		}
	}

	s.mu.Lock()
	text := s.buffer
	schemaID := s.active.ID
	s.mu.Unlock()

	if err := s.bridge.Write(ctx, h, text); err != nil {
		return s.classify("write", err)
	}
	span.SetAttributes(
		attribute.String(tracing.AttrFileName, h.Name()),
		attribute.Int(tracing.AttrBytes, len(text)),
	)

	s.mu.Lock()
	s.handle = h
	s.saved = text
	s.savedSchema = schemaID
	s.mu.Unlock()

	log.Info(log.CatIO, "file saved", "session", s.id, "file", h.Name(), "bytes", len(text))
	s.broker.Publish(pubsub.UpdatedEvent, Change{Kind: ChangeSaved, SchemaID: schemaID})
	return nil
}

// SwitchSchema binds the buffer to another schema. The buffer is kept; the
// model is replaced and the error list cleared until revalidation.
func (s *Session) SwitchSchema(id string) error {
	return s.bind(context.Background(), tracing.SpanSwitchSchema, id, nil)
}

// LoadContent binds to schema id and replaces the buffer with content.
func (s *Session) LoadContent(id, content string) error {
	return s.bind(context.Background(), tracing.SpanLoadContent, id, &content)
}

// LoadTemplate is LoadContent with a template's schema and content.
func (s *Session) LoadTemplate(t templates.Template) error {
	return s.LoadContent(t.SchemaID, t.InitialContent)
}

func (s *Session) bind(ctx context.Context, spanName, id string, content *string) (err error) {
	_, span := s.startSpan(ctx, spanName, attribute.String(tracing.AttrSchemaID, id))
	defer func() { endSpan(span, err) }()

	desc, err := s.registry.Get(id)
	if err != nil {
		log.ErrorErr(log.CatSchema, "schema lookup failed", err, "session", s.id)
		return err
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	prev := s.active.ID
	s.active = desc
	if content != nil {
		s.buffer = *content
	}
	s.rebindLocked()
	gen := s.model.Generation()
	s.mu.Unlock()

	span.SetAttributes(
		attribute.String(tracing.AttrPrevSchemaID, prev),
		attribute.String(tracing.AttrResourceURI, desc.ResourceURI()),
		attribute.Int64(tracing.AttrGeneration, int64(gen)),
	)
	log.Info(log.CatSchema, "schema bound", "session", s.id, "from", prev, "to", desc.ID, "replaced_buffer", content != nil)
	s.broker.Publish(pubsub.UpdatedEvent, Change{Kind: ChangeSchema, SchemaID: desc.ID})
	return nil
}

// rebindLocked discards the bound model and creates a fresh one at the
// active schema's resource URI holding the buffer.
func (s *Session) rebindLocked() {
	if s.model != nil {
		s.widget.DisposeModel(s.model)
	}
	m := s.widget.CreateModel(s.buffer, editor.URI(s.active.ResourceURI()))
	s.widget.SetModel(m)
	s.model = m
	s.errors = []ErrorEntry{}
}

// Edit records new buffer content from the editing widget.
func (s *Session) Edit(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = text
}

// OnValidationMarkers replaces the error list when generation belongs to the
// bound model. It reports whether the markers were applied.
func (s *Session) OnValidationMarkers(generation uint64, markers []validate.Marker) bool {
	s.mu.Lock()
	if s.model == nil || s.model.Generation() != generation {
		s.mu.Unlock()
		log.Debug(log.CatValidate, "dropping markers for unbound model", "session", s.id, "generation", generation)
		return false
	}
	entries := make([]ErrorEntry, 0, len(markers))
	for _, m := range markers {
		entries = append(entries, ErrorEntry{Line: m.Line, Column: m.Column, Message: m.Message, Severity: m.Severity})
	}
	s.errors = entries
	schemaID := s.active.ID
	s.mu.Unlock()

	s.broker.Publish(pubsub.UpdatedEvent, Change{Kind: ChangeMarkers, SchemaID: schemaID})
	return true
}

// Reveal scrolls the widget to e and puts the cursor at the start of its line.
func (s *Session) Reveal(e ErrorEntry) {
	s.widget.RevealLine(e.Line)
	s.widget.SetCursorPosition(e.Line, 0)
}

// Subscribe streams session changes until ctx is cancelled.
func (s *Session) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return s.broker.Subscribe(ctx)
}

// Close disposes the bound model and ends all subscriptions.
func (s *Session) Close() {
	s.mu.Lock()
	if s.model != nil {
		s.widget.DisposeModel(s.model)
		s.model = nil
	}
	s.mu.Unlock()
	s.broker.Close()
}

func (s *Session) beginIO() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *Session) endIO() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

func (s *Session) classify(op string, err error) error {
	if errors.Is(err, ErrUserCancelled) || errors.Is(err, context.Canceled) {
		log.Debug(log.CatIO, "picker dismissed", "session", s.id, "op", op)
		return ErrUserCancelled
	}
	log.ErrorErr(log.CatIO, "file operation failed", err, "session", s.id, "op", op)
	return &IOError{Op: op, Err: err}
}

func (s *Session) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String(tracing.AttrSessionID, s.id))
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	defer span.End()
	var ioErr *IOError
	switch {
	case err == nil:
		span.SetAttributes(attribute.String(tracing.AttrOutcome, tracing.OutcomeOK))
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, ErrUserCancelled):
		span.SetAttributes(attribute.String(tracing.AttrOutcome, tracing.OutcomeCancelled))
	case errors.Is(err, ErrBusy):
		span.SetAttributes(attribute.String(tracing.AttrOutcome, tracing.OutcomeBusy))
	default:
		errType := "internal"
		if errors.As(err, &ioErr) {
			errType = "io"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(
			attribute.String(tracing.AttrOutcome, tracing.OutcomeFailed),
			attribute.String(tracing.AttrErrorType, errType),
			attribute.String(tracing.AttrErrorMessage, fmt.Sprint(err)),
		)
	}
}
