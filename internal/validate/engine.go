package validate

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/yedit/internal/cachemanager"
	"github.com/zjrosen/yedit/internal/log"
	"github.com/zjrosen/yedit/internal/pubsub"
	"github.com/zjrosen/yedit/internal/schema"
	"github.com/zjrosen/yedit/internal/tracing"
)

// Config tunes the engine.
type Config struct {
	// Debounce delays validation after a scheduled change. Zero validates
	// synchronously inside Schedule.
	Debounce time.Duration `mapstructure:"debounce"`
	// CacheTTL bounds how long a result for identical content is reused.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// DefaultConfig returns the interactive defaults.
func DefaultConfig() Config {
	return Config{
		Debounce: 150 * time.Millisecond,
		CacheTTL: cachemanager.DefaultExpiration,
	}
}

// Option customizes an Engine.
type Option func(*Engine)

// WithCache replaces the default result cache.
func WithCache(c cachemanager.Cache[string, []Marker]) Option {
	return func(e *Engine) { e.cache = c }
}

// WithTracer records a span per validation run.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

type compiled struct {
	desc   schema.Descriptor
	schema *jsonschema.Schema
}

type docState struct {
	generation uint64
	// revision counts Schedule calls; only the latest run may publish.
	revision uint64
	markers  []Marker
	timer    *time.Timer
}

// Engine validates documents keyed by resource URI. It is configured once
// with every schema and then chooses the schema per URI via fileMatch globs.
type Engine struct {
	cfg     Config
	schemas []compiled
	cache   cachemanager.Cache[string, []Marker]
	broker  *pubsub.Broker[Change]
	tracer  trace.Tracer

	mu     sync.Mutex
	states map[string]*docState
	closed bool
}

// New compiles every descriptor. A schema that fails to compile is an error:
// the registry is closed, so a bad document is a configuration fault.
func New(cfg Config, descs []schema.Descriptor, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:    cfg,
		broker: pubsub.NewBroker[Change](),
		tracer: noop.NewTracerProvider().Tracer("validate"),
		states: make(map[string]*docState),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = cachemanager.NewMemory[string, []Marker]("markers", cfg.CacheTTL, cachemanager.DefaultCleanupInterval)
	}

	for _, d := range descs {
		s, err := compileDescriptor(d)
		if err != nil {
			return nil, fmt.Errorf("compiling schema %q: %w", d.ID, err)
		}
		e.schemas = append(e.schemas, compiled{desc: d, schema: s})
	}
	log.Info(log.CatValidate, "validation engine configured", "schemas", len(e.schemas), "debounce", cfg.Debounce)
	return e, nil
}

func compileDescriptor(d schema.Descriptor) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(normalize(d.Document))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(d.CanonicalURI(), bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return c.Compile(d.CanonicalURI())
}

// SchemaFor returns the descriptor whose resource URI is uri, or else the
// first descriptor whose fileMatch globs match it.
func (e *Engine) SchemaFor(uri string) (schema.Descriptor, bool) {
	c := e.compiledFor(uri)
	if c == nil {
		return schema.Descriptor{}, false
	}
	return c.desc, true
}

func (e *Engine) compiledFor(uri string) *compiled {
	// A bound model's own address always wins over another schema's glob.
	for i := range e.schemas {
		if e.schemas[i].desc.ResourceURI() == uri {
			return &e.schemas[i]
		}
	}

	p := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(p)
	for i := range e.schemas {
		for _, glob := range e.schemas[i].desc.Globs() {
			if ok, _ := path.Match(glob, base); ok {
				return &e.schemas[i]
			}
			if ok, _ := path.Match(glob, p); ok {
				return &e.schemas[i]
			}
		}
	}
	return nil
}

// Validate checks content against the schema matching uri. A URI that no
// schema claims yields syntax markers only.
func (e *Engine) Validate(uri, content string) []Marker {
	return e.validate(e.compiledFor(uri), content)
}

// ValidateAgainst checks content against the schema with id, ignoring globs.
func (e *Engine) ValidateAgainst(id, content string) ([]Marker, error) {
	for i := range e.schemas {
		if e.schemas[i].desc.ID == id {
			return e.validate(&e.schemas[i], content), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", schema.ErrSchemaNotFound, id)
}

func (e *Engine) validate(c *compiled, content string) []Marker {
	key := cacheKey(c, content)
	if cached, ok := e.cache.Get(key); ok {
		return cloneMarkers(cached)
	}

	markers := e.check(c, content)
	sortMarkers(markers)
	e.cache.Set(key, markers)
	return cloneMarkers(markers)
}

func cacheKey(c *compiled, content string) string {
	sum := sha256.Sum256([]byte(content))
	id := ""
	if c != nil {
		id = c.desc.ID
	}
	return id + ":" + hex.EncodeToString(sum[:])
}

func (e *Engine) check(c *compiled, content string) []Marker {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return syntaxMarkers(err)
	}

	var value any
	if doc.Kind != 0 {
		if err := doc.Decode(&value); err != nil {
			return syntaxMarkers(err)
		}
	}
	if c == nil {
		return []Marker{}
	}

	instance, nonFinite := normalizeInstance(value)
	if len(nonFinite) > 0 {
		markers := make([]Marker, 0, len(nonFinite))
		for _, ptr := range nonFinite {
			line, col := locate(&doc, ptr)
			markers = append(markers, Marker{
				Line:     line,
				Column:   col,
				Message:  msgNonFinite,
				Severity: SeverityError,
				Source:   c.desc.ID,
				Path:     ptr,
			})
		}
		return markers
	}

	err := validateInstance(c.schema, instance)
	if err == nil {
		return []Marker{}
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Marker{{Line: 1, Message: err.Error(), Severity: SeverityError, Source: c.desc.ID}}
	}

	var markers []Marker
	var walk func(v *jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			line, col := locate(&doc, v.InstanceLocation)
			markers = append(markers, Marker{
				Line:     line,
				Column:   col,
				Message:  v.Message,
				Severity: SeverityError,
				Source:   c.desc.ID,
				Path:     v.InstanceLocation,
			})
			return
		}
		for _, cause := range v.Causes {
			walk(cause)
		}
	}
	walk(ve)
	return markers
}

const msgNonFinite = "non-finite number is not valid JSON"

// validateInstance runs the schema, turning a validator panic into an error
// so a single document cannot take the editor down.
func validateInstance(s *jsonschema.Schema, v any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatValidate, "schema validator panicked", "panic", r)
			err = fmt.Errorf("schema validation failed: %v", r)
		}
	}()
	return s.Validate(v)
}

// Schedule submits a model revision. Older generations for the same URI are
// ignored; a newer one supersedes any pending run.
func (e *Engine) Schedule(doc Document) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	st, ok := e.states[doc.URI]
	if !ok {
		st = &docState{}
		e.states[doc.URI] = st
	}
	if doc.Generation < st.generation {
		e.mu.Unlock()
		return
	}
	if st.generation != doc.Generation {
		st.markers = nil
	}
	st.generation = doc.Generation
	st.revision++
	rev := st.revision
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	if e.cfg.Debounce <= 0 {
		e.mu.Unlock()
		e.run(doc, rev)
		return
	}
	st.timer = time.AfterFunc(e.cfg.Debounce, func() { e.run(doc, rev) })
	e.mu.Unlock()
}

func (e *Engine) run(doc Document, rev uint64) {
	_, span := e.tracer.Start(context.Background(), tracing.SpanValidate)
	defer span.End()

	markers := e.Validate(doc.URI, doc.Content)
	span.SetAttributes(
		attribute.String(tracing.AttrResourceURI, doc.URI),
		attribute.Int64(tracing.AttrGeneration, int64(doc.Generation)),
		attribute.Int(tracing.AttrMarkerCount, len(markers)),
	)

	e.mu.Lock()
	st, ok := e.states[doc.URI]
	if !ok || e.closed || st.generation != doc.Generation || st.revision != rev {
		e.mu.Unlock()
		log.Debug(log.CatValidate, "dropping stale validation result", "uri", doc.URI, "generation", doc.Generation, "revision", rev)
		return
	}
	st.markers = markers
	st.timer = nil
	e.mu.Unlock()

	log.Debug(log.CatValidate, "markers updated", "uri", doc.URI, "generation", doc.Generation, "count", len(markers))
	e.broker.Publish(pubsub.UpdatedEvent, Change{URI: doc.URI, Generation: doc.Generation})
}

// Markers returns the latest marker set for uri and the generation it
// belongs to.
func (e *Engine) Markers(uri string) (uint64, []Marker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[uri]
	if !ok {
		return 0, nil
	}
	return st.generation, cloneMarkers(st.markers)
}

// Forget drops all state for uri if it still belongs to generation and
// publishes a DeletedEvent.
func (e *Engine) Forget(uri string, generation uint64) {
	e.mu.Lock()
	st, ok := e.states[uri]
	if !ok || st.generation != generation {
		e.mu.Unlock()
		return
	}
	if st.timer != nil {
		st.timer.Stop()
	}
	delete(e.states, uri)
	e.mu.Unlock()

	e.broker.Publish(pubsub.DeletedEvent, Change{URI: uri, Generation: generation})
}

// Subscribe streams marker changes until ctx is cancelled.
func (e *Engine) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return e.broker.Subscribe(ctx)
}

// Broker exposes the change broker for Bubble Tea listeners.
func (e *Engine) Broker() *pubsub.Broker[Change] {
	return e.broker
}

// Close stops pending runs and closes all subscriptions.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	for _, st := range e.states {
		if st.timer != nil {
			st.timer.Stop()
		}
	}
	e.mu.Unlock()
	e.broker.Close()

	stats := e.cache.Stats()
	log.Debug(log.CatCache, "validation cache", "hits", stats.Hits, "misses", stats.Misses, "hit_rate", stats.HitRate())
}
