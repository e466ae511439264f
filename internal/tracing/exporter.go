package tracing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var errExporterClosed = errors.New("trace exporter closed")

// JSONLExporter appends one SpanRecord per line to a trace file.
type JSONLExporter struct {
	mu  sync.Mutex
	out io.WriteCloser
	enc *json.Encoder
}

var _ sdktrace.SpanExporter = (*JSONLExporter)(nil)

// NewJSONLExporter opens path on fs for appending. Missing parent
// directories are created.
func NewJSONLExporter(fs afero.Fs, path string) (*JSONLExporter, error) {
	path = filepath.Clean(path)
	if err := fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating trace directory: %w", err)
	}
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	return &JSONLExporter{out: f, enc: json.NewEncoder(f)}, nil
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *JSONLExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.out == nil {
		return errExporterClosed
	}
	for _, s := range spans {
		if err := e.enc.Encode(recordOf(s)); err != nil {
			return fmt.Errorf("writing span %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter. It is safe to call twice.
func (e *JSONLExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.out == nil {
		return nil
	}
	err := e.out.Close()
	e.out, e.enc = nil, nil
	return err
}

// SpanRecord is one line of the trace file. Outcome and Error are lifted
// out of the attributes so session operations can be grepped by result.
type SpanRecord struct {
	TraceID    string         `json:"trace_id"`
	SpanID     string         `json:"span_id"`
	ParentID   string         `json:"parent_id,omitempty"`
	Name       string         `json:"name"`
	Start      time.Time      `json:"start"`
	DurationMs float64        `json:"duration_ms"`
	Outcome    string         `json:"outcome,omitempty"`
	Error      string         `json:"error,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Events     []string       `json:"events,omitempty"`
}

func recordOf(s sdktrace.ReadOnlySpan) SpanRecord {
	rec := SpanRecord{
		TraceID:    s.SpanContext().TraceID().String(),
		SpanID:     s.SpanContext().SpanID().String(),
		Name:       s.Name(),
		Start:      s.StartTime().UTC(),
		DurationMs: float64(s.EndTime().Sub(s.StartTime()).Microseconds()) / 1000,
	}
	if p := s.Parent(); p.IsValid() {
		rec.ParentID = p.SpanID().String()
	}
	if st := s.Status(); st.Code == codes.Error {
		rec.Error = st.Description
	}

	for _, kv := range s.Attributes() {
		if string(kv.Key) == AttrOutcome {
			rec.Outcome = kv.Value.AsString()
			continue
		}
		if rec.Attributes == nil {
			rec.Attributes = make(map[string]any)
		}
		rec.Attributes[string(kv.Key)] = kv.Value.AsInterface()
	}
	for _, ev := range s.Events() {
		rec.Events = append(rec.Events, ev.Name)
	}
	return rec
}
