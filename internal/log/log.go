// Package log provides structured logging for yedit.
// Logging is off unless enabled via --debug or YEDIT_DEBUG; entries go to a
// file and are also published for the in-app log overlay.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/yedit/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelDebug, fmt.Errorf("unknown log level %q", s)
}

// Category groups related log messages.
type Category string

const (
	CatSession  Category = "session"  // Document session transitions
	CatSchema   Category = "schema"   // Schema registry and template catalog
	CatValidate Category = "validate" // Validation engine runs
	CatIO       Category = "io"       // File open/save through the persistence bridge
	CatUI       Category = "ui"       // UI component updates
	CatConfig   Category = "config"   // Configuration loading
	CatWatcher  Category = "watcher"  // File watcher events
	CatCache    Category = "cache"    // Cache operations
	CatTrace    Category = "trace"    // Tracing provider lifecycle
)

const timeLayout = "2006-01-02T15:04:05"

// Entry is one log record.
type Entry struct {
	Time     time.Time
	Level    Level
	Category Category
	Message  string
	// Fields alternates keys and values as passed to the logging call.
	Fields []any
}

// String formats the entry as written to the log file, without the trailing
// newline:
//
//	2026-01-06T10:45:00 [ERROR] [session] message key=value key2=value2
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", e.Time.Format(timeLayout), e.Level, e.Category, e.Message)
	for i := 0; i+1 < len(e.Fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", e.Fields[i], e.Fields[i+1])
	}
	if len(e.Fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", e.Fields[len(e.Fields)-1])
	}
	return b.String()
}

// Option configures Init.
type Option func(*Logger)

// WithMinLevel drops entries below level.
func WithMinLevel(level Level) Option {
	return func(l *Logger) { l.minLevel = level }
}

// Logger writes entries to a sink and republishes them on a broker.
type Logger struct {
	mu       sync.Mutex
	closer   io.Closer
	writer   io.Writer
	minLevel Level
	broker   *pubsub.Broker[Entry]
}

var (
	stdMu sync.RWMutex
	std   *Logger
)

// Init replaces the global logger with one appending to path. The returned
// function closes the file.
func Init(path string, opts ...Option) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: debug log path chosen by the user
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	l := install(f, append(opts, func(l *Logger) { l.closer = f })...)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.closer != nil {
			_ = l.closer.Close()
			l.closer = nil
			l.writer = nil
		}
	}, nil
}

// InitWriter replaces the global logger with one writing to w.
func InitWriter(w io.Writer, opts ...Option) {
	install(w, opts...)
}

// Reset removes the global logger; later calls are no-ops.
func Reset() {
	stdMu.Lock()
	prev := std
	std = nil
	stdMu.Unlock()
	if prev != nil {
		prev.broker.Close()
	}
}

func install(w io.Writer, opts ...Option) *Logger {
	l := &Logger{
		writer:   w,
		minLevel: LevelDebug,
		broker:   pubsub.NewBroker[Entry](),
	}
	for _, opt := range opts {
		opt(l)
	}
	Reset()
	stdMu.Lock()
	std = l
	stdMu.Unlock()
	return l
}

func current() *Logger {
	stdMu.RLock()
	defer stdMu.RUnlock()
	return std
}

// SetMinLevel changes the filter of the global logger.
func SetMinLevel(level Level) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	write(LevelDebug, cat, msg, fields)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	write(LevelInfo, cat, msg, fields)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	write(LevelWarn, cat, msg, fields)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	write(LevelError, cat, msg, fields)
}

// ErrorErr logs at error level with err appended as the "error" field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	val := "<nil>"
	if err != nil {
		val = err.Error()
	}
	write(LevelError, cat, msg, append(fields, "error", val))
}

func write(level Level, cat Category, msg string, fields []any) {
	l := current()
	if l == nil {
		return
	}

	e := Entry{Time: time.Now(), Level: level, Category: cat, Message: msg, Fields: fields}

	l.mu.Lock()
	if level < l.minLevel {
		l.mu.Unlock()
		return
	}
	if l.writer != nil {
		_, _ = io.WriteString(l.writer, e.String()+"\n")
	}
	l.mu.Unlock()

	l.broker.Publish(pubsub.CreatedEvent, e)
}

// LogEvent is a pubsub event carrying one entry.
type LogEvent = pubsub.Event[Entry]

// LogListener delivers entries to a Bubble Tea program.
type LogListener = pubsub.ContinuousListener[Entry]

// NewListener subscribes to the global logger until ctx is cancelled. It
// returns nil when logging was never initialized.
func NewListener(ctx context.Context) *LogListener {
	l := current()
	if l == nil {
		return nil
	}
	return pubsub.NewContinuousListener(ctx, l.broker)
}
