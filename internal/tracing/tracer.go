// Package tracing configures OpenTelemetry for yedit session operations.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultServiceName identifies yedit in exported traces.
const DefaultServiceName = "yedit"

// Exporter names accepted in Config.Exporter.
const (
	ExporterNone   = "none"
	ExporterFile   = "file"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

const defaultOTLPEndpoint = "localhost:4317"

// Config configures the tracing subsystem.
type Config struct {
	// Enabled controls whether tracing is active. When false every span is
	// a no-op.
	Enabled bool `mapstructure:"enabled"`

	// Exporter is one of ExporterNone, ExporterFile, ExporterStdout or
	// ExporterOTLP.
	Exporter string `mapstructure:"exporter"`

	// FilePath is the JSONL output for the file exporter.
	FilePath string `mapstructure:"file_path"`

	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate is the fraction of root spans kept, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate"`

	ServiceName string `mapstructure:"service_name"`
}

// DefaultConfig returns tracing disabled with the file exporter selected.
func DefaultConfig() Config {
	return Config{
		Exporter:     ExporterFile,
		OTLPEndpoint: defaultOTLPEndpoint,
		SampleRate:   1.0,
		ServiceName:  DefaultServiceName,
	}
}

type options struct {
	fs     afero.Fs
	stdout io.Writer
}

// Option customizes NewProvider.
type Option func(*options)

// WithFs sets the filesystem the file exporter writes to.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithStdout redirects the stdout exporter.
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// Provider owns the SDK tracer provider, if any.
type Provider struct {
	sdk    *sdktrace.TracerProvider
	tracer trace.Tracer
}

// Noop returns a disabled provider.
func Noop() *Provider {
	return &Provider{tracer: noop.NewTracerProvider().Tracer(DefaultServiceName)}
}

// NewProvider builds a provider from cfg and installs it as the global
// OpenTelemetry provider. A disabled config yields Noop.
func NewProvider(cfg Config, opts ...Option) (*Provider, error) {
	if !cfg.Enabled {
		return Noop(), nil
	}
	o := options{fs: afero.NewOsFs(), stdout: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	exp, err := newExporter(cfg, o)
	if err != nil {
		return nil, err
	}

	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1.0
	}

	sdkOpts := []sdktrace.TracerProviderOption{
		// Schemaless so the resource merges with any SDK default.
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	}
	if exp != nil {
		sdkOpts = append(sdkOpts, sdktrace.WithBatcher(exp))
	}
	sdk := sdktrace.NewTracerProvider(sdkOpts...)
	otel.SetTracerProvider(sdk)

	return &Provider{sdk: sdk, tracer: sdk.Tracer(name)}, nil
}

func newExporter(cfg Config, o options) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterNone, "":
		return nil, nil
	case ExporterFile:
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("tracing: file_path required for the file exporter")
		}
		return NewJSONLExporter(o.fs, cfg.FilePath)
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(o.stdout), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("tracing: stdout exporter: %w", err)
		}
		return exp, nil
	case ExporterOTLP:
		endpoint := cfg.OTLPEndpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		exp, err := otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("tracing: otlp exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("tracing: unsupported exporter %q", cfg.Exporter)
	}
}

// Tracer returns the tracer session operations start spans on.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p.sdk != nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}
