package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/signalsfoundry/coverage-planner/internal/logging"
)

// Span exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

const exportTimeout = 10 * time.Second

// ErrInvalidTracing is returned by TracingConfig.Validate and ApplyEnv.
var ErrInvalidTracing = errors.New("invalid tracing configuration")

// TracingConfig selects the span exporter and describes the planner
// process on every exported span.
type TracingConfig struct {
	Enabled        bool              `yaml:"enabled"`
	ServiceName    string            `yaml:"service_name"`
	ServiceVersion string            `yaml:"service_version"`
	Environment    string            `yaml:"environment"`
	Exporter       string            `yaml:"exporter"` // none | stdout | otlp
	Endpoint       string            `yaml:"endpoint"` // otlp collector host:port
	Insecure       bool              `yaml:"insecure"`
	Headers        map[string]string `yaml:"headers"`
	SampleRatio    float64           `yaml:"sample_ratio"`
}

// DefaultTracingConfig has tracing off; once enabled every root span is
// sampled and printed to stdout.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "coverage-planner",
		Environment: "development",
		Exporter:    ExporterStdout,
		Endpoint:    "localhost:4317",
		Insecure:    true,
		SampleRatio: 1.0,
	}
}

// ApplyEnv overrides cfg with the PLANNER_TRACING_* and PLANNER_OTLP_*
// variables that are set. Malformed values are errors.
func (cfg TracingConfig) ApplyEnv() (TracingConfig, error) {
	if v := os.Getenv("PLANNER_TRACING_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: PLANNER_TRACING_ENABLED=%q", ErrInvalidTracing, v)
		}
		cfg.Enabled = b
	}
	if v := os.Getenv("PLANNER_TRACING_EXPORTER"); v != "" {
		cfg.Exporter = strings.ToLower(v)
	}
	if v := os.Getenv("PLANNER_TRACING_SERVICE_NAME"); v != "" {
		cfg.ServiceName = v
	}
	if v := os.Getenv("PLANNER_ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("PLANNER_TRACING_SAMPLE_RATIO"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("%w: PLANNER_TRACING_SAMPLE_RATIO=%q", ErrInvalidTracing, v)
		}
		cfg.SampleRatio = r
	}
	if v := os.Getenv("PLANNER_OTLP_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("PLANNER_OTLP_INSECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: PLANNER_OTLP_INSECURE=%q", ErrInvalidTracing, v)
		}
		cfg.Insecure = b
	}
	if v := os.Getenv("PLANNER_OTLP_HEADERS"); v != "" {
		headers, err := parseHeaders(v)
		if err != nil {
			return cfg, err
		}
		cfg.Headers = headers
	}
	return cfg, nil
}

// parseHeaders reads "k1=v1,k2=v2".
func parseHeaders(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: PLANNER_OTLP_HEADERS entry %q is not key=value", ErrInvalidTracing, pair)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// Validate checks the exporter choice and the sample ratio.
func (cfg TracingConfig) Validate() error {
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return fmt.Errorf("%w: sample_ratio %v must be within [0,1]", ErrInvalidTracing, cfg.SampleRatio)
	}
	switch strings.ToLower(cfg.Exporter) {
	case "", ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if cfg.Enabled && cfg.Endpoint == "" {
			return fmt.Errorf("%w: endpoint is required for the otlp exporter", ErrInvalidTracing)
		}
	default:
		return fmt.Errorf("%w: unsupported exporter %q", ErrInvalidTracing, cfg.Exporter)
	}
	return nil
}

// TracingOption adjusts InitTracing.
type TracingOption func(*tracingSetup)

type tracingSetup struct {
	stdout io.Writer
}

// WithSpanWriter redirects the stdout exporter.
func WithSpanWriter(w io.Writer) TracingOption {
	return func(s *tracingSetup) { s.stdout = w }
}

// InitTracing installs the global tracer provider and propagators for cfg.
// The returned function flushes and stops the exporter.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger, opts ...TracingOption) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}
	setup := tracingSetup{stdout: os.Stdout}
	for _, opt := range opts {
		opt(&setup)
	}

	if !cfg.Enabled || strings.EqualFold(cfg.Exporter, ExporterNone) {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Info(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	exp, err := newSpanExporter(ctx, cfg, setup.stdout)
	if err != nil {
		return nil, err
	}
	res, err := plannerResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(samplerFor(cfg.SampleRatio)),
		sdktrace.WithBatcher(exp, sdktrace.WithExportTimeout(exportTimeout)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", cfg.Exporter),
		logging.String("endpoint", cfg.Endpoint),
		logging.String("environment", cfg.Environment),
		logging.Float64("sample_ratio", cfg.SampleRatio),
	)
	return tp.Shutdown, nil
}

// plannerResource merges the configured service identity over
// OTEL_RESOURCE_ATTRIBUTES and the host attributes.
func plannerResource(ctx context.Context, cfg TracingConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.namespace", "coverage"),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", cfg.Environment))
	}
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
	if err != nil && !errors.Is(err, resource.ErrPartialResource) {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}
	return res, nil
}

func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func newSpanExporter(ctx context.Context, cfg TracingConfig, stdout io.Writer) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case "", ExporterStdout:
		return stdouttrace.New(stdouttrace.WithWriter(stdout), stdouttrace.WithoutTimestamps())
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithTimeout(exportTimeout),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	}
	return nil, fmt.Errorf("%w: unsupported exporter %q", ErrInvalidTracing, cfg.Exporter)
}

// ShutdownWithTimeout flushes spans within five seconds and logs a failure.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
