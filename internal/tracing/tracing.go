// Package tracing configures OpenTelemetry for the ranking engine and
// provides span helpers for its recalculation and storage paths.
package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Exporter kinds accepted by Config.Exporter.
const (
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// Config controls whether and where spans are exported.
type Config struct {
	// Enabled turns span export on. When false the provider is inert
	// and span helpers produce no-op spans.
	Enabled bool
	// ServiceName tags every span with the emitting service.
	ServiceName string
	// Environment tags spans (development, staging, production).
	Environment string
	// Exporter selects the OTLP transport. Empty means ExporterOTLPHTTP.
	Exporter string
	// Endpoint is the OTLP collector address. Empty uses the exporter's
	// own default.
	Endpoint string
	// SampleRate is the fraction of new traces to record, in [0, 1].
	SampleRate float64
	// Insecure disables TLS toward the collector (dev only).
	Insecure bool
	// Logger for provider lifecycle events. Nil uses slog.Default.
	Logger *slog.Logger
}

// Provider owns the SDK tracer provider for the process. A disabled
// provider is valid and all its methods are no-ops.
type Provider struct {
	tp      *sdktrace.TracerProvider
	enabled bool
	logger  *slog.Logger
}

// NewProvider builds the tracer provider, installs it globally, and
// sets W3C trace context propagation. Disabled configs return an inert
// provider without touching globals.
func NewProvider(cfg Config) (*Provider, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if !cfg.Enabled {
		logger.Info("tracing disabled")
		return &Provider{logger: logger}, nil
	}

	if cfg.ServiceName == "" {
		return nil, fmt.Errorf("tracing requires a service name")
	}
	if cfg.SampleRate < 0 || cfg.SampleRate > 1 {
		return nil, fmt.Errorf("sample rate %v outside [0, 1]", cfg.SampleRate)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to describe service resource: %w", err)
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		// Honor the parent's decision on propagated traces; sample
		// locally-rooted traces at the configured rate.
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracing initialized",
		"service", cfg.ServiceName,
		"exporter", exporterName(cfg.Exporter),
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate)

	return &Provider{tp: tp, enabled: true, logger: logger}, nil
}

func exporterName(kind string) string {
	if kind == "" {
		return ExporterOTLPHTTP
	}
	return kind
}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch exporterName(cfg.Exporter) {
	case ExporterOTLPHTTP:
		opts := []otlptracehttp.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case ExporterOTLPGRPC:
		opts := []otlptracegrpc.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown exporter %q", cfg.Exporter)
	}
}

// Shutdown flushes pending spans and releases the exporter. No-op on a
// disabled provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	p.logger.Info("flushing tracer provider")
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer provider: %w", err)
	}
	return nil
}

// Tracer returns a named tracer from this provider, or from the global
// (no-op when nothing installed one) on a disabled provider.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.tp == nil {
		return otel.Tracer(name)
	}
	return p.tp.Tracer(name)
}

// IsEnabled reports whether spans are being exported.
func (p *Provider) IsEnabled() bool {
	return p.enabled
}
