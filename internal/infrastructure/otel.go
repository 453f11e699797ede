package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"bandicli/internal/config"
)

const (
	ServiceName = config.AppName
	MeterName   = "bandicli"
)

// OTelConfig holds OpenTelemetry configuration. Empty file paths disable the matching output.
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	TraceFile      string
	MetricsFile    string
}

// OTelProviders owns the tracer and meter of one CLI run and the files they write to
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Logger         *slog.Logger

	traceFile   *os.File
	metricsFile string
}

// DefaultOTelConfig returns a configuration with both outputs disabled
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: config.AppVersion,
	}
}

// OTelConfigFrom maps the application configuration onto OTelConfig
func OTelConfigFrom(cfg config.ObservabilityConfig) *OTelConfig {
	oc := DefaultOTelConfig()
	oc.TraceFile = cfg.TraceFile
	oc.MetricsFile = cfg.MetricsFile
	return oc
}

// InitializeOTel sets up tracing and metrics.
// Spans are exported synchronously to the trace file; metrics are collected into a private
// Prometheus registry and written in text format on Shutdown.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	providers := &OTelProviders{
		Logger:      logger,
		metricsFile: cfg.MetricsFile,
	}

	if err := initializeTracing(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := initializeMetrics(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.Debug("OpenTelemetry initialized",
		slog.String("trace_file", cfg.TraceFile),
		slog.String("metrics_file", cfg.MetricsFile))

	return providers, nil
}

// initializeTracing sets up span export to a file, or a no-op tracer when disabled
func initializeTracing(cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	if cfg.TraceFile == "" {
		providers.Tracer = noop.NewTracerProvider().Tracer(MeterName)
		return nil
	}

	f, err := os.Create(cfg.TraceFile)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(f),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)

	providers.traceFile = f
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)
	return nil
}

// initializeMetrics wires the otel meter to a Prometheus registry
func initializeMetrics(cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	return nil
}

// WriteMetrics writes the current metric values in Prometheus text format
func (p *OTelProviders) WriteMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, p.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// Shutdown flushes spans, writes the metrics file if configured and releases the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush spans: %w", err))
		}
	}
	if p.traceFile != nil {
		if err := p.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
		p.traceFile = nil
	}

	if p.metricsFile != "" && p.Registry != nil {
		if err := p.WriteMetrics(p.metricsFile); err != nil {
			errs = append(errs, err)
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop meter provider: %w", err))
		}
	}

	return errors.Join(errs...)
}

// TraceIDFromContext returns the hex trace id of the span in ctx, or "" outside a sampled span
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span and marks it failed
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// PipelineMetrics holds the forecasting pipeline instruments
type PipelineMetrics struct {
	RecordsLoaded  metric.Int64Counter
	RecordsDropped metric.Int64Counter
	Runs           metric.Int64Counter
	StageDuration  metric.Float64Histogram
}

// CreatePipelineMetrics creates the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	recordsLoaded, err := meter.Int64Counter(
		"bandi_records_loaded",
		metric.WithDescription("Number of tender records with a valid publication date"),
	)
	if err != nil {
		return nil, err
	}

	recordsDropped, err := meter.Int64Counter(
		"bandi_records_dropped",
		metric.WithDescription("Number of rows dropped because the publication date could not be parsed"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter(
		"bandi_pipeline_runs",
		metric.WithDescription("Number of pipeline runs by outcome"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"bandi_stage_duration",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RecordsLoaded:  recordsLoaded,
		RecordsDropped: recordsDropped,
		Runs:           runs,
		StageDuration:  stageDuration,
	}, nil
}

// RecordLoad records the loader outcome
func (m *PipelineMetrics) RecordLoad(ctx context.Context, loaded, dropped int) {
	m.RecordsLoaded.Add(ctx, int64(loaded))
	m.RecordsDropped.Add(ctx, int64(dropped))
}

// RecordStage records the duration and status of one stage
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration, err error) {
	m.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", statusOf(err)),
	))
}

// RecordRun records the outcome of a whole run
func (m *PipelineMetrics) RecordRun(ctx context.Context, err error) {
	m.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", statusOf(err))))
}

func statusOf(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
