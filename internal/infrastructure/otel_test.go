package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandicli/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestInitializeOTel_Disabled(t *testing.T) {
	providers, err := InitializeOTel(nil, testLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Registry)

	ctx, span := providers.Tracer.Start(context.Background(), "noop")
	span.End()
	assert.Empty(t, TraceIDFromContext(ctx))

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_WritesTraceAndMetrics(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultOTelConfig()
	cfg.TraceFile = filepath.Join(dir, "trace.json")
	cfg.MetricsFile = filepath.Join(dir, "metrics.prom")

	providers, err := InitializeOTel(cfg, testLogger())
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx, span := providers.Tracer.Start(context.Background(), "load")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	RecordError(ctx, errors.New("boom"))
	metrics.RecordLoad(ctx, 16, 2)
	metrics.RecordStage(ctx, "load", 150*time.Millisecond, nil)
	metrics.RecordRun(ctx, nil)
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, providers.Shutdown(ctx))

	trace, err := os.ReadFile(cfg.TraceFile)
	require.NoError(t, err)
	assert.Contains(t, string(trace), `"Name": "load"`)
	assert.Contains(t, string(trace), "boom")

	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "bandi_records_loaded")
	assert.Contains(t, string(prom), "bandi_records_dropped")
	assert.Contains(t, string(prom), "bandi_stage_duration")
	assert.Contains(t, string(prom), `stage="load"`)
}

func TestOTelConfigFrom(t *testing.T) {
	oc := OTelConfigFrom(configObservability("t.json", "m.prom"))
	assert.Equal(t, "t.json", oc.TraceFile)
	assert.Equal(t, "m.prom", oc.MetricsFile)
	assert.Equal(t, ServiceName, oc.ServiceName)
}

func configObservability(trace, metrics string) config.ObservabilityConfig {
	return config.ObservabilityConfig{TraceFile: trace, MetricsFile: metrics}
}
