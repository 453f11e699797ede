package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"bandicli/internal/config"
	"bandicli/internal/dataprocessing"
	"bandicli/internal/exporter"
	"bandicli/internal/forecast"
	"bandicli/internal/infrastructure"
	"bandicli/pkg/contracts/domain"
)

// Stage names, also used as span names and metric labels
const (
	StageLoad      = "load"
	StageAggregate = "aggregate"
	StageFit       = "fit"
	StageReport    = "report"
)

// Deps are the collaborators of a Runner. Nil fields get working defaults.
type Deps struct {
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *infrastructure.PipelineMetrics
	Opener  exporter.Opener
	Stdout  io.Writer
}

// Result is everything a run produced
type Result struct {
	RunID       string
	TotalRows   int
	DroppedRows int
	History     []domain.TimeSeriesPoint
	Forecast    []domain.ForecastPoint
	Rows        []domain.ForecastRow
	Summary     *forecast.Summary
	ChartPath   string
	CSVPath     string
}

// Runner executes the forecast pipeline
type Runner struct {
	cfg    *config.Config
	deps   Deps
	loader *dataprocessing.Loader
	chart  *exporter.ChartRenderer
	csv    *exporter.CSVWriter
}

// New creates a runner for cfg
func New(cfg *config.Config, deps Deps) *Runner {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider().Tracer(infrastructure.MeterName)
	}
	if deps.Opener == nil {
		deps.Opener = exporter.NewViewer(deps.Logger)
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}

	return &Runner{
		cfg:    cfg,
		deps:   deps,
		loader: dataprocessing.NewLoader(deps.Logger),
		chart: exporter.NewChartRenderer(exporter.ChartOptions{
			Title:  cfg.Report.Title,
			Width:  config.ChartWidth,
			Height: config.ChartHeight,
		}, deps.Logger),
		csv: exporter.NewCSVWriter(deps.Logger),
	}
}

// Run forecasts the tenders in path and writes the reports
func (r *Runner) Run(ctx context.Context, path string) (*Result, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	result := &Result{RunID: infrastructure.GetRunID(ctx)}

	ctx, span := r.deps.Tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run.id", result.RunID),
		attribute.String("input.path", path),
	))
	defer span.End()

	logger := r.deps.Logger
	logger.InfoContext(ctx, "Pipeline started", slog.String("file", path))
	start := time.Now()

	err := r.run(ctx, path, result)

	if r.deps.Metrics != nil {
		r.deps.Metrics.RecordRun(ctx, err)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		logger.ErrorContext(ctx, "Pipeline failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return result, err
	}

	logger.InfoContext(ctx, "Pipeline completed",
		slog.Int("history_points", len(result.History)),
		slog.Int("forecast_rows", len(result.Rows)),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

func (r *Runner) run(ctx context.Context, path string, result *Result) error {
	var records []domain.Record
	err := r.stage(ctx, StageLoad, func(ctx context.Context) error {
		loaded, err := r.loader.Load(ctx, path, dataprocessing.LoadOptions{
			Sheet:      r.cfg.Input.Sheet,
			DateColumn: r.cfg.Input.DateColumn,
		})
		if err != nil {
			return err
		}
		records = loaded.Records
		result.TotalRows = loaded.TotalRows
		result.DroppedRows = loaded.DroppedRows
		if r.deps.Metrics != nil {
			r.deps.Metrics.RecordLoad(ctx, len(loaded.Records), loaded.DroppedRows)
		}
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int("records.loaded", len(loaded.Records)),
			attribute.Int("records.dropped", loaded.DroppedRows),
		)
		return nil
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, StageAggregate, func(ctx context.Context) error {
		result.History = dataprocessing.BuildSeries(records)
		r.deps.Logger.DebugContext(ctx, "Yearly series built", slog.Int("years", len(result.History)))
		return nil
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, StageFit, func(ctx context.Context) error {
		model := forecast.New(forecast.ConfigFrom(r.cfg.Forecast))
		if err := model.Fit(ctx, result.History); err != nil {
			return err
		}
		result.Summary = model.Summary()

		dates, err := model.MakeFutureDates(r.cfg.Forecast.Horizon)
		if err != nil {
			return err
		}
		result.Forecast, err = model.Predict(ctx, dates)
		if err != nil {
			return err
		}
		result.Rows = forecast.FutureRows(result.Forecast, domain.LastYear(result.History))

		r.deps.Logger.DebugContext(ctx, "Model fitted",
			slog.Int("observations", result.Summary.Observations),
			slog.Int("changepoints", len(result.Summary.Changepoints)),
			slog.Float64("sigma", result.Summary.Sigma),
			slog.Int("iterations", result.Summary.Iterations))
		return nil
	})
	if err != nil {
		return err
	}

	return r.stage(ctx, StageReport, func(ctx context.Context) error {
		return r.report(ctx, result)
	})
}

// report writes the chart first so that a later failure leaves it in place without a table
func (r *Runner) report(ctx context.Context, result *Result) error {
	out := r.cfg.Report.OutputHTML
	if err := r.chart.Render(out, result.History, result.Forecast); err != nil {
		return err
	}
	result.ChartPath = out

	if r.cfg.Report.OpenViewer {
		if err := r.deps.Opener.Open(ctx, out); err != nil {
			r.deps.Logger.WarnContext(ctx, "Could not open chart viewer",
				slog.String("path", out),
				slog.String("error", err.Error()))
		}
	}

	if _, err := fmt.Fprintf(r.deps.Stdout, "\n%s %s\n", config.ChartSavedText, out); err != nil {
		return err
	}

	if err := exporter.WriteForecastTable(r.deps.Stdout, result.Rows); err != nil {
		return err
	}

	if r.cfg.Report.CSVPath != "" {
		if err := r.csv.WriteForecastCSV(r.cfg.Report.CSVPath, result.Rows); err != nil {
			return err
		}
		result.CSVPath = r.cfg.Report.CSVPath
	}
	return nil
}

// stage runs fn inside a span named after the stage and records its duration
func (r *Runner) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := r.deps.Tracer.Start(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	if r.deps.Metrics != nil {
		r.deps.Metrics.RecordStage(ctx, name, duration, err)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		r.deps.Logger.DebugContext(ctx, "Stage failed",
			slog.String("stage", name),
			slog.Duration("duration", duration))
		return err
	}

	r.deps.Logger.DebugContext(ctx, "Stage completed",
		slog.String("stage", name),
		slog.Duration("duration", duration))
	return nil
}
