package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"bandicli/internal/config"
	"bandicli/internal/infrastructure"
	"bandicli/internal/pipeline"
)

// Exit codes
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitUsage  = 2
)

// errHandled marks a run failure that was already reported to the user
var errHandled = errors.New("run failed")

type options struct {
	file       string
	configFile string
	output     string
	sheet      string
	column     string
	csvPath    string
	logLevel   string
	horizon    int
	seed       uint64
	noOpen     bool
	strict     bool
}

// Execute runs the command line with args and returns the process exit code
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errHandled):
		return ExitFailed
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprint(stderr, cmd.UsageString())
		return ExitUsage
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           config.AppName + " --file <path>",
		Short:         "Previsione bandi autobus",
		Long:          "Counts tenders per publication year in a spreadsheet, forecasts the next years and writes an interactive chart.",
		Version:       config.AppVersion,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.file, "file", "", "Percorso file Excel con dati")
	flags.StringVar(&opts.configFile, "config", "", "YAML configuration file (default "+config.DefaultConfigFile+" if present)")
	flags.StringVar(&opts.output, "output", config.OutputHTML, "Chart HTML output path")
	flags.IntVar(&opts.horizon, "horizon", config.ForecastYears, "Number of future years to forecast")
	flags.StringVar(&opts.sheet, "sheet", "", "Worksheet to read (default: first sheet)")
	flags.StringVar(&opts.column, "column", config.DateColumn, "Header of the publication date column")
	flags.StringVar(&opts.csvPath, "csv", "", "Also write the future forecast to this CSV file")
	flags.BoolVar(&opts.noOpen, "no-open", false, "Do not open the chart after writing it")
	flags.Uint64Var(&opts.seed, "seed", 42, "Seed of the uncertainty simulation")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	flags.BoolVar(&opts.strict, "strict", false, "Exit with status 1 when the run fails")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// run loads the configuration, wires logging and telemetry and executes the pipeline.
// Failures are printed on stdout as a single line; they only change the exit code in strict mode.
func run(cmd *cobra.Command, opts options) error {
	stdout := cmd.OutOrStdout()
	strict := opts.strict

	fail := func(err error) error {
		fmt.Fprintf(stdout, "%s %v\n", config.ErrorLinePrefix, err)
		if strict {
			return errHandled
		}
		return nil
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return fail(err)
	}
	applyFlags(cmd, cfg, opts)
	strict = cfg.StrictExit

	if err := cfg.Validate(); err != nil {
		return fail(err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fail(err)
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Observability), logger)
	if err != nil {
		return fail(err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return fail(err)
	}

	runner := pipeline.New(cfg, pipeline.Deps{
		Logger:  logger,
		Tracer:  providers.Tracer,
		Metrics: metrics,
		Stdout:  stdout,
	})

	ctx := infrastructure.WithRunID(cmd.Context(), infrastructure.GenerateRunID())
	if _, err := runner.Run(ctx, cfg.Input.File); err != nil {
		return fail(err)
	}
	return nil
}

// applyFlags overlays the flags given on the command line onto cfg
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts options) {
	flags := cmd.Flags()

	cfg.Input.File = opts.file
	if flags.Changed("sheet") {
		cfg.Input.Sheet = opts.sheet
	}
	if flags.Changed("column") {
		cfg.Input.DateColumn = opts.column
	}
	if flags.Changed("output") {
		cfg.Report.OutputHTML = opts.output
	}
	if flags.Changed("horizon") {
		cfg.Forecast.Horizon = opts.horizon
	}
	if flags.Changed("seed") {
		cfg.Forecast.Seed = opts.seed
	}
	if flags.Changed("csv") {
		cfg.Report.CSVPath = opts.csvPath
	}
	if opts.noOpen {
		cfg.Report.OpenViewer = false
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.strict {
		cfg.StrictExit = true
	}
}

// Main is the entry point used by cmd/previsione-bandi
func Main() {
	os.Exit(Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
