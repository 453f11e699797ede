package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DateColumn, cfg.Input.DateColumn)
	assert.Equal(t, ForecastYears, cfg.Forecast.Horizon)
	assert.True(t, cfg.Forecast.YearlySeasonality)
	assert.Equal(t, 10, cfg.Forecast.FourierOrder)
	assert.Equal(t, 25, cfg.Forecast.ChangepointCount)
	assert.InDelta(t, 0.8, cfg.Forecast.IntervalWidth, 1e-12)
	assert.Equal(t, 1000, cfg.Forecast.UncertaintySamples)
	assert.Equal(t, OutputHTML, cfg.Report.OutputHTML)
	assert.True(t, cfg.Report.OpenViewer)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.False(t, cfg.StrictExit)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		yaml        string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "yaml overlays defaults",
			yaml: `
input:
  sheet: Foglio1
forecast:
  horizon: 5
  seed: 7
report:
  csv_path: previsioni.csv
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "Foglio1", cfg.Input.Sheet)
				assert.Equal(t, DateColumn, cfg.Input.DateColumn)
				assert.Equal(t, 5, cfg.Forecast.Horizon)
				assert.Equal(t, uint64(7), cfg.Forecast.Seed)
				assert.Equal(t, 25, cfg.Forecast.ChangepointCount)
				assert.Equal(t, "previsioni.csv", cfg.Report.CSVPath)
				assert.Equal(t, OutputHTML, cfg.Report.OutputHTML)
			},
		},
		{
			name: "env overrides yaml",
			yaml: `
forecast:
  horizon: 5
logging:
  level: debug
`,
			env: map[string]string{
				"BANDI_FORECAST_HORIZON":   "12",
				"BANDI_REPORT_OPEN_VIEWER": "false",
				"BANDI_STRICT_EXIT":        "true",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 12, cfg.Forecast.Horizon)
				assert.False(t, cfg.Report.OpenViewer)
				assert.True(t, cfg.StrictExit)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			configFile := ""
			if tt.yaml != "" {
				configFile = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte(tt.yaml), 0644))
			}

			cfg, err := Load(configFile)
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_IgnoresUnprefixedEnv(t *testing.T) {
	for _, k := range []string{"OUTPUT", "TITLE", "LEVEL", "SEED", "HORIZON", "FILE"} {
		t.Setenv(k, "x")
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	cfg.Input.File = "bandi.xlsx"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_SplitWordNames(t *testing.T) {
	t.Setenv("BANDI_REPORT_OUTPUT_HTML", "chart.html")
	t.Setenv("BANDI_REPORT_CSV_PATH", "out.csv")
	t.Setenv("BANDI_INPUT_DATE_COLUMN", "Pubblicato")
	t.Setenv("BANDI_OBSERVABILITY_METRICS_FILE", "metrics.prom")
	t.Setenv("BANDI_LOGGING_OUTPUT", "none")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "chart.html", cfg.Report.OutputHTML)
	assert.Equal(t, "out.csv", cfg.Report.CSVPath)
	assert.Equal(t, "Pubblicato", cfg.Input.DateColumn)
	assert.Equal(t, "metrics.prom", cfg.Observability.MetricsFile)
	assert.Equal(t, "none", cfg.Logging.Output)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config from file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("forecast: [unclosed"), 0644))
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("malformed env value", func(t *testing.T) {
		t.Setenv("BANDI_FORECAST_HORIZON", "ten")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config from env")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Input.File = "bandi.xlsx"
		return cfg
	}

	tests := []struct {
		name          string
		mutate        func(*Config)
		wantErr       bool
		errorContains string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:          "missing input file",
			mutate:        func(c *Config) { c.Input.File = "" },
			wantErr:       true,
			errorContains: "Config.Input.File",
		},
		{
			name:          "horizon zero",
			mutate:        func(c *Config) { c.Forecast.Horizon = 0 },
			wantErr:       true,
			errorContains: "Config.Forecast.Horizon",
		},
		{
			name:          "interval width out of range",
			mutate:        func(c *Config) { c.Forecast.IntervalWidth = 1.5 },
			wantErr:       true,
			errorContains: "IntervalWidth",
		},
		{
			name:          "unknown log level",
			mutate:        func(c *Config) { c.Logging.Level = "verbose" },
			wantErr:       true,
			errorContains: "Config.Logging.Level",
		},
		{
			name:          "empty output file",
			mutate:        func(c *Config) { c.Report.OutputHTML = "" },
			wantErr:       true,
			errorContains: "OutputHTML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
