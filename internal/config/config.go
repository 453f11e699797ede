package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Input         InputConfig         `yaml:"input" split_words:"true"`
	Forecast      ForecastConfig      `yaml:"forecast" split_words:"true"`
	Report        ReportConfig        `yaml:"report" split_words:"true"`
	Logging       LoggingConfig       `yaml:"logging" split_words:"true"`
	Observability ObservabilityConfig `yaml:"observability" split_words:"true"`
	StrictExit    bool                `yaml:"strict_exit" split_words:"true"`
}

// InputConfig describes where the tender records come from
type InputConfig struct {
	File       string `yaml:"file" split_words:"true" validate:"required"`
	Sheet      string `yaml:"sheet" split_words:"true"`
	DateColumn string `yaml:"date_column" split_words:"true" validate:"required"`
}

// ForecastConfig contains the model settings
type ForecastConfig struct {
	Horizon               int     `yaml:"horizon" split_words:"true" validate:"min=1,max=100"`
	YearlySeasonality     bool    `yaml:"yearly_seasonality" split_words:"true"`
	FourierOrder          int     `yaml:"fourier_order" split_words:"true" validate:"min=1,max=50"`
	ChangepointCount      int     `yaml:"changepoint_count" split_words:"true" validate:"min=0,max=100"`
	ChangepointRange      float64 `yaml:"changepoint_range" split_words:"true" validate:"gt=0,lte=1"`
	ChangepointPriorScale float64 `yaml:"changepoint_prior_scale" split_words:"true" validate:"gt=0"`
	SeasonalityPriorScale float64 `yaml:"seasonality_prior_scale" split_words:"true" validate:"gt=0"`
	IntervalWidth         float64 `yaml:"interval_width" split_words:"true" validate:"gt=0,lt=1"`
	UncertaintySamples    int     `yaml:"uncertainty_samples" split_words:"true" validate:"min=0,max=100000"`
	Seed                  uint64  `yaml:"seed" split_words:"true"`
}

// ReportConfig contains the output settings
type ReportConfig struct {
	OutputHTML string `yaml:"output_html" split_words:"true" validate:"required"`
	CSVPath    string `yaml:"csv_path" split_words:"true"`
	OpenViewer bool   `yaml:"open_viewer" split_words:"true"`
	Title      string `yaml:"title" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" split_words:"true" validate:"oneof=stderr file both none"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// ObservabilityConfig contains tracing and metrics outputs. Empty paths disable them.
type ObservabilityConfig struct {
	TraceFile   string `yaml:"trace_file" split_words:"true"`
	MetricsFile string `yaml:"metrics_file" split_words:"true"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Input: InputConfig{
			DateColumn: DateColumn,
		},
		Forecast: ForecastConfig{
			Horizon:               ForecastYears,
			YearlySeasonality:     true,
			FourierOrder:          10,
			ChangepointCount:      25,
			ChangepointRange:      0.8,
			ChangepointPriorScale: 0.05,
			SeasonalityPriorScale: 10,
			IntervalWidth:         0.8,
			UncertaintySamples:    1000,
			Seed:                  42,
		},
		Report: ReportConfig{
			OutputHTML: OutputHTML,
			OpenViewer: true,
			Title:      ChartTitle,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFile,
		},
	}
}

// Load builds the configuration from defaults, the YAML file, a .env file and
// BANDI_* environment variables, in increasing order of precedence.
// An empty configFile means DefaultConfigFile if present in the working directory.
// The result is not validated: callers apply flag overrides first and then call Validate.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			configFile = DefaultConfigFile
		}
	}

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Fields without a matching variable keep the file/default value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New()

// Validate checks the configuration against its struct constraints
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
