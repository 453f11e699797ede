// Package config provides configuration loading for the forecasting CLI.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Command-line flags (highest priority, applied by the CLI)
//  2. Environment variables, BANDI_* (a .env file in the working directory is loaded first)
//  3. YAML file (--config, or previsione_bandi.yaml in the working directory)
//  4. Default values (lowest priority)
//
// # Environment Variables
//
// Nested fields are addressed by section:
//
//	BANDI_INPUT_SHEET=Foglio1
//	BANDI_FORECAST_HORIZON=10
//	BANDI_FORECAST_SEED=7
//	BANDI_REPORT_OPEN_VIEWER=false
//	BANDI_LOGGING_LEVEL=debug
//	BANDI_OBSERVABILITY_METRICS_FILE=metrics.prom
//	BANDI_STRICT_EXIT=true
//
// # YAML File
//
//	input:
//	  date_column: Data di pubblicazione
//	forecast:
//	  horizon: 10
//	  interval_width: 0.8
//	report:
//	  output_html: grafico_bandi_interattivo.html
//	  csv_path: previsioni.csv
//
// Validation uses go-playground/validator struct tags and runs once, after flags are applied.
package config
