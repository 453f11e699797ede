package config

// Application constants
const (
	AppName    = "previsione-bandi"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. BANDI_FORECAST_HORIZON
	EnvPrefix = "BANDI"

	// DefaultConfigFile is looked up in the working directory when --config is not given
	DefaultConfigFile = "previsione_bandi.yaml"

	// Input contract
	DateColumn = "Data di pubblicazione"

	// Output artifacts
	OutputHTML    = "grafico_bandi_interattivo.html"
	ForecastYears = 10

	// Report texts
	ChartTitle      = "📈 Previsione Annuale del Numero di Bandi Autobus"
	XAxisTitle      = "Anno"
	YAxisTitle      = "Numero Bandi"
	HistoryLabel    = "Dati storici"
	ForecastLabel   = "Previsione"
	IntervalLabel   = "Intervallo di confidenza"
	TableHeading    = "📊 Previsioni future:"
	ChartSavedText  = "✅ Grafico interattivo salvato come:"
	ErrorLinePrefix = "❌ Errore:"

	// Chart canvas in CSS pixels
	ChartWidth  = 900
	ChartHeight = 600

	// Log settings
	DefaultLogLevel  = "warn"
	DefaultLogOutput = "stderr"
	DefaultLogFile   = "logs/previsione_bandi.log"
)
