package forecast

import (
	"bandicli/internal/config"
)

// Config holds the model hyperparameters
type Config struct {
	YearlySeasonality     bool
	FourierOrder          int
	SeasonalityPeriodDays float64

	// ChangepointCount is an upper bound: short series get at most one changepoint per
	// observation inside ChangepointRange.
	ChangepointCount      int
	ChangepointRange      float64
	ChangepointPriorScale float64
	SeasonalityPriorScale float64
	TrendPriorScale       float64

	IntervalWidth      float64
	UncertaintySamples int
	Seed               uint64
}

// DefaultConfig returns the standard model settings
func DefaultConfig() Config {
	return Config{
		YearlySeasonality:     true,
		FourierOrder:          10,
		SeasonalityPeriodDays: 365.25,
		ChangepointCount:      25,
		ChangepointRange:      0.8,
		ChangepointPriorScale: 0.05,
		SeasonalityPriorScale: 10,
		TrendPriorScale:       5,
		IntervalWidth:         0.8,
		UncertaintySamples:    1000,
		Seed:                  42,
	}
}

// ConfigFrom maps the application forecast settings onto a model Config
func ConfigFrom(fc config.ForecastConfig) Config {
	cfg := DefaultConfig()
	cfg.YearlySeasonality = fc.YearlySeasonality
	if fc.FourierOrder > 0 {
		cfg.FourierOrder = fc.FourierOrder
	}
	cfg.ChangepointCount = fc.ChangepointCount
	if fc.ChangepointRange > 0 {
		cfg.ChangepointRange = fc.ChangepointRange
	}
	if fc.ChangepointPriorScale > 0 {
		cfg.ChangepointPriorScale = fc.ChangepointPriorScale
	}
	if fc.SeasonalityPriorScale > 0 {
		cfg.SeasonalityPriorScale = fc.SeasonalityPriorScale
	}
	if fc.IntervalWidth > 0 {
		cfg.IntervalWidth = fc.IntervalWidth
	}
	cfg.UncertaintySamples = fc.UncertaintySamples
	cfg.Seed = fc.Seed
	return cfg
}
