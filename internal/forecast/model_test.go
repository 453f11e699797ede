package forecast

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandicli/internal/config"
	apperrors "bandicli/internal/errors"
	"bandicli/pkg/contracts/domain"
)

func yearlySeries(counts map[int]int) []domain.TimeSeriesPoint {
	series := make([]domain.TimeSeriesPoint, 0, len(counts))
	for year, n := range counts {
		series = append(series, domain.TimeSeriesPoint{Date: domain.YearStart(year), Value: n})
	}
	return series
}

func fitted(t *testing.T, cfg Config, series []domain.TimeSeriesPoint) *Model {
	t.Helper()
	m := New(cfg)
	require.NoError(t, m.Fit(context.Background(), series))
	return m
}

func forecastRows(t *testing.T, cfg Config, series []domain.TimeSeriesPoint, horizon int) ([]domain.ForecastPoint, []domain.ForecastRow) {
	t.Helper()
	m := fitted(t, cfg, series)

	dates, err := m.MakeFutureDates(horizon)
	require.NoError(t, err)

	points, err := m.Predict(context.Background(), dates)
	require.NoError(t, err)

	return points, FutureRows(points, domain.LastYear(series))
}

func TestFit_InsufficientData(t *testing.T) {
	tests := []struct {
		name   string
		series []domain.TimeSeriesPoint
	}{
		{"empty", nil},
		{"single point", yearlySeries(map[int]int{2020: 4})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(DefaultConfig()).Fit(context.Background(), tt.series)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInsufficientData))
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeModel))
		})
	}
}

func TestFit_SameDate(t *testing.T) {
	series := []domain.TimeSeriesPoint{
		{Date: domain.YearStart(2020), Value: 1},
		{Date: domain.YearStart(2020), Value: 2},
	}

	err := New(DefaultConfig()).Fit(context.Background(), series)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeModel))
}

func TestFit_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(DefaultConfig()).Fit(ctx, yearlySeries(map[int]int{2019: 5, 2020: 8, 2021: 3}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredict_NotFitted(t *testing.T) {
	m := New(DefaultConfig())

	_, err := m.Predict(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = m.MakeFutureDates(10)
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.Nil(t, m.Summary())
}

func TestMakeFutureDates(t *testing.T) {
	m := fitted(t, DefaultConfig(), yearlySeries(map[int]int{2019: 5, 2020: 8, 2021: 3}))

	dates, err := m.MakeFutureDates(10)
	require.NoError(t, err)
	require.Len(t, dates, 13)

	assert.Equal(t, domain.YearStart(2019), dates[0])
	assert.Equal(t, domain.YearStart(2021), dates[2])
	for i := 0; i < 10; i++ {
		assert.Equal(t, domain.YearStart(2022+i), dates[3+i])
	}

	_, err = m.MakeFutureDates(-1)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestForecast_ThreeYears(t *testing.T) {
	series := yearlySeries(map[int]int{2019: 5, 2020: 8, 2021: 3})

	points, rows := forecastRows(t, DefaultConfig(), series, 10)

	assert.Len(t, points, 13)
	require.Len(t, rows, 10)
	for i, r := range rows {
		assert.Equal(t, 2022+i, r.Year)
		assert.False(t, math.IsNaN(r.Estimate))
		assert.LessOrEqual(t, r.Lower, r.Estimate)
		assert.LessOrEqual(t, r.Estimate, r.Upper)
	}
}

func TestForecast_BoundsHoldForAllPoints(t *testing.T) {
	series := yearlySeries(map[int]int{
		2010: 12, 2011: 15, 2012: 11, 2013: 18, 2014: 20, 2015: 19,
		2016: 25, 2017: 23, 2018: 30, 2019: 28, 2020: 14, 2021: 26,
	})

	points, rows := forecastRows(t, DefaultConfig(), series, 10)

	require.Len(t, rows, 10)
	for _, p := range points {
		assert.LessOrEqual(t, p.Lower, p.Estimate, p.Date.String())
		assert.LessOrEqual(t, p.Estimate, p.Upper, p.Date.String())
	}
	for _, r := range rows {
		assert.Greater(t, r.Upper, r.Lower)
	}
}

func TestForecast_LinearSeriesTracksTrend(t *testing.T) {
	counts := make(map[int]int)
	for year := 2000; year <= 2019; year++ {
		counts[year] = 10 + 2*(year-2000)
	}
	cfg := DefaultConfig()
	cfg.YearlySeasonality = false

	points, rows := forecastRows(t, cfg, yearlySeries(counts), 5)

	for i := 0; i < 20; i++ {
		assert.InDelta(t, float64(10+2*i), points[i].Estimate, 1.0)
	}
	require.Len(t, rows, 5)
	assert.InDelta(t, 50.0, rows[0].Estimate, 2.0)
	assert.Greater(t, rows[4].Estimate, rows[0].Estimate)
}

func TestForecast_Deterministic(t *testing.T) {
	series := yearlySeries(map[int]int{2017: 4, 2018: 9, 2019: 5, 2020: 8, 2021: 3})

	_, first := forecastRows(t, DefaultConfig(), series, 10)
	_, second := forecastRows(t, DefaultConfig(), series, 10)
	assert.Equal(t, first, second)

	cfg := DefaultConfig()
	cfg.Seed = 7
	_, other := forecastRows(t, cfg, series, 10)
	assert.NotEqual(t, first, other)
}

func TestForecast_NoUncertaintySamples(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UncertaintySamples = 0

	_, rows := forecastRows(t, cfg, yearlySeries(map[int]int{2019: 5, 2020: 8, 2021: 3}), 3)

	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, r.Estimate, r.Lower)
		assert.Equal(t, r.Estimate, r.Upper)
	}
}

func TestForecast_TwoPoints(t *testing.T) {
	_, rows := forecastRows(t, DefaultConfig(), yearlySeries(map[int]int{2020: 2, 2021: 4}), 10)

	require.Len(t, rows, 10)
	assert.Equal(t, 2022, rows[0].Year)
	assert.Equal(t, 2031, rows[9].Year)
}

func TestSummary(t *testing.T) {
	counts := make(map[int]int)
	for year := 2000; year < 2010; year++ {
		counts[year] = year - 1995
	}

	s := fitted(t, DefaultConfig(), yearlySeries(counts)).Summary()
	require.NotNil(t, s)

	assert.Equal(t, 10, s.Observations)
	// floor(10*0.8) = 8 history points leave room for 7 changepoints
	assert.Len(t, s.Changepoints, 7)
	assert.Equal(t, 14.0, s.YScale)
	assert.Greater(t, s.Sigma, 0.0)
	assert.GreaterOrEqual(t, s.Iterations, 1)
	for i := 1; i < len(s.Changepoints); i++ {
		assert.True(t, s.Changepoints[i].After(s.Changepoints[i-1]))
	}
}

func TestFutureRows(t *testing.T) {
	points := []domain.ForecastPoint{
		{Date: domain.YearStart(2020), Estimate: 1},
		{Date: domain.YearStart(2021), Estimate: 2},
		{Date: domain.YearStart(2022), Estimate: 3, Lower: 2, Upper: 4},
	}

	rows := FutureRows(points, 2021)

	assert.Equal(t, []domain.ForecastRow{{Year: 2022, Estimate: 3, Lower: 2, Upper: 4}}, rows)
	assert.Empty(t, FutureRows(points, 2022))
}

func TestConfigFrom(t *testing.T) {
	fc := config.Default().Forecast
	fc.Seed = 99
	fc.UncertaintySamples = 50
	fc.YearlySeasonality = false

	cfg := ConfigFrom(fc)

	assert.Equal(t, uint64(99), cfg.Seed)
	assert.Equal(t, 50, cfg.UncertaintySamples)
	assert.False(t, cfg.YearlySeasonality)
	assert.Equal(t, 365.25, cfg.SeasonalityPeriodDays)
	assert.Equal(t, 5.0, cfg.TrendPriorScale)
}
