package domain

import (
	"time"
)

// Record represents a single tender ("bando") row read from the input spreadsheet.
// Only PublishedAt is used by the forecasting pipeline; the remaining cells are kept as attributes.
type Record struct {
	PublishedAt time.Time         `json:"published_at"`
	Year        int               `json:"year"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// LoadResult is the outcome of reading an input file
type LoadResult struct {
	Records     []Record `json:"records"`
	Sheet       string   `json:"sheet,omitempty"`
	TotalRows   int      `json:"total_rows"`
	DroppedRows int      `json:"dropped_rows"`
}

// YearlyCount is the number of records published in a given year
type YearlyCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// TimeSeriesPoint is one observation of the model input: Date is normalized to Jan 1 (UTC).
type TimeSeriesPoint struct {
	Date  time.Time `json:"ds"`
	Value int       `json:"y"`
}

// ForecastPoint is a model estimate with its uncertainty interval
type ForecastPoint struct {
	Date     time.Time `json:"ds"`
	Estimate float64   `json:"yhat"`
	Lower    float64   `json:"yhat_lower"`
	Upper    float64   `json:"yhat_upper"`
}

// ForecastRow is a future forecast point keyed by year, as printed in the forecast table
type ForecastRow struct {
	Year     int     `json:"anno"`
	Estimate float64 `json:"yhat"`
	Lower    float64 `json:"yhat_lower"`
	Upper    float64 `json:"yhat_upper"`
}

// YearStart returns Jan 1 of the given year in UTC
func YearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// LastYear returns the year of the latest point in the series, or 0 for an empty series.
func LastYear(series []TimeSeriesPoint) int {
	last := 0
	for _, p := range series {
		if y := p.Date.Year(); y > last {
			last = y
		}
	}
	return last
}
