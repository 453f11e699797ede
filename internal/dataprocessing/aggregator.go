package dataprocessing

import (
	"sort"

	"bandicli/pkg/contracts/domain"
)

// CountByYear groups records by publication year.
// The result is ordered by ascending year and contains only years with at least one record.
func CountByYear(records []domain.Record) []domain.YearlyCount {
	byYear := make(map[int]int)
	for _, r := range records {
		year := r.Year
		if year == 0 {
			year = r.PublishedAt.Year()
		}
		byYear[year]++
	}

	counts := make([]domain.YearlyCount, 0, len(byYear))
	for year, n := range byYear {
		counts = append(counts, domain.YearlyCount{Year: year, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Year < counts[j].Year
	})
	return counts
}

// ToTimeSeries converts yearly counts into model input, one point per year dated Jan 1
func ToTimeSeries(counts []domain.YearlyCount) []domain.TimeSeriesPoint {
	series := make([]domain.TimeSeriesPoint, len(counts))
	for i, c := range counts {
		series[i] = domain.TimeSeriesPoint{
			Date:  domain.YearStart(c.Year),
			Value: c.Count,
		}
	}
	return series
}

// BuildSeries is CountByYear followed by ToTimeSeries
func BuildSeries(records []domain.Record) []domain.TimeSeriesPoint {
	return ToTimeSeries(CountByYear(records))
}
