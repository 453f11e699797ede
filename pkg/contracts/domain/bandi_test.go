package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestYearStart(t *testing.T) {
	got := YearStart(2021)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestLastYear(t *testing.T) {
	tests := []struct {
		name   string
		series []TimeSeriesPoint
		want   int
	}{
		{name: "empty", series: nil, want: 0},
		{
			name: "unordered",
			series: []TimeSeriesPoint{
				{Date: YearStart(2020), Value: 8},
				{Date: YearStart(2021), Value: 3},
				{Date: YearStart(2019), Value: 5},
			},
			want: 2021,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LastYear(tt.series))
		})
	}
}
