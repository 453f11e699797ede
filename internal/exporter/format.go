package exporter

import (
	"math"
	"strconv"
)

// formatFloat formats a value with exactly 2 decimal places so that 13.4 prints as 13.40
func formatFloat(f float64) string {
	// Avoid "-0.00" for values that round to zero
	if math.Abs(f) < 0.005 {
		f = 0
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatYear(year int) string {
	return strconv.Itoa(year)
}
