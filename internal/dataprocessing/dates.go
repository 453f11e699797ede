package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order after the numeric forms. Day-first layouts come before
// month-first ones because the source spreadsheets are Italian; only the year is used
// downstream, so an ambiguous day/month pair never changes the result.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2/1/2006",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"02.01.2006",
	"01-02-06",
	"1/2/06 15:04",
	"02/01/06",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2006",
}

// Excel serial numbers for 1900-01-01 and 9999-12-31
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// ParseDate interprets a spreadsheet cell as a date.
// It accepts four-digit years, Excel serial numbers and the layouts in dateLayouts.
// The second result is false when the value cannot be interpreted; callers drop such rows.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if year, err := strconv.Atoi(s); err == nil && len(s) == 4 && year >= 1000 {
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}

	if isDecimal(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) ||
			serial < minExcelSerial || serial > maxExcelSerial {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isDecimal reports whether s is plain digits with at most one decimal point.
// ParseFloat alone also accepts NaN, Inf, exponents and underscores.
func isDecimal(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
