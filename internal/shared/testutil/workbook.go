package testutil

import (
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// DateColumn is the publication date header used by the fixtures
const DateColumn = "Data di pubblicazione"

// WriteWorkbook saves rows to the first sheet of a new .xlsx file in a test directory.
// The first row is the header.
func WriteWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "bandi.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// BandiRows builds a header plus one row per tender, counts[year] tenders published on
// March 15 of each year, in ascending year order.
func BandiRows(counts map[int]int) [][]any {
	years := make([]int, 0, len(counts))
	for year := range counts {
		years = append(years, year)
	}
	sort.Ints(years)

	rows := [][]any{{"Oggetto", DateColumn}}
	for _, year := range years {
		for i := 0; i < counts[year]; i++ {
			rows = append(rows, []any{"Fornitura autobus", fmt.Sprintf("%d-03-15", year)})
		}
	}
	return rows
}

// WriteBandiWorkbook writes BandiRows(counts) to a new workbook
func WriteBandiWorkbook(t *testing.T, counts map[int]int) string {
	t.Helper()
	return WriteWorkbook(t, BandiRows(counts))
}
