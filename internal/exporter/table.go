package exporter

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"bandicli/internal/config"
	"bandicli/pkg/contracts/domain"
)

// forecastHeaders are the printed column names, in order
var forecastHeaders = []string{"Anno", "yhat", "yhat_lower", "yhat_upper"}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).Align(lipgloss.Center)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
)

// forecastCells formats rows as table cells: year, estimate, lower, upper with 2 decimals
func forecastCells(rows []domain.ForecastRow) [][]string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{
			formatYear(r.Year),
			formatFloat(r.Estimate),
			formatFloat(r.Lower),
			formatFloat(r.Upper),
		}
	}
	return cells
}

// RenderForecastTable returns the bordered grid of future forecast rows
func RenderForecastTable(rows []domain.ForecastRow) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderRow(true).
		Headers(forecastHeaders...).
		Rows(forecastCells(rows)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

// WriteForecastTable prints the heading followed by the forecast grid
func WriteForecastTable(w io.Writer, rows []domain.ForecastRow) error {
	_, err := fmt.Fprintf(w, "\n%s\n%s\n", config.TableHeading, RenderForecastTable(rows))
	return err
}
