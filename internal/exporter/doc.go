// Package exporter produces the user-facing outputs of a forecast run.
//
// WriteForecastTable prints the future rows as a bordered grid on standard output.
// ChartRenderer draws the history, the forecast line and its confidence band with gonum/plot and
// embeds the SVG in a standalone HTML page that adds the title, the legend and a hover readout with
// crosshair lines. Viewer hands the written page to the desktop's default application, and
// CSVWriter optionally saves the future rows for spreadsheet use.
package exporter
