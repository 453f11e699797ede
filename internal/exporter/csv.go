package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "bandicli/internal/errors"
	"bandicli/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file, replacing any existing content
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.NewStorageError("failed to create directory "+dir, err)
		}
	}

	file, err := os.Create(filePath)
	if err != nil {
		return apperrors.NewStorageError("failed to create "+filePath, err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return apperrors.NewStorageError("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(file)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return apperrors.NewStorageError("failed to write headers", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush "+filePath, err)
	}
	return file.Close()
}

// WriteForecastCSV writes the future forecast rows with the same columns as the printed table
func (w *CSVWriter) WriteForecastCSV(filePath string, rows []domain.ForecastRow) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   forecastHeaders,
		Records:   forecastCells(rows),
		BOMPrefix: true,
	})
}
