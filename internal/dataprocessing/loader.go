package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "bandicli/internal/errors"
	"bandicli/internal/validation"
	"bandicli/pkg/contracts/domain"
)

// DefaultDateColumn is the header of the publication date column
const DefaultDateColumn = "Data di pubblicazione"

// LoadOptions configures how an input file is read
type LoadOptions struct {
	// Sheet selects the worksheet; empty means the first sheet of the workbook
	Sheet string
	// DateColumn is the header of the publication date column
	DateColumn string
}

// Loader reads tender records from a spreadsheet
type Loader struct {
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewLoader creates a new loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		validator: validation.NewFileValidator(logger),
		logger:    logger,
	}
}

// Load reads path and returns the records with a parseable publication date.
// The existence check happens before the file is opened so that a missing file
// is reported as NOT_FOUND rather than as a parse failure.
func (l *Loader) Load(ctx context.Context, path string, opts LoadOptions) (*domain.LoadResult, error) {
	if err := l.validator.ValidateInputFile(path); err != nil {
		return nil, err
	}

	if opts.DateColumn == "" {
		opts.DateColumn = DefaultDateColumn
	}

	var (
		rows  [][]string
		sheet string
		err   error
	)
	if validation.IsCSVFile(path) {
		rows, err = readCSV(path)
	} else {
		rows, sheet, err = readWorkbook(path, opts.Sheet)
	}
	if err != nil {
		return nil, err
	}

	result, appErr := buildRecords(rows, opts.DateColumn)
	if appErr != nil {
		return nil, appErr.WithContext("path", path).WithContext("sheet", sheet)
	}
	result.Sheet = sheet

	l.logger.InfoContext(ctx, "Records loaded",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", result.TotalRows),
		slog.Int("records", len(result.Records)))
	if result.DroppedRows > 0 {
		l.logger.WarnContext(ctx, "Rows dropped: publication date missing or unparseable",
			slog.String("column", opts.DateColumn),
			slog.Int("dropped", result.DroppedRows))
	}

	return result, nil
}

// readWorkbook returns the raw rows of the selected sheet.
// Cell number formats are not applied so that date cells come back as Excel serials.
func readWorkbook(path, sheet string) ([][]string, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", apperrors.NewParsingError("failed to open spreadsheet "+path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, "", apperrors.NewParsingError("spreadsheet "+path+" has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, sheet, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	return rows, sheet, nil
}

// readCSV returns all rows of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open "+path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read CSV "+path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// buildRecords maps raw rows onto records. The first row is the header.
func buildRecords(rows [][]string, dateColumn string) (*domain.LoadResult, *apperrors.AppError) {
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("date column %q not found: sheet is empty", dateColumn), nil)
	}

	header := make([]string, len(rows[0]))
	dateIdx := -1
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if dateIdx < 0 && header[i] == dateColumn {
			dateIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("date column %q not found", dateColumn), nil)
	}

	result := &domain.LoadResult{
		Records:   make([]domain.Record, 0, len(rows)-1),
		TotalRows: len(rows) - 1,
	}

	for _, row := range rows[1:] {
		var raw string
		if dateIdx < len(row) {
			raw = row[dateIdx]
		}

		published, ok := ParseDate(raw)
		if !ok {
			result.DroppedRows++
			continue
		}

		attrs := make(map[string]string, len(header))
		for i, h := range header {
			if i == dateIdx || h == "" || i >= len(row) {
				continue
			}
			attrs[h] = row[i]
		}

		result.Records = append(result.Records, domain.Record{
			PublishedAt: published,
			Year:        published.Year(),
			Attributes:  attrs,
		})
	}

	return result, nil
}
