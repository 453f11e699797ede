package validation

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "bandicli/internal/errors"
)

// Supported input formats
var (
	ExcelExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}
	CSVExtensions   = []string{".csv"}
)

// FileValidator checks input and output paths before the pipeline touches them
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks that path exists, is a regular file and is readable.
// A missing path is reported as a NOT_FOUND AppError.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError(path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to stat file "+path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewAppValidationError(path + " is a directory, not a file")
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("file "+path+" is not readable", err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateInputFile validates path and checks it has a supported spreadsheet extension
func (v *FileValidator) ValidateInputFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary Excel lock file",
			slog.String("file", path))
		return apperrors.NewAppValidationError(path + " is a temporary Excel file")
	}

	if !IsExcelFile(path) && !IsCSVFile(path) {
		ext := strings.ToLower(filepath.Ext(path))
		v.logger.Error("Unsupported input format",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError("unsupported input format " + ext + " for " + path)
	}

	return nil
}

// ValidateOutputFile ensures the parent directory of path exists or can be created
func (v *FileValidator) ValidateOutputFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to create output directory "+dir, err)
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return apperrors.NewAppValidationError(path + " is a directory, not a file")
	}
	return nil
}

// IsExcelFile reports whether path has an Excel workbook extension
func IsExcelFile(path string) bool {
	return hasExtension(path, ExcelExtensions)
}

// IsCSVFile reports whether path has a CSV extension
func IsCSVFile(path string) bool {
	return hasExtension(path, CSVExtensions)
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
