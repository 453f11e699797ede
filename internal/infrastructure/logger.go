package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"bandicli/internal/config"
)

var (
	// globalLogger holds the application-wide logger instance
	globalLogger     *slog.Logger
	globalLoggerOnce sync.Once
	// globalLogFile holds the open log file for cleanup
	globalLogFile *os.File
	// logFileMu protects globalLogFile
	logFileMu sync.Mutex
)

// InitializeLogger creates and configures the global slog logger instance.
// Stdout is reserved for the forecast table, so console logs go to stderr.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	globalLoggerOnce.Do(func() {
		globalLogger, err = createLogger(cfg)
		if globalLogger != nil {
			slog.SetDefault(globalLogger)
		}
	})
	return globalLogger, err
}

// GetLogger returns the global logger instance.
// If not initialized, returns the default slog logger.
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// NewLogger builds a JSON logger writing to w without touching the global state
func NewLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)})
	return slog.New(&runHandler{Handler: handler})
}

// createLogger resolves the configured destination and builds the logger on it
func createLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	mode := strings.ToLower(cfg.Output)

	var file *os.File
	if mode == "file" || mode == "both" {
		f, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("log output %q: %w", mode, err)
		}
		setLogFile(f)
		file = f
	}

	var output io.Writer
	switch mode {
	case "file":
		output = file
	case "both":
		output = io.MultiWriter(os.Stderr, file)
	case "none":
		output = io.Discard
	default:
		output = os.Stderr
	}

	return NewLogger(output, cfg.Level), nil
}

// runHandler wraps a slog.Handler to inject run_id and trace_id from context
type runHandler struct {
	slog.Handler
}

// Handle adds run_id and trace_id to the record if present in context
func (h *runHandler) Handle(ctx context.Context, r slog.Record) error {
	if runID := GetRunID(ctx); runID != "" {
		r.AddAttrs(slog.String("run_id", runID))
	}
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		r.AddAttrs(slog.String("trace_id", traceID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *runHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &runHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *runHandler) WithGroup(name string) slog.Handler {
	return &runHandler{Handler: h.Handler.WithGroup(name)}
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CloseLogFile closes the log file opened by InitializeLogger, if any.
func CloseLogFile() error {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if globalLogFile != nil {
		err := globalLogFile.Close()
		globalLogFile = nil
		return err
	}
	return nil
}

// ResetLoggerForTesting resets the global logger state.
// This should only be called in tests.
func ResetLoggerForTesting() {
	CloseLogFile()
	globalLogger = nil
	globalLoggerOnce = sync.Once{}
}

func setLogFile(f *os.File) {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	globalLogFile = f
}

// openLogFile appends to filePath, creating the file and its parent directory when missing
func openLogFile(filePath string) (*os.File, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}

	return file, nil
}
