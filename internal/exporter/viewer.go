package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Opener shows a written chart to the user
type Opener interface {
	Open(ctx context.Context, path string) error
}

// openMethod is one way of handing a file to the desktop
type openMethod struct {
	name string
	cmd  string
	args []string
}

// Viewer opens files with the platform's default application
type Viewer struct {
	logger *slog.Logger
	goos   string
	start  func(name string, args ...string) error
}

// NewViewer creates a viewer for the current platform
func NewViewer(logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Viewer{
		logger: logger,
		goos:   runtime.GOOS,
		start:  startDetached,
	}
}

// Open tries each platform method in turn and returns once one of them starts.
// The launched process is not waited for.
func (v *Viewer) Open(ctx context.Context, path string) error {
	target, err := filepath.Abs(path)
	if err != nil {
		target = path
	}

	var lastErr error
	for _, method := range openMethods(v.goos, target) {
		if err := ctx.Err(); err != nil {
			return err
		}

		v.logger.DebugContext(ctx, "Attempting to open chart",
			slog.String("method", method.name),
			slog.String("path", target))

		if err := v.start(method.cmd, method.args...); err != nil {
			lastErr = err
			v.logger.DebugContext(ctx, "Open method failed",
				slog.String("method", method.name),
				slog.String("error", err.Error()))
			continue
		}

		v.logger.InfoContext(ctx, "Chart opened",
			slog.String("method", method.name),
			slog.String("path", target))
		return nil
	}

	return fmt.Errorf("failed to open %s: %w", target, lastErr)
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// openMethods returns platform-specific ways of opening target
func openMethods(goos, target string) []openMethod {
	switch goos {
	case "windows":
		return []openMethod{
			{name: "rundll32", cmd: "rundll32", args: []string{"url.dll,FileProtocolHandler", target}},
			{name: "start_command", cmd: "cmd", args: []string{"/c", "start", "", target}},
			{name: "explorer", cmd: "explorer", args: []string{target}},
		}
	case "darwin":
		return []openMethod{
			{name: "open", cmd: "open", args: []string{target}},
		}
	default: // Linux and others
		return []openMethod{
			{name: "xdg-open", cmd: "xdg-open", args: []string{target}},
			{name: "sensible-browser", cmd: "sensible-browser", args: []string{target}},
			{name: "firefox", cmd: "firefox", args: []string{target}},
			{name: "chromium", cmd: "chromium", args: []string{target}},
		}
	}
}
