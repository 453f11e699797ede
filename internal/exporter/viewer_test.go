package exporter

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMethods(t *testing.T) {
	assert.Equal(t, "open", openMethods("darwin", "/tmp/c.html")[0].cmd)
	assert.Equal(t, "rundll32", openMethods("windows", `C:\c.html`)[0].cmd)

	linux := openMethods("linux", "/tmp/c.html")
	require.NotEmpty(t, linux)
	assert.Equal(t, "xdg-open", linux[0].cmd)
	assert.Equal(t, []string{"/tmp/c.html"}, linux[0].args)
}

func TestViewer_Open(t *testing.T) {
	var calls []string
	v := NewViewer(discardLogger())
	v.goos = "linux"
	v.start = func(name string, args ...string) error {
		calls = append(calls, name)
		if name == "xdg-open" {
			return errors.New("not installed")
		}
		return nil
	}

	require.NoError(t, v.Open(context.Background(), "chart.html"))
	assert.Equal(t, []string{"xdg-open", "sensible-browser"}, calls)
}

func TestViewer_OpenAbsolutePath(t *testing.T) {
	var target string
	v := NewViewer(discardLogger())
	v.goos = "darwin"
	v.start = func(name string, args ...string) error {
		target = args[len(args)-1]
		return nil
	}

	require.NoError(t, v.Open(context.Background(), "chart.html"))
	assert.True(t, filepath.IsAbs(target))
	assert.Equal(t, "chart.html", filepath.Base(target))
}

func TestViewer_AllMethodsFail(t *testing.T) {
	v := NewViewer(discardLogger())
	v.goos = "linux"
	v.start = func(string, ...string) error { return errors.New("no display") }

	err := v.Open(context.Background(), "chart.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no display")
}

func TestViewer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := NewViewer(discardLogger())
	v.start = func(string, ...string) error {
		t.Fatal("start must not be called")
		return nil
	}

	assert.ErrorIs(t, v.Open(ctx, "chart.html"), context.Canceled)
}
