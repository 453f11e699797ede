package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a type for context keys
type contextKey string

// RunIDContextKey is the key for storing the pipeline run id in context
const RunIDContextKey contextKey = "run_id"

// GenerateRunID creates a new unique run id using UUID v4
func GenerateRunID() string {
	return uuid.New().String()
}

// WithRunID adds a run id to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDContextKey, runID)
}

// GetRunID retrieves the run id from context
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDContextKey).(string); ok {
		return runID
	}
	return ""
}

// EnsureRunID ensures the context has a run id, generating one if needed
func EnsureRunID(ctx context.Context) context.Context {
	if GetRunID(ctx) == "" {
		return WithRunID(ctx, GenerateRunID())
	}
	return ctx
}
