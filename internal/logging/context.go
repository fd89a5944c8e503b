package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSystem is the standardized structured logging key for system identifiers.
	FieldSystem = "system"
	// FieldTaskID is the standardized structured logging key for transfer task identifiers.
	FieldTaskID = "task_id"
	// FieldSource is the standardized structured logging key for source roots.
	FieldSource = "source"
)

type contextKey struct{ name string }

var (
	systemKey = contextKey{"system"}
	taskKey   = contextKey{"task_id"}
)

// WithSystem stores a system identifier on the context for downstream log enrichment.
func WithSystem(ctx context.Context, system string) context.Context {
	if system == "" {
		return ctx
	}
	return context.WithValue(ctx, systemKey, system)
}

// WithTaskID stores a transfer task identifier on the context.
func WithTaskID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, taskKey, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if system, ok := ctx.Value(systemKey).(string); ok && system != "" {
		fields = append(fields, slog.String(FieldSystem, system))
	}
	if id, ok := ctx.Value(taskKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldTaskID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
