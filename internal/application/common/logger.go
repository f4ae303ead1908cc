package common

import "context"

// AgentLogger provides logging for agents and handlers.
// Metadata keys are flat and snake_case ("port_id", "tons").
type AgentLogger interface {
	Log(level, message string, metadata map[string]interface{})
}

// Context keys for passing logger through context
type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger AgentLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a no-op logger if not found
func LoggerFromContext(ctx context.Context) AgentLogger {
	if logger, ok := ctx.Value(loggerKey).(AgentLogger); ok {
		return logger
	}
	return &noOpLogger{}
}

// WithFields returns a logger that adds fields to every entry
func WithFields(logger AgentLogger, fields map[string]interface{}) AgentLogger {
	return &fieldLogger{next: logger, fields: fields}
}

// noOpLogger is a logger that does nothing (fallback when no logger in context)
type noOpLogger struct{}

func (l *noOpLogger) Log(level, message string, metadata map[string]interface{}) {}

type fieldLogger struct {
	next   AgentLogger
	fields map[string]interface{}
}

func (l *fieldLogger) Log(level, message string, metadata map[string]interface{}) {
	merged := make(map[string]interface{}, len(l.fields)+len(metadata))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}
	l.next.Log(level, message, merged)
}
