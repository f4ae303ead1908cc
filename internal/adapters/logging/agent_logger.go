package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// EventSink persists log entries of a run
type EventSink interface {
	Log(ctx context.Context, runID string, message, level string, metadata map[string]interface{}) error
}

// SlogAgentLogger writes agent log entries through slog and,
// when a sink is attached, persists every entry that carries a run_id.
type SlogAgentLogger struct {
	logger *slog.Logger
	sink   EventSink
	wg     sync.WaitGroup
}

// NewSlogAgentLogger wraps an existing slog logger
func NewSlogAgentLogger(logger *slog.Logger) *SlogAgentLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAgentLogger{logger: logger}
}

// NewTextLogger builds a logger writing key=value lines at the given level
func NewTextLogger(w io.Writer, level string) *SlogAgentLogger {
	return NewSlogAgentLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))
}

// NewJSONLogger builds a logger writing one JSON object per line
func NewJSONLogger(w io.Writer, level string) *SlogAgentLogger {
	return NewSlogAgentLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))
}

// WithSink attaches a persistence sink
func (l *SlogAgentLogger) WithSink(sink EventSink) *SlogAgentLogger {
	l.sink = sink
	return l
}

// Log implements common.AgentLogger
func (l *SlogAgentLogger) Log(level, message string, metadata map[string]interface{}) {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, metadata[k]))
	}
	l.logger.LogAttrs(context.Background(), ParseLevel(level), message, attrs...)

	if l.sink == nil {
		return
	}
	runID, ok := metadata["run_id"].(string)
	if !ok || runID == "" {
		return
	}

	// Persist asynchronously to avoid blocking agents
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := l.sink.Log(ctx, runID, message, strings.ToUpper(level), metadata); err != nil {
			l.logger.Error("Failed to persist log entry", "run_id", runID, "error", err)
		}
	}()
}

// Flush waits for pending sink writes
func (l *SlogAgentLogger) Flush() {
	l.wg.Wait()
}

// ParseLevel maps agent level names onto slog levels. Unknown names log at INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidateLevel reports whether the name is a level ParseLevel knows
func ValidateLevel(level string) error {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		return nil
	}
	return fmt.Errorf("unknown log level %q", level)
}
