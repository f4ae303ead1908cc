package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/harbor-go/internal/adapters/logging"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []string
}

func (s *recordingSink) Log(_ context.Context, runID string, message, level string, _ map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, runID+"|"+level+"|"+message)
	return nil
}

func TestSlogAgentLogger_WritesStructuredEntry(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, "INFO")

	// Act
	logger.Log("WARNING", "Mismatched completion", map[string]interface{}{
		"port_id": 2,
		"ship_id": 5,
	})

	// Assert
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "Mismatched completion", entry["msg"])
	assert.Equal(t, float64(2), entry["port_id"])
	assert.Equal(t, float64(5), entry["ship_id"])
}

func TestSlogAgentLogger_FiltersBelowLevel(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := logging.NewTextLogger(&buf, "WARNING")

	// Act
	logger.Log("INFO", "Day report", nil)

	// Assert
	assert.Empty(t, buf.String())
}

func TestSlogAgentLogger_PersistsOnlyRunEntries(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	sink := &recordingSink{}
	logger := logging.NewTextLogger(&buf, "DEBUG").WithSink(sink)

	// Act
	logger.Log("info", "Port ready", map[string]interface{}{"run_id": "run-1", "port_id": 0})
	logger.Log("INFO", "Metrics server started", map[string]interface{}{"addr": ":9090"})
	logger.Flush()

	// Assert
	assert.Equal(t, []string{"run-1|INFO|Port ready"}, sink.entries)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("chatty"))
	assert.Error(t, logging.ValidateLevel("chatty"))
	assert.NoError(t, logging.ValidateLevel("warn"))
}
