package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	entries []map[string]interface{}
}

func (r *recordingLogger) Log(level, message string, metadata map[string]interface{}) {
	entry := map[string]interface{}{"level": level, "message": message}
	for k, v := range metadata {
		entry[k] = v
	}
	r.entries = append(r.entries, entry)
}

func TestLoggerFromContext_FallsBackToNoOp(t *testing.T) {
	logger := LoggerFromContext(context.Background())

	assert.NotPanics(t, func() {
		logger.Log("INFO", "nothing listens", nil)
	})
}

func TestWithFields_MergesMetadata(t *testing.T) {
	rec := &recordingLogger{}
	ctx := WithLogger(context.Background(), WithFields(rec, map[string]interface{}{"agent": "port-1"}))

	LoggerFromContext(ctx).Log("INFO", "served", map[string]interface{}{"tons": 4})

	assert.Len(t, rec.entries, 1)
	assert.Equal(t, "port-1", rec.entries[0]["agent"])
	assert.Equal(t, 4, rec.entries[0]["tons"])
	assert.Equal(t, "INFO", rec.entries[0]["level"])
}
