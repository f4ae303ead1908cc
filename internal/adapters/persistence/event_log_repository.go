package persistence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

// EventLogRepository manages simulation event log persistence
type EventLogRepository interface {
	// Log writes a log entry to the database with deduplication
	Log(ctx context.Context, runID string, message, level string, metadata map[string]interface{}) error

	// GetLogs retrieves logs for a run with optional level filtering, newest first
	GetLogs(ctx context.Context, runID string, limit int, level *string) ([]EventLogEntry, error)
}

// EventLogEntry represents a log entry
type EventLogEntry struct {
	ID        int
	RunID     string
	Timestamp time.Time
	Level     string
	Message   string
	Metadata  map[string]interface{}
}

// GormEventLogRepository is a GORM-based implementation
type GormEventLogRepository struct {
	db    *gorm.DB
	clock shared.Clock

	// Deduplication cache
	dedupCache   map[string]time.Time // key: runID+level+message+metadata, value: last logged time
	dedupMu      sync.Mutex
	dedupWindow  time.Duration
	dedupMaxSize int
}

// NewGormEventLogRepository creates a new event log repository
// If clock is nil, uses RealClock (production behavior)
func NewGormEventLogRepository(db *gorm.DB, clock shared.Clock) *GormEventLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormEventLogRepository{
		db:           db,
		clock:        clock,
		dedupCache:   make(map[string]time.Time),
		dedupWindow:  60 * time.Second,
		dedupMaxSize: 10000, // Max cache entries before cleanup
	}
}

// Log writes a log entry with time-windowed deduplication.
// Identical entries (same run, level, message and metadata) within the window are dropped.
func (r *GormEventLogRepository) Log(ctx context.Context, runID string, message, level string, metadata map[string]interface{}) error {
	now := r.clock.Now()

	// Marshal metadata to JSON string
	var metadataJSON string
	if len(metadata) > 0 {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = string(jsonBytes)
		}
	}
	cacheKey := runID + "|" + level + "|" + message + "|" + metadataJSON

	// Thread-safe deduplication check
	r.dedupMu.Lock()
	if lastLogged, exists := r.dedupCache[cacheKey]; exists && now.Sub(lastLogged) < r.dedupWindow {
		r.dedupMu.Unlock()
		return nil
	}
	if len(r.dedupCache) >= r.dedupMaxSize {
		r.cleanupDedupCache(now)
	}
	r.dedupCache[cacheKey] = now
	r.dedupMu.Unlock()

	logEntry := &EventLogModel{
		RunID:     runID,
		Timestamp: now,
		Level:     level,
		Message:   message,
		Metadata:  metadataJSON,
	}
	return r.db.WithContext(ctx).Create(logEntry).Error
}

// cleanupDedupCache removes old entries from the deduplication cache
// Must be called while holding dedupMu lock
func (r *GormEventLogRepository) cleanupDedupCache(now time.Time) {
	cutoff := now.Add(-r.dedupWindow)
	for key, timestamp := range r.dedupCache {
		if timestamp.Before(cutoff) {
			delete(r.dedupCache, key)
		}
	}
}

// GetLogs retrieves logs for a run with optional filtering
func (r *GormEventLogRepository) GetLogs(ctx context.Context, runID string, limit int, level *string) ([]EventLogEntry, error) {
	var models []EventLogModel

	query := r.db.WithContext(ctx).Where("run_id = ?", runID)
	if level != nil {
		query = query.Where("level = ?", *level)
	}
	query = query.Order("timestamp DESC").Order("id DESC").Limit(limit)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]EventLogEntry, len(models))
	for i, model := range models {
		var metadata map[string]interface{}
		if model.Metadata != "" {
			if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
				metadata = nil
			}
		}

		entries[i] = EventLogEntry{
			ID:        model.ID,
			RunID:     model.RunID,
			Timestamp: model.Timestamp,
			Level:     model.Level,
			Message:   model.Message,
			Metadata:  metadata,
		}
	}
	return entries, nil
}
