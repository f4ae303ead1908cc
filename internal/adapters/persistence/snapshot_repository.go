package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
)

// GormSnapshotRepository implements SnapshotRepository using GORM
type GormSnapshotRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormSnapshotRepository creates a new snapshot repository
// If clock is nil, uses RealClock (production behavior)
func NewGormSnapshotRepository(db *gorm.DB, clock shared.Clock) *GormSnapshotRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormSnapshotRepository{db: db, clock: clock}
}

// Save records one day of a run
func (r *GormSnapshotRepository) Save(ctx context.Context, runID string, snapshot stats.Snapshot) error {
	bytes, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	totals := snapshot.Totals()
	model := &DaySnapshotModel{
		RunID:            runID,
		Day:              snapshot.Day,
		AvailableInPorts: totals.AvailableInPorts,
		OnShips:          totals.OnShips,
		Delivered:        totals.Delivered,
		ExpiredInPorts:   totals.ExpiredInPorts,
		ExpiredOnShips:   totals.ExpiredOnShips,
		ShipsEmpty:       snapshot.Fleet.Empty,
		ShipsLoaded:      snapshot.Fleet.Loaded,
		ShipsInPort:      snapshot.Fleet.InPort,
		Snapshot:         string(bytes),
		RecordedAt:       r.clock.Now(),
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save day %d of run %s: %w", snapshot.Day, runID, err)
	}
	return nil
}

// ListByRun returns every recorded day of a run in day order
func (r *GormSnapshotRepository) ListByRun(ctx context.Context, runID string) ([]stats.Snapshot, error) {
	var models []DaySnapshotModel
	result := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("day ASC").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", result.Error)
	}

	snapshots := make([]stats.Snapshot, 0, len(models))
	for _, model := range models {
		var snapshot stats.Snapshot
		if err := json.Unmarshal([]byte(model.Snapshot), &snapshot); err != nil {
			return nil, fmt.Errorf("invalid snapshot for day %d: %w", model.Day, err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}
