package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/harbor-go/internal/adapters/persistence"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
	"github.com/andrescamacho/harbor-go/test/helpers"
)

func TestSnapshotRepository_SaveAndListInDayOrder(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	runs := persistence.NewGormRunRepository(db)
	repo := persistence.NewGormSnapshotRepository(db, clock)
	require.NoError(t, runs.Create(context.Background(), newRun("run-1", clock.Now())))

	for _, day := range []int{2, 1, 3} {
		snapshot := stats.Snapshot{
			Day:      day,
			Ports:    []stats.PortStats{{PortID: 0, BerthsTotal: 2}},
			Products: []stats.ProductStats{{GoodID: 0, AvailableInPorts: 10 - day, Delivered: day}},
			Fleet:    stats.FleetStats{Loaded: 1},
		}
		require.NoError(t, repo.Save(context.Background(), "run-1", snapshot))
	}

	// Act
	snapshots, err := repo.ListByRun(context.Background(), "run-1")

	// Assert
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	for i, snapshot := range snapshots {
		assert.Equal(t, i+1, snapshot.Day)
		assert.Equal(t, 10, snapshot.Totals().Total())
		assert.Equal(t, 1, snapshot.Fleet.Loaded)
	}
}

func TestSnapshotRepository_DenormalizesTotals(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	runs := persistence.NewGormRunRepository(db)
	repo := persistence.NewGormSnapshotRepository(db, nil)
	require.NoError(t, runs.Create(context.Background(), newRun("run-1", time.Now())))

	snapshot := stats.Snapshot{
		Day: 4,
		Products: []stats.ProductStats{
			{GoodID: 0, OnShips: 3, ExpiredInPorts: 1},
			{GoodID: 1, OnShips: 2, ExpiredOnShips: 5},
		},
		Fleet: stats.FleetStats{Empty: 1, InPort: 2},
	}

	// Act
	require.NoError(t, repo.Save(context.Background(), "run-1", snapshot))

	// Assert
	var model persistence.DaySnapshotModel
	require.NoError(t, db.Where("run_id = ? AND day = ?", "run-1", 4).First(&model).Error)
	assert.Equal(t, 5, model.OnShips)
	assert.Equal(t, 1, model.ExpiredInPorts)
	assert.Equal(t, 5, model.ExpiredOnShips)
	assert.Equal(t, 1, model.ShipsEmpty)
	assert.Equal(t, 2, model.ShipsInPort)
}

func TestSnapshotRepository_UnknownRunIsEmpty(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSnapshotRepository(db, nil)

	// Act
	snapshots, err := repo.ListByRun(context.Background(), "missing")

	// Assert
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}
