package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/harbor-go/internal/adapters/persistence"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	"github.com/andrescamacho/harbor-go/test/helpers"
)

func TestEventLogRepository_DeduplicatesWithinWindow(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	repo := persistence.NewGormEventLogRepository(db, clock)
	ctx := context.Background()
	metadata := map[string]interface{}{"port_id": 1}

	// Act
	require.NoError(t, repo.Log(ctx, "run-1", "Offers expired", "INFO", metadata))
	clock.Advance(10 * time.Second)
	require.NoError(t, repo.Log(ctx, "run-1", "Offers expired", "INFO", metadata))
	clock.Advance(61 * time.Second)
	require.NoError(t, repo.Log(ctx, "run-1", "Offers expired", "INFO", metadata))

	// Assert
	logs, err := repo.GetLogs(ctx, "run-1", 10, nil)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestEventLogRepository_DifferentMetadataIsNotDuplicate(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormEventLogRepository(db, nil)
	ctx := context.Background()

	// Act
	require.NoError(t, repo.Log(ctx, "run-1", "Ship docked", "INFO", map[string]interface{}{"ship_id": 0}))
	require.NoError(t, repo.Log(ctx, "run-1", "Ship docked", "INFO", map[string]interface{}{"ship_id": 1}))

	// Assert
	logs, err := repo.GetLogs(ctx, "run-1", 10, nil)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestEventLogRepository_FiltersByLevel(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	repo := persistence.NewGormEventLogRepository(db, clock)
	ctx := context.Background()
	require.NoError(t, repo.Log(ctx, "run-1", "Day report", "INFO", map[string]interface{}{"day": 1}))
	clock.Advance(time.Second)
	require.NoError(t, repo.Log(ctx, "run-1", "Mismatched completion", "WARNING", nil))
	require.NoError(t, repo.Log(ctx, "run-2", "Day report", "INFO", nil))

	// Act
	level := "WARNING"
	warnings, err := repo.GetLogs(ctx, "run-1", 10, &level)
	require.NoError(t, err)
	all, err := repo.GetLogs(ctx, "run-1", 10, nil)
	require.NoError(t, err)

	// Assert
	require.Len(t, warnings, 1)
	assert.Equal(t, "Mismatched completion", warnings[0].Message)
	require.Len(t, all, 2)
	assert.Equal(t, "Mismatched completion", all[0].Message)
	assert.Equal(t, float64(1), all[1].Metadata["day"])
}
