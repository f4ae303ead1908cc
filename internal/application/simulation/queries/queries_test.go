package queries_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/harbor-go/internal/application/simulation/queries"
	domainSimulation "github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
	"github.com/andrescamacho/harbor-go/test/helpers"
)

func seedRun(t *testing.T, repos *helpers.TestRepositories, id string, startedAt time.Time, days int) {
	t.Helper()
	ctx := context.Background()

	run := &domainSimulation.Run{
		ID:        id,
		Preset:    "balanced",
		Params:    helpers.TestParams(4, 2),
		StartedAt: startedAt,
	}
	require.NoError(t, repos.RunRepo.Create(ctx, run))

	board := stats.NewBoard(4, 2)
	for day := 1; day <= days; day++ {
		board.SetDay(day)
		require.NoError(t, repos.SnapshotRepo.Save(ctx, id, board.Snapshot()))
	}
}

func TestGetRunReportHandler_ReturnsRunWithDays(t *testing.T) {
	// Arrange
	repos := helpers.NewTestRepositories(helpers.NewTestDB(t), nil)
	seedRun(t, repos, "run-a", time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC), 3)
	handler := queries.NewGetRunReportHandler(repos.RunRepo, repos.SnapshotRepo)

	// Act
	response, err := handler.Handle(context.Background(), &queries.GetRunReportQuery{RunID: "run-a"})

	// Assert
	require.NoError(t, err)
	result := response.(*queries.GetRunReportResponse)
	assert.Equal(t, "run-a", result.Run.ID)
	require.Len(t, result.Days, 3)
	assert.Equal(t, 1, result.Days[0].Day)
	assert.Equal(t, 3, result.Days[2].Day)
}

func TestGetRunReportHandler_Errors(t *testing.T) {
	repos := helpers.NewTestRepositories(helpers.NewTestDB(t), nil)
	handler := queries.NewGetRunReportHandler(repos.RunRepo, repos.SnapshotRepo)

	t.Run("missing run id", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), &queries.GetRunReportQuery{})
		assert.ErrorContains(t, err, "run_id must be provided")
	})

	t.Run("unknown run", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), &queries.GetRunReportQuery{RunID: "nope"})
		assert.ErrorContains(t, err, "run not found: nope")
	})

	t.Run("wrong request type", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), &queries.ListRunsQuery{})
		assert.ErrorContains(t, err, "invalid request type")
	})
}

func TestListRunsHandler_NewestFirstWithLimit(t *testing.T) {
	// Arrange
	repos := helpers.NewTestRepositories(helpers.NewTestDB(t), nil)
	start := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		seedRun(t, repos, fmt.Sprintf("run-%d", i), start.Add(time.Duration(i)*time.Hour), 0)
	}
	handler := queries.NewListRunsHandler(repos.RunRepo)

	// Act
	response, err := handler.Handle(context.Background(), &queries.ListRunsQuery{Limit: 2})

	// Assert
	require.NoError(t, err)
	runs := response.(*queries.ListRunsResponse).Runs
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
}

func TestListRunsHandler_DefaultLimit(t *testing.T) {
	// Arrange
	repos := helpers.NewTestRepositories(helpers.NewTestDB(t), nil)
	start := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		seedRun(t, repos, fmt.Sprintf("run-%02d", i), start.Add(time.Duration(i)*time.Minute), 0)
	}
	handler := queries.NewListRunsHandler(repos.RunRepo)

	// Act
	response, err := handler.Handle(context.Background(), &queries.ListRunsQuery{})

	// Assert
	require.NoError(t, err)
	assert.Len(t, response.(*queries.ListRunsResponse).Runs, 20)
}
