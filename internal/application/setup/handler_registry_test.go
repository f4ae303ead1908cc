package setup_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/harbor-go/internal/application/setup"
	"github.com/andrescamacho/harbor-go/internal/application/simulation/commands"
	"github.com/andrescamacho/harbor-go/internal/application/simulation/queries"
	"github.com/andrescamacho/harbor-go/test/helpers"
)

func TestHandlerRegistry_RunThenQuery(t *testing.T) {
	// Arrange
	repos := helpers.NewTestRepositories(helpers.NewTestDB(t), nil)
	registry := setup.NewHandlerRegistry(repos.RunRepo, repos.SnapshotRepo, nil)
	m, err := registry.CreateConfiguredMediator()
	require.NoError(t, err)

	params := helpers.TestParams(4, 2)
	params.Days = 2
	params.DayLength = 10 * time.Millisecond

	// Act
	response, err := m.Send(context.Background(), &commands.RunSimulationCommand{Params: params})
	require.NoError(t, err)
	runID := response.(*commands.RunSimulationResponse).RunID

	listed, err := m.Send(context.Background(), &queries.ListRunsQuery{})

	// Assert
	require.NoError(t, err)
	runs := listed.(*queries.ListRunsResponse).Runs
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
}

func TestHandlerRegistry_WithoutRecorderSkipsQueries(t *testing.T) {
	// Arrange
	registry := setup.NewHandlerRegistry(nil, nil, nil)
	m, err := registry.CreateConfiguredMediator()
	require.NoError(t, err)

	// Act
	_, err = m.Send(context.Background(), &queries.ListRunsQuery{})

	// Assert
	assert.Error(t, err)
}
