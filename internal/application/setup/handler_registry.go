package setup

import (
	"reflect"

	"github.com/andrescamacho/harbor-go/internal/application/mediator"
	"github.com/andrescamacho/harbor-go/internal/application/simulation"
	simulationCommands "github.com/andrescamacho/harbor-go/internal/application/simulation/commands"
	simulationQueries "github.com/andrescamacho/harbor-go/internal/application/simulation/queries"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	domainSimulation "github.com/andrescamacho/harbor-go/internal/domain/simulation"
)

// HandlerRegistry holds all application dependencies for handler creation
type HandlerRegistry struct {
	runRepo      domainSimulation.RunRepository
	snapshotRepo domainSimulation.SnapshotRepository
	clock        shared.Clock
	observers    []simulation.PhaseObserver
}

// NewHandlerRegistry creates a new handler registry.
// Nil repositories run simulations without recording them and skip the run queries.
func NewHandlerRegistry(
	runRepo domainSimulation.RunRepository,
	snapshotRepo domainSimulation.SnapshotRepository,
	clock shared.Clock,
	observers ...simulation.PhaseObserver,
) *HandlerRegistry {
	// Default to real clock if not provided
	if clock == nil {
		clock = shared.NewRealClock()
	}

	return &HandlerRegistry{
		runRepo:      runRepo,
		snapshotRepo: snapshotRepo,
		clock:        clock,
		observers:    observers,
	}
}

// RegisterSimulationHandlers registers the simulation command handler with the mediator
//
// This method registers:
//   - RunSimulationCommand → RunSimulationHandler
func (r *HandlerRegistry) RegisterSimulationHandlers(m mediator.Mediator) error {
	runHandler := simulationCommands.NewRunSimulationHandler(r.runRepo, r.snapshotRepo, r.clock, r.observers...)
	return m.Register(
		reflect.TypeOf(&simulationCommands.RunSimulationCommand{}),
		runHandler,
	)
}

// RegisterRunQueryHandlers registers the recorded-run query handlers
//
// This method registers:
//   - GetRunReportQuery → GetRunReportHandler
//   - ListRunsQuery → ListRunsHandler
func (r *HandlerRegistry) RegisterRunQueryHandlers(m mediator.Mediator) error {
	// Register GetRunReportQuery handler
	reportHandler := simulationQueries.NewGetRunReportHandler(r.runRepo, r.snapshotRepo)
	if err := m.Register(
		reflect.TypeOf(&simulationQueries.GetRunReportQuery{}),
		reportHandler,
	); err != nil {
		return err
	}

	// Register ListRunsQuery handler
	listHandler := simulationQueries.NewListRunsHandler(r.runRepo)
	if err := m.Register(
		reflect.TypeOf(&simulationQueries.ListRunsQuery{}),
		listHandler,
	); err != nil {
		return err
	}

	return nil
}

// CreateConfiguredMediator creates a new mediator with every available handler registered
// and request logging installed
func (r *HandlerRegistry) CreateConfiguredMediator() (mediator.Mediator, error) {
	m := mediator.NewMediator()
	m.Use(mediator.LoggingMiddleware)

	if err := r.RegisterSimulationHandlers(m); err != nil {
		return nil, err
	}

	// Register query handlers if the recorder is available
	if r.runRepo != nil && r.snapshotRepo != nil {
		if err := r.RegisterRunQueryHandlers(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}
