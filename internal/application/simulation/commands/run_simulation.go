package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/harbor-go/internal/application/common"
	"github.com/andrescamacho/harbor-go/internal/application/mediator"
	"github.com/andrescamacho/harbor-go/internal/application/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	domainSimulation "github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
	"github.com/andrescamacho/harbor-go/pkg/utils"
)

// RunSimulationCommand runs one simulation to completion
type RunSimulationCommand struct {
	Params domainSimulation.Params
	Preset string // Recorded with the run, "custom" when empty

	// Optional: pin port tables and positions instead of drawing them
	Layouts   simulation.LayoutFunc
	Positions []shared.Position
}

// RunSimulationResponse carries the run id and its final report
type RunSimulationResponse struct {
	RunID  string
	Report *domainSimulation.Report
}

// RunSimulationHandler builds a coordinator per command and records the run
type RunSimulationHandler struct {
	runs      domainSimulation.RunRepository
	snapshots domainSimulation.SnapshotRepository
	clock     shared.Clock
	observers []simulation.PhaseObserver
}

// NewRunSimulationHandler creates a new handler. Nil repositories disable recording.
func NewRunSimulationHandler(
	runs domainSimulation.RunRepository,
	snapshots domainSimulation.SnapshotRepository,
	clock shared.Clock,
	observers ...simulation.PhaseObserver,
) *RunSimulationHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &RunSimulationHandler{
		runs:      runs,
		snapshots: snapshots,
		clock:     clock,
		observers: observers,
	}
}

// Handle executes the run simulation command
func (h *RunSimulationHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*RunSimulationCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *RunSimulationCommand")
	}

	preset := cmd.Preset
	if preset == "" {
		preset = "custom"
	}
	run := &domainSimulation.Run{
		ID:        utils.GenerateRunID(preset),
		Preset:    preset,
		Params:    cmd.Params,
		StartedAt: h.clock.Now(),
	}
	if h.runs != nil {
		if err := h.runs.Create(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}

	logger := common.WithFields(common.LoggerFromContext(ctx), map[string]interface{}{
		"run_id": run.ID,
	})
	ctx = common.WithLogger(ctx, logger)

	coordinator := simulation.NewCoordinator(cmd.Params, h.clock)
	for _, observer := range h.observers {
		coordinator.AddObserver(observer)
	}
	if h.snapshots != nil {
		coordinator.SetRecorder(&snapshotRecorder{repo: h.snapshots, runID: run.ID})
	}
	if cmd.Layouts != nil {
		coordinator.SetLayouts(cmd.Layouts)
	}
	if cmd.Positions != nil {
		coordinator.SetPositions(cmd.Positions)
	}

	report, runErr := coordinator.Run(ctx)
	if runErr != nil {
		report = &domainSimulation.Report{EndReason: domainSimulation.EndReasonFailed}
	}
	report.RunID = run.ID
	run.Finish(*report, h.clock.Now())

	if h.runs != nil {
		// An interrupted run is still recorded
		if err := h.runs.Update(context.WithoutCancel(ctx), run); err != nil {
			logger.Log("ERROR", "Failed to record run outcome", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if runErr != nil {
		return &RunSimulationResponse{RunID: run.ID}, runErr
	}
	return &RunSimulationResponse{RunID: run.ID, Report: report}, nil
}

// snapshotRecorder saves every daily snapshot under the run id
type snapshotRecorder struct {
	repo  domainSimulation.SnapshotRepository
	runID string
}

func (r *snapshotRecorder) RecordDay(ctx context.Context, snapshot stats.Snapshot) error {
	return r.repo.Save(ctx, r.runID, snapshot)
}
