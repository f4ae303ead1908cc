package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/harbor-go/internal/application/mediator"
	domainSimulation "github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
)

// GetRunReportQuery fetches a recorded run with its daily statistics
type GetRunReportQuery struct {
	RunID string
}

// GetRunReportResponse represents a recorded run
type GetRunReportResponse struct {
	Run  *domainSimulation.Run
	Days []stats.Snapshot
}

// GetRunReportHandler handles the GetRunReport query
type GetRunReportHandler struct {
	runs      domainSimulation.RunRepository
	snapshots domainSimulation.SnapshotRepository
}

// NewGetRunReportHandler creates a new GetRunReportHandler
func NewGetRunReportHandler(runs domainSimulation.RunRepository, snapshots domainSimulation.SnapshotRepository) *GetRunReportHandler {
	return &GetRunReportHandler{
		runs:      runs,
		snapshots: snapshots,
	}
}

// Handle executes the GetRunReport query
func (h *GetRunReportHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*GetRunReportQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetRunReportQuery")
	}
	if query.RunID == "" {
		return nil, fmt.Errorf("run_id must be provided")
	}

	run, err := h.runs.FindByID(ctx, query.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to find run: %w", err)
	}

	days, err := h.snapshots.ListByRun(ctx, query.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily statistics: %w", err)
	}

	return &GetRunReportResponse{Run: run, Days: days}, nil
}
