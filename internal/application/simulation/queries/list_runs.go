package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/harbor-go/internal/application/mediator"
	domainSimulation "github.com/andrescamacho/harbor-go/internal/domain/simulation"
)

const defaultRunLimit = 20

// ListRunsQuery lists the most recent runs
type ListRunsQuery struct {
	Limit int // Optional: defaults to 20
}

// ListRunsResponse contains the runs, newest first
type ListRunsResponse struct {
	Runs []*domainSimulation.Run
}

// ListRunsHandler handles the ListRuns query
type ListRunsHandler struct {
	runs domainSimulation.RunRepository
}

// NewListRunsHandler creates a new ListRunsHandler
func NewListRunsHandler(runs domainSimulation.RunRepository) *ListRunsHandler {
	return &ListRunsHandler{runs: runs}
}

// Handle executes the ListRuns query
func (h *ListRunsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*ListRunsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListRunsQuery")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultRunLimit
	}

	runs, err := h.runs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return &ListRunsResponse{Runs: runs}, nil
}
