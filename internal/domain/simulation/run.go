package simulation

import (
	"context"
	"time"

	"github.com/andrescamacho/harbor-go/internal/domain/stats"
)

// Phase is where the coordinator is in its sequence
type Phase string

const (
	PhaseSetup        Phase = "SETUP"
	PhaseRunning      Phase = "RUNNING"
	PhaseShuttingDown Phase = "SHUTTING_DOWN"
	PhaseFinished     Phase = "FINISHED"
)

// EndReason says why a run stopped
type EndReason string

const (
	EndReasonDayBudget   EndReason = "DAY_BUDGET"
	EndReasonExhausted   EndReason = "EXHAUSTED"
	EndReasonInterrupted EndReason = "INTERRUPTED"
	EndReasonFailed      EndReason = "FAILED"
)

// Report is the final statistics of a run
type Report struct {
	RunID        string
	EndReason    EndReason
	DaysElapsed  int
	TotalOffered int
	Final        stats.Snapshot
}

// Run is a recorded simulation
type Run struct {
	ID          string
	Preset      string
	Params      Params
	StartedAt   time.Time
	FinishedAt  *time.Time
	EndReason   EndReason
	DaysElapsed int
	Final       *stats.Snapshot
}

// Finish stamps the outcome of the run
func (r *Run) Finish(report Report, at time.Time) {
	r.FinishedAt = &at
	r.EndReason = report.EndReason
	r.DaysElapsed = report.DaysElapsed
	final := report.Final
	r.Final = &final
}

// IsFinished reports whether the run has an outcome
func (r *Run) IsFinished() bool {
	return r.FinishedAt != nil
}

// RunRepository stores run records
type RunRepository interface {
	Create(ctx context.Context, run *Run) error
	Update(ctx context.Context, run *Run) error
	FindByID(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, limit int) ([]*Run, error)
}

// SnapshotRepository stores the daily statistics of a run
type SnapshotRepository interface {
	Save(ctx context.Context, runID string, snapshot stats.Snapshot) error
	ListByRun(ctx context.Context, runID string) ([]stats.Snapshot, error)
}
