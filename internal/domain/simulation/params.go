package simulation

import (
	"fmt"
	"time"

	"github.com/andrescamacho/harbor-go/internal/domain/harbor"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

// Params is the read-only configuration a run is built from
type Params struct {
	Ships     int
	Ports     int
	Goods     int
	Size      int
	MinLife   int
	MaxLife   int
	MapSide   float64
	Speed     float64
	Capacity  int
	BerthsMin int
	BerthsMax int
	Fill      int
	LoadSpeed float64
	Days      int

	DayLength          time.Duration
	Seed               int64
	ReservationWait    time.Duration
	ReservationRetries int
	IdleRetriesPerDay  int
}

// FillPerPort is the tons each port offers and demands in total
func (p Params) FillPerPort() int {
	if p.Ports == 0 {
		return 0
	}
	return p.Fill / p.Ports
}

// PortSetup derives the per-port generation parameters
func (p Params) PortSetup() harbor.SetupParams {
	return harbor.SetupParams{
		Goods:      p.Goods,
		Size:       p.Size,
		MinLife:    p.MinLife,
		MaxLife:    p.MaxLife,
		BerthsMin:  p.BerthsMin,
		BerthsMax:  p.BerthsMax,
		FillTarget: p.FillPerPort(),
	}
}

// DaysToDuration converts simulated days to wall time
func (p Params) DaysToDuration(days float64) time.Duration {
	return time.Duration(days * float64(p.DayLength))
}

// Validate checks the parameters describe a runnable simulation
func (p Params) Validate() error {
	switch {
	case p.Ships < 1:
		return shared.NewValidationError("ships", "at least one ship is required")
	case p.Ports < 4:
		return shared.NewValidationError("ports", "at least four ports are required (one per map corner)")
	case p.MapSide <= 0:
		return shared.NewValidationError("map_side", "must be positive")
	case p.Speed <= 0:
		return shared.NewValidationError("speed", "must be positive")
	case p.LoadSpeed <= 0:
		return shared.NewValidationError("load_speed", "must be positive")
	case p.Capacity < 1:
		return shared.NewValidationError("capacity", "must be at least 1")
	case p.Days < 1:
		return shared.NewValidationError("days", "must be at least 1")
	case p.DayLength <= 0:
		return shared.NewValidationError("day_length", "must be positive")
	case p.Fill < p.Ports:
		return shared.NewValidationError("fill", fmt.Sprintf("must be at least the port count (%d)", p.Ports))
	case p.ReservationWait <= 0:
		return shared.NewValidationError("reservation_wait", "must be positive")
	case p.ReservationRetries < 1:
		return shared.NewValidationError("reservation_retries", "must be at least 1")
	case p.IdleRetriesPerDay < 1:
		return shared.NewValidationError("idle_retries_per_day", "must be at least 1")
	}
	return p.PortSetup().Validate()
}
