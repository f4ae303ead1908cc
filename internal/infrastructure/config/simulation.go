package config

import (
	"time"

	"github.com/andrescamacho/harbor-go/internal/domain/simulation"
)

// SimulationConfig holds the parameters of a run
type SimulationConfig struct {
	// Fleet and network size
	Ships int `mapstructure:"ships" validate:"min=1"`
	Ports int `mapstructure:"ports" validate:"min=4"`
	Goods int `mapstructure:"goods" validate:"min=2"`

	// Tons per generated lot and lifetime bounds in days
	Size    int `mapstructure:"size" validate:"min=1"`
	MinLife int `mapstructure:"min_life" validate:"min=1"`
	MaxLife int `mapstructure:"max_life" validate:"gtefield=MinLife"`

	// Map side length and ship speed (map units per day)
	MapSide float64 `mapstructure:"map_side" validate:"gt=0"`
	Speed   float64 `mapstructure:"speed" validate:"gt=0"`

	// Hold capacity in tons
	Capacity int `mapstructure:"capacity" validate:"min=1"`

	// Berths per port, drawn uniformly in [berths_min, berths_max]
	BerthsMin int `mapstructure:"berths_min" validate:"min=1"`
	BerthsMax int `mapstructure:"berths_max" validate:"gtefield=BerthsMin"`

	// Tons offered (and demanded) across every port
	Fill int `mapstructure:"fill" validate:"gtefield=Ports"`

	// Tons moved per day while docked
	LoadSpeed float64 `mapstructure:"load_speed" validate:"gt=0"`

	// Simulated days in a run
	Days int `mapstructure:"days" validate:"min=1"`

	// Wall time of one simulated day
	DayLength time.Duration `mapstructure:"day_length" validate:"gt=0"`

	// Random seed. Zero draws one from the clock.
	Seed int64 `mapstructure:"seed"`

	// Bounded reservation wait and attempts per candidate
	ReservationWait    time.Duration `mapstructure:"reservation_wait" validate:"gt=0"`
	ReservationRetries int           `mapstructure:"reservation_retries" validate:"min=1"`

	// Navigate attempts per simulated day while no trade is available
	IdleRetriesPerDay int `mapstructure:"idle_retries_per_day" validate:"min=1"`
}

// ToParams converts the configuration into run parameters
func (c SimulationConfig) ToParams() simulation.Params {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return simulation.Params{
		Ships:              c.Ships,
		Ports:              c.Ports,
		Goods:              c.Goods,
		Size:               c.Size,
		MinLife:            c.MinLife,
		MaxLife:            c.MaxLife,
		MapSide:            c.MapSide,
		Speed:              c.Speed,
		Capacity:           c.Capacity,
		BerthsMin:          c.BerthsMin,
		BerthsMax:          c.BerthsMax,
		Fill:               c.Fill,
		LoadSpeed:          c.LoadSpeed,
		Days:               c.Days,
		DayLength:          c.DayLength,
		Seed:               seed,
		ReservationWait:    c.ReservationWait,
		ReservationRetries: c.ReservationRetries,
		IdleRetriesPerDay:  c.IdleRetriesPerDay,
	}
}
