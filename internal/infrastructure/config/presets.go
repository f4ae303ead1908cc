package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/viper"
)

// DefaultPreset is used when no preset is named
const DefaultPreset = "balanced"

// Presets are the canned simulation setups selectable by name
var Presets = map[string]SimulationConfig{
	"balanced": withRuntimeDefaults(SimulationConfig{
		Ships: 10, Ports: 6, Goods: 4,
		Size: 5, MinLife: 3, MaxLife: 10,
		MapSide: 100, Speed: 20, Capacity: 50,
		BerthsMin: 1, BerthsMax: 3,
		Fill: 600, LoadSpeed: 25, Days: 15,
	}),
	"small-ships": withRuntimeDefaults(SimulationConfig{
		Ships: 30, Ports: 6, Goods: 4,
		Size: 5, MinLife: 3, MaxLife: 10,
		MapSide: 100, Speed: 30, Capacity: 10,
		BerthsMin: 2, BerthsMax: 4,
		Fill: 600, LoadSpeed: 10, Days: 15,
	}),
	"big-ships": withRuntimeDefaults(SimulationConfig{
		Ships: 3, Ports: 6, Goods: 4,
		Size: 5, MinLife: 3, MaxLife: 10,
		MapSide: 100, Speed: 10, Capacity: 500,
		BerthsMin: 1, BerthsMax: 2,
		Fill: 600, LoadSpeed: 100, Days: 15,
	}),
	"perishable": withRuntimeDefaults(SimulationConfig{
		Ships: 10, Ports: 6, Goods: 4,
		Size: 5, MinLife: 1, MaxLife: 3,
		MapSide: 100, Speed: 40, Capacity: 50,
		BerthsMin: 1, BerthsMax: 3,
		Fill: 600, LoadSpeed: 50, Days: 10,
	}),
	"crowded": withRuntimeDefaults(SimulationConfig{
		Ships: 40, Ports: 4, Goods: 3,
		Size: 5, MinLife: 5, MaxLife: 15,
		MapSide: 50, Speed: 20, Capacity: 20,
		BerthsMin: 1, BerthsMax: 1,
		Fill: 400, LoadSpeed: 20, Days: 15,
	}),
}

func withRuntimeDefaults(c SimulationConfig) SimulationConfig {
	c.DayLength = time.Second
	c.ReservationWait = 50 * time.Millisecond
	c.ReservationRetries = 3
	c.IdleRetriesPerDay = 4
	return c
}

// PresetNames returns every preset name in alphabetical order
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset seeds viper defaults for every simulation key from the named preset
func ApplyPreset(v *viper.Viper, name string) error {
	preset, ok := Presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q (available: %v)", name, PresetNames())
	}

	defaults := map[string]interface{}{
		"ships":                preset.Ships,
		"ports":                preset.Ports,
		"goods":                preset.Goods,
		"size":                 preset.Size,
		"min_life":             preset.MinLife,
		"max_life":             preset.MaxLife,
		"map_side":             preset.MapSide,
		"speed":                preset.Speed,
		"capacity":             preset.Capacity,
		"berths_min":           preset.BerthsMin,
		"berths_max":           preset.BerthsMax,
		"fill":                 preset.Fill,
		"load_speed":           preset.LoadSpeed,
		"days":                 preset.Days,
		"day_length":           preset.DayLength,
		"seed":                 preset.Seed,
		"reservation_wait":     preset.ReservationWait,
		"reservation_retries":  preset.ReservationRetries,
		"idle_retries_per_day": preset.IdleRetriesPerDay,
	}
	for key, value := range defaults {
		v.SetDefault("simulation."+key, value)
	}
	return nil
}
