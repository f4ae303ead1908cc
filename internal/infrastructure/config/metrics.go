package config

import "fmt"

// MetricsConfig controls the Prometheus endpoint of a run
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Host and Port the scrape endpoint binds to; localhost unless exposed on purpose
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"omitempty,min=1024,max=65535"`

	Path string `mapstructure:"path" validate:"omitempty,startswith=/"`
}

// Endpoint returns the scrape URL the server will answer on
func (c MetricsConfig) Endpoint() string {
	return fmt.Sprintf("http://%s:%d%s", c.Host, c.Port, c.Path)
}
