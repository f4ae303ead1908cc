package config

// StatusConfig holds the gRPC status server configuration
type StatusConfig struct {
	// Enabled starts the health server alongside a run
	Enabled bool `mapstructure:"enabled"`

	// TCP address to bind (host:port)
	Address string `mapstructure:"address" validate:"required,hostname_port"`
}
