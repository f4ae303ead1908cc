package config

import "time"

// DaemonConfig holds process-level settings of a run
type DaemonConfig struct {
	// PID file location, guarding against two runs sharing a database
	PIDFile string `mapstructure:"pid_file"`

	// Graceful shutdown timeout for the metrics and status servers
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}
