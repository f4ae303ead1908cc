package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/harbor-go/internal/domain/protocol"
	"github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
)

const (
	// Namespace for all metrics
	namespace = "harbor"
	// Subsystem for simulation metrics
	subsystem = "simulation"
)

// Expiry locations
const (
	LocationPort = "port"
	LocationShip = "ship"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalCollector is the singleton simulation metrics collector
	// Set by SetGlobalCollector() when metrics are enabled
	globalCollector SimulationMetricsRecorder
)

// SimulationMetricsRecorder defines the interface for recording simulation events
// This interface is used by application code to record metrics
type SimulationMetricsRecorder interface {
	RecordHandshake(kind protocol.TransferKind, accepted bool)
	RecordTransfer(kind protocol.TransferKind, tons int)
	RecordExpiry(location string, tons int)
	RecordReservation(kind protocol.TransferKind, tons int)
	RecordIdleCycle()
	RecordDay(snapshot stats.Snapshot)
	RecordPhase(phase simulation.Phase)
}

// InitRegistry initializes the Prometheus registry
// Should be called once at application startup if metrics are enabled
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry
// Returns nil if metrics are not initialized
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalCollector sets the global metrics collector
// This should be called after the collector is created and registered
func SetGlobalCollector(collector SimulationMetricsRecorder) {
	globalCollector = collector
}

// RecordHandshake records a port's answer to a request globally
func RecordHandshake(kind protocol.TransferKind, accepted bool) {
	if globalCollector != nil {
		globalCollector.RecordHandshake(kind, accepted)
	}
}

// RecordTransfer records committed tons globally
func RecordTransfer(kind protocol.TransferKind, tons int) {
	if globalCollector != nil {
		globalCollector.RecordTransfer(kind, tons)
	}
}

// RecordExpiry records tons written off globally
func RecordExpiry(location string, tons int) {
	if globalCollector != nil {
		globalCollector.RecordExpiry(location, tons)
	}
}

// RecordReservation records a successful reservation globally
func RecordReservation(kind protocol.TransferKind, tons int) {
	if globalCollector != nil {
		globalCollector.RecordReservation(kind, tons)
	}
}

// RecordIdleCycle records a navigation cycle that found nothing to do
func RecordIdleCycle() {
	if globalCollector != nil {
		globalCollector.RecordIdleCycle()
	}
}

// RecordDay records the end-of-day statistics globally
func RecordDay(snapshot stats.Snapshot) {
	if globalCollector != nil {
		globalCollector.RecordDay(snapshot)
	}
}

// RecordPhase records a coordinator phase change globally
func RecordPhase(phase simulation.Phase) {
	if globalCollector != nil {
		globalCollector.RecordPhase(phase)
	}
}
