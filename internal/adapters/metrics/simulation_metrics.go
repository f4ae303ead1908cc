package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/harbor-go/internal/domain/protocol"
	"github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
)

var phases = []simulation.Phase{
	simulation.PhaseSetup,
	simulation.PhaseRunning,
	simulation.PhaseShuttingDown,
	simulation.PhaseFinished,
}

// SimulationMetricsCollector handles all trade network metrics
type SimulationMetricsCollector struct {
	// Negotiation metrics
	handshakesTotal *prometheus.CounterVec
	reservedTons    *prometheus.CounterVec
	transferredTons *prometheus.CounterVec
	transferSize    *prometheus.HistogramVec
	expiredTons     *prometheus.CounterVec
	idleCyclesTotal prometheus.Counter

	// Daily state
	day            prometheus.Gauge
	phase          *prometheus.GaugeVec
	fleetShips     *prometheus.GaugeVec
	berthsOccupied *prometheus.GaugeVec
	productTons    *prometheus.GaugeVec
}

// NewSimulationMetricsCollector creates a new simulation metrics collector
func NewSimulationMetricsCollector() *SimulationMetricsCollector {
	return &SimulationMetricsCollector{
		handshakesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "handshakes_total",
				Help:      "Total number of transfer requests answered by ports",
			},
			[]string{"kind", "outcome"},
		),

		reservedTons: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reserved_tons_total",
				Help:      "Total tons reserved by ships",
			},
			[]string{"kind"},
		),

		transferredTons: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transferred_tons_total",
				Help:      "Total tons committed by ports",
			},
			[]string{"kind"},
		),

		transferSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transfer_tons",
				Help:      "Committed transfer size distribution",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{"kind"},
		),

		expiredTons: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "expired_tons_total",
				Help:      "Total tons expired by location",
			},
			[]string{"location"},
		),

		idleCyclesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "idle_cycles_total",
				Help:      "Navigation cycles that found nothing to reserve",
			},
		),

		day: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "day",
				Help:      "Current simulated day",
			},
		),

		phase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "phase",
				Help:      "1 for the coordinator's current phase, 0 otherwise",
			},
			[]string{"phase"},
		),

		fleetShips: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "fleet_ships",
				Help:      "Ships per status",
			},
			[]string{"status"},
		),

		berthsOccupied: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "berths_occupied",
				Help:      "Occupied berths per port",
			},
			[]string{"port_id"},
		),

		productTons: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_tons",
				Help:      "Tons per good and state",
			},
			[]string{"good_id", "state"},
		),
	}
}

// Register registers all simulation metrics with the Prometheus registry
func (c *SimulationMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.handshakesTotal,
		c.reservedTons,
		c.transferredTons,
		c.transferSize,
		c.expiredTons,
		c.idleCyclesTotal,
		c.day,
		c.phase,
		c.fleetShips,
		c.berthsOccupied,
		c.productTons,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordHandshake records a port's answer
func (c *SimulationMetricsCollector) RecordHandshake(kind protocol.TransferKind, accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	c.handshakesTotal.WithLabelValues(string(kind), outcome).Inc()
}

// RecordTransfer records committed tons
func (c *SimulationMetricsCollector) RecordTransfer(kind protocol.TransferKind, tons int) {
	c.transferredTons.WithLabelValues(string(kind)).Add(float64(tons))
	c.transferSize.WithLabelValues(string(kind)).Observe(float64(tons))
}

// RecordExpiry records expired tons
func (c *SimulationMetricsCollector) RecordExpiry(location string, tons int) {
	c.expiredTons.WithLabelValues(location).Add(float64(tons))
}

// RecordReservation records reserved tons
func (c *SimulationMetricsCollector) RecordReservation(kind protocol.TransferKind, tons int) {
	c.reservedTons.WithLabelValues(string(kind)).Add(float64(tons))
}

// RecordIdleCycle counts a fruitless navigation cycle
func (c *SimulationMetricsCollector) RecordIdleCycle() {
	c.idleCyclesTotal.Inc()
}

// RecordDay refreshes the daily gauges from a snapshot
func (c *SimulationMetricsCollector) RecordDay(snapshot stats.Snapshot) {
	c.day.Set(float64(snapshot.Day))

	c.fleetShips.WithLabelValues("empty").Set(float64(snapshot.Fleet.Empty))
	c.fleetShips.WithLabelValues("loaded").Set(float64(snapshot.Fleet.Loaded))
	c.fleetShips.WithLabelValues("in_port").Set(float64(snapshot.Fleet.InPort))

	for _, p := range snapshot.Ports {
		c.berthsOccupied.WithLabelValues(strconv.Itoa(p.PortID)).Set(float64(p.BerthsOccupied))
	}

	for _, p := range snapshot.Products {
		good := strconv.Itoa(p.GoodID)
		c.productTons.WithLabelValues(good, "available_in_ports").Set(float64(p.AvailableInPorts))
		c.productTons.WithLabelValues(good, "on_ships").Set(float64(p.OnShips))
		c.productTons.WithLabelValues(good, "delivered").Set(float64(p.Delivered))
		c.productTons.WithLabelValues(good, "expired_in_ports").Set(float64(p.ExpiredInPorts))
		c.productTons.WithLabelValues(good, "expired_on_ships").Set(float64(p.ExpiredOnShips))
	}
}

// RecordPhase flips the phase gauge
func (c *SimulationMetricsCollector) RecordPhase(phase simulation.Phase) {
	for _, p := range phases {
		value := 0.0
		if p == phase {
			value = 1
		}
		c.phase.WithLabelValues(string(p)).Set(value)
	}
}
