package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/harbor-go/internal/domain/protocol"
	"github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
)

func TestRecordFunctionsAreNoOpsWithoutCollector(t *testing.T) {
	SetGlobalCollector(nil)

	assert.NotPanics(t, func() {
		RecordHandshake(protocol.TransferLoad, true)
		RecordTransfer(protocol.TransferUnload, 5)
		RecordExpiry(LocationPort, 3)
		RecordDay(stats.Snapshot{})
		RecordPhase(simulation.PhaseRunning)
	})
}

func TestSimulationMetricsCollector(t *testing.T) {
	InitRegistry()
	defer func() { Registry = nil }()

	c := NewSimulationMetricsCollector()
	require.NoError(t, c.Register())
	SetGlobalCollector(c)
	defer SetGlobalCollector(nil)

	RecordHandshake(protocol.TransferLoad, true)
	RecordHandshake(protocol.TransferLoad, false)
	RecordHandshake(protocol.TransferLoad, false)
	RecordTransfer(protocol.TransferUnload, 7)
	RecordExpiry(LocationShip, 4)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.handshakesTotal.WithLabelValues("LOAD", "accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.handshakesTotal.WithLabelValues("LOAD", "rejected")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.transferredTons.WithLabelValues("UNLOAD")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.expiredTons.WithLabelValues(LocationShip)))

	RecordPhase(simulation.PhaseShuttingDown)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.phase.WithLabelValues("SHUTTING_DOWN")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.phase.WithLabelValues("RUNNING")))

	RecordDay(stats.Snapshot{
		Day:      3,
		Ports:    []stats.PortStats{{PortID: 0, BerthsOccupied: 2}},
		Products: []stats.ProductStats{{GoodID: 0, Delivered: 9}},
		Fleet:    stats.FleetStats{Empty: 1, InPort: 2},
	})
	assert.Equal(t, 3.0, testutil.ToFloat64(c.day))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.berthsOccupied.WithLabelValues("0")))
	assert.Equal(t, 9.0, testutil.ToFloat64(c.productTons.WithLabelValues("0", "delivered")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.fleetShips.WithLabelValues("in_port")))
}

func TestRegisterWithoutRegistry(t *testing.T) {
	Registry = nil
	assert.NoError(t, NewSimulationMetricsCollector().Register())
}
