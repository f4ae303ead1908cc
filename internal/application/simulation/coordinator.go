package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/andrescamacho/harbor-go/internal/adapters/metrics"
	"github.com/andrescamacho/harbor-go/internal/application/common"
	"github.com/andrescamacho/harbor-go/internal/application/fleet"
	"github.com/andrescamacho/harbor-go/internal/application/harbor"
	"github.com/andrescamacho/harbor-go/internal/application/trade/coordination"
	domainHarbor "github.com/andrescamacho/harbor-go/internal/domain/harbor"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	domainSimulation "github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
	"github.com/andrescamacho/harbor-go/internal/domain/world"
)

// Agent is a port or ship the coordinator launches
type Agent interface {
	Name() string
	Setup(ctx context.Context) error
	Run(ctx context.Context, gate *coordination.StartGate) error
	Shutdown() error
}

// PhaseObserver is told every time the coordinator changes phase
type PhaseObserver interface {
	OnPhase(phase domainSimulation.Phase)
}

// DayObserver is an optional extension of PhaseObserver told about every finished day
type DayObserver interface {
	OnDay(snapshot stats.Snapshot)
}

// DayRecorder receives the statistics at the end of every simulated day
type DayRecorder interface {
	RecordDay(ctx context.Context, snapshot stats.Snapshot) error
}

// LayoutFunc lets a caller pin the tables of some ports instead of drawing them.
// Returning false draws the port as usual.
type LayoutFunc func(portID int) (domainHarbor.Layout, bool)

// Coordinator runs one simulation from setup to the final report.
//
// Phases:
//  1. SETUP: place the ports, set up every port agent (barrier A), publish the setup
//     totals, set up every ship agent (barrier B), open the start gate
//  2. RUNNING: one tick per day broadcast to every agent, exhaustion check after each
//  3. SHUTTING_DOWN: cancel every agent, join them, release every shared resource
//  4. FINISHED: the report is ready
type Coordinator struct {
	params    domainSimulation.Params
	clock     shared.Clock
	observers []PhaseObserver
	recorder  DayRecorder
	layouts   LayoutFunc
	positions []shared.Position

	mu    sync.RWMutex
	phase domainSimulation.Phase
	world *world.World
	ports []*harbor.PortAgent
	ships []*fleet.ShipAgent
}

// NewCoordinator creates a coordinator for params. A nil clock uses the real clock.
func NewCoordinator(params domainSimulation.Params, clock shared.Clock) *Coordinator {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Coordinator{
		params: params,
		clock:  clock,
		phase:  domainSimulation.PhaseSetup,
	}
}

// AddObserver registers a phase observer. Must be called before Run.
func (c *Coordinator) AddObserver(observer PhaseObserver) {
	c.observers = append(c.observers, observer)
}

// SetRecorder registers the daily statistics sink. Must be called before Run.
func (c *Coordinator) SetRecorder(recorder DayRecorder) {
	c.recorder = recorder
}

// SetLayouts pins port tables. Must be called before Run.
func (c *Coordinator) SetLayouts(layouts LayoutFunc) {
	c.layouts = layouts
}

// SetPositions pins port positions instead of placing them. Must be called before Run.
func (c *Coordinator) SetPositions(positions []shared.Position) {
	c.positions = positions
}

// Phase returns the current phase
func (c *Coordinator) Phase() domainSimulation.Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// World returns the running world, nil before setup
func (c *Coordinator) World() *world.World {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.world
}

// Ships returns the ship agents launched so far
func (c *Coordinator) Ships() []*fleet.ShipAgent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*fleet.ShipAgent(nil), c.ships...)
}

// Ports returns the port agents launched so far
func (c *Coordinator) Ports() []*harbor.PortAgent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*harbor.PortAgent(nil), c.ports...)
}

// Run executes the simulation. Cancelling ctx ends it early with an INTERRUPTED report.
// A setup failure is fatal: the agents are torn down and the SetupError returned.
func (c *Coordinator) Run(ctx context.Context) (*domainSimulation.Report, error) {
	if err := c.params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation parameters: %w", err)
	}
	logger := common.LoggerFromContext(ctx)
	params := c.params

	c.setPhase(domainSimulation.PhaseSetup)

	rng := rand.New(rand.NewSource(params.Seed))
	w := world.New(params)
	positions := c.positions
	if len(positions) != params.Ports {
		positions = domainHarbor.PlacePorts(rng, params.Ports, params.MapSide)
	}

	portIDs := make([]int, params.Ports)
	for i := range portIDs {
		portIDs[i] = i
	}
	shipIDs := make([]int, params.Ships)
	for i := range shipIDs {
		shipIDs[i] = i
	}
	network := coordination.NewChannelTradeNetwork(portIDs, shipIDs)
	ticks := coordination.NewTickBroadcaster()
	gate := coordination.NewStartGate()

	agentCtx, cancelAgents := context.WithCancel(ctx)
	defer cancelAgents()

	ports := make([]*harbor.PortAgent, params.Ports)
	for id := range ports {
		agent := harbor.NewPortAgent(id, positions[id], rand.New(rand.NewSource(rng.Int63())), w, network,
			ticks.Subscribe(fmt.Sprintf("port-%d", id)), c.clock)
		if c.layouts != nil {
			if layout, ok := c.layouts(id); ok {
				agent.UseLayout(layout)
			}
		}
		ports[id] = agent
	}
	c.mu.Lock()
	c.world = w
	c.ports = ports
	c.mu.Unlock()

	l := &launcher{
		ctx:      agentCtx,
		stop:     cancelAgents,
		gate:     gate,
		failures: make(chan error, params.Ports+params.Ships),
		logger:   logger,
	}

	// Nothing counts as offered until every port published its tables
	totalOffered := 0

	// Barrier A: every port published its tables
	barrierA := coordination.NewBarrier(params.Ports)
	for _, agent := range ports {
		l.launch(agent, barrierA)
	}
	if err := l.await(barrierA); err != nil {
		return c.abort(ctx, err, l, network, ticks, w, totalOffered)
	}

	w.PublishSetupTotals()
	totalOffered = w.Board().Snapshot().Totals().AvailableInPorts
	logger.Log("INFO", "Ports ready", map[string]interface{}{
		"ports":         params.Ports,
		"total_offered": totalOffered,
	})

	ships := make([]*fleet.ShipAgent, params.Ships)
	for id := range ships {
		ships[id] = fleet.NewShipAgent(id, rand.New(rand.NewSource(rng.Int63())), w, network,
			ticks.Subscribe(fmt.Sprintf("ship-%d", id)), c.clock)
	}
	c.mu.Lock()
	c.ships = ships
	c.mu.Unlock()

	// Barrier B: every ship is afloat
	barrierB := coordination.NewBarrier(params.Ships)
	for _, agent := range ships {
		l.launch(agent, barrierB)
	}
	if err := l.await(barrierB); err != nil {
		return c.abort(ctx, err, l, network, ticks, w, totalOffered)
	}

	c.setPhase(domainSimulation.PhaseRunning)
	gate.Open()
	logger.Log("INFO", "Simulation started", map[string]interface{}{
		"ships": params.Ships,
		"ports": params.Ports,
		"goods": params.Goods,
		"days":  params.Days,
	})

	reason, day := c.runDays(ctx, w, ticks)

	c.setPhase(domainSimulation.PhaseShuttingDown)
	c.teardown(ctx, l, network, ticks, w)

	report := &domainSimulation.Report{
		EndReason:    reason,
		DaysElapsed:  day,
		TotalOffered: totalOffered,
		Final:        w.Board().Snapshot(),
	}
	c.setPhase(domainSimulation.PhaseFinished)
	logger.Log("INFO", "Simulation finished", map[string]interface{}{
		"end_reason":   string(reason),
		"days_elapsed": day,
		"delivered":    report.Final.Totals().Delivered,
	})
	return report, nil
}

// runDays drives the day clock and returns why it stopped and on which day
func (c *Coordinator) runDays(ctx context.Context, w *world.World, ticks *coordination.TickBroadcaster) (domainSimulation.EndReason, int) {
	params := c.params

	for day := 1; day < params.Days; day++ {
		if err := shared.SleepContext(ctx, c.clock, params.DayLength); err != nil {
			return domainSimulation.EndReasonInterrupted, day - 1
		}
		w.Board().SetDay(day)
		ticks.Broadcast(day)
		c.endOfDay(ctx, w)

		if w.Exhausted() {
			common.LoggerFromContext(ctx).Log("INFO", "Nothing left to trade, ending early", map[string]interface{}{
				"day": day,
			})
			return domainSimulation.EndReasonExhausted, day
		}
	}

	if err := shared.SleepContext(ctx, c.clock, params.DayLength); err != nil {
		return domainSimulation.EndReasonInterrupted, params.Days - 1
	}
	w.Board().SetDay(params.Days)
	return domainSimulation.EndReasonDayBudget, params.Days
}

// endOfDay logs and records the day's statistics
func (c *Coordinator) endOfDay(ctx context.Context, w *world.World) {
	logger := common.LoggerFromContext(ctx)
	snapshot := w.Board().Snapshot()
	totals := snapshot.Totals()

	metrics.RecordDay(snapshot)
	logger.Log("INFO", "Day report", map[string]interface{}{
		"day":                snapshot.Day,
		"available_in_ports": totals.AvailableInPorts,
		"on_ships":           totals.OnShips,
		"delivered":          totals.Delivered,
		"expired_in_ports":   totals.ExpiredInPorts,
		"expired_on_ships":   totals.ExpiredOnShips,
		"ships_empty":        snapshot.Fleet.Empty,
		"ships_loaded":       snapshot.Fleet.Loaded,
		"ships_in_port":      snapshot.Fleet.InPort,
		"berths_occupied":    snapshot.BerthsOccupied(),
	})

	for _, observer := range c.observers {
		if dayObserver, ok := observer.(DayObserver); ok {
			dayObserver.OnDay(snapshot)
		}
	}

	if c.recorder != nil {
		if err := c.recorder.RecordDay(ctx, snapshot); err != nil {
			logger.Log("WARNING", "Failed to record day", map[string]interface{}{
				"day":   snapshot.Day,
				"error": err.Error(),
			})
		}
	}
}

// abort tears a failed setup down. A cancelled ctx is an interruption, anything else is fatal.
// totalOffered is what the setup published so far, the same figure a completed run reports.
func (c *Coordinator) abort(
	ctx context.Context,
	cause error,
	l *launcher,
	network *coordination.ChannelTradeNetwork,
	ticks *coordination.TickBroadcaster,
	w *world.World,
	totalOffered int,
) (*domainSimulation.Report, error) {
	c.setPhase(domainSimulation.PhaseShuttingDown)
	c.teardown(ctx, l, network, ticks, w)
	c.setPhase(domainSimulation.PhaseFinished)

	if ctx.Err() != nil && errors.Is(cause, ctx.Err()) {
		return &domainSimulation.Report{
			EndReason:    domainSimulation.EndReasonInterrupted,
			TotalOffered: totalOffered,
			Final:        w.Board().Snapshot(),
		}, nil
	}
	common.LoggerFromContext(ctx).Log("ERROR", "Setup failed, simulation aborted", map[string]interface{}{
		"error": cause.Error(),
	})
	return nil, cause
}

// teardown stops every agent and releases every resource once, continuing past failures
func (c *Coordinator) teardown(
	ctx context.Context,
	l *launcher,
	network *coordination.ChannelTradeNetwork,
	ticks *coordination.TickBroadcaster,
	w *world.World,
) {
	l.stopAll()
	ticks.Close()

	var errs []error
	for _, ship := range c.Ships() {
		if err := ship.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ship.Name(), err))
		}
	}
	for _, port := range c.Ports() {
		if err := port.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", port.Name(), err))
		}
	}
	if err := network.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("network: %w", err))
	}
	if err := w.Close(); err != nil {
		errs = append(errs, fmt.Errorf("world: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		common.LoggerFromContext(ctx).Log("ERROR", "Teardown finished with errors", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (c *Coordinator) setPhase(phase domainSimulation.Phase) {
	c.mu.Lock()
	c.phase = phase
	c.mu.Unlock()

	metrics.RecordPhase(phase)
	for _, observer := range c.observers {
		observer.OnPhase(phase)
	}
}
