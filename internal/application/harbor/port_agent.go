package harbor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/andrescamacho/harbor-go/internal/adapters/metrics"
	"github.com/andrescamacho/harbor-go/internal/application/common"
	"github.com/andrescamacho/harbor-go/internal/application/trade/coordination"
	"github.com/andrescamacho/harbor-go/internal/application/trade/ports"
	domainHarbor "github.com/andrescamacho/harbor-go/internal/domain/harbor"
	"github.com/andrescamacho/harbor-go/internal/domain/protocol"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	"github.com/andrescamacho/harbor-go/internal/domain/world"
)

// PortAgent owns one port: it builds the port's tables, serves the handshakes ships
// send to its inbox one at a time, and expires offers on every day tick.
//
// Every write to the port and to its statistics happens under commitMu, so a tick
// never interleaves with a commit.
type PortAgent struct {
	id       int
	position shared.Position
	rng      *rand.Rand
	world    *world.World
	network  ports.TradeNetwork
	ticks    <-chan int
	clock    shared.Clock

	lifecycle *shared.LifecycleStateMachine
	layout    *domainHarbor.Layout
	port      *domainHarbor.Port

	commitMu sync.Mutex
	day      atomic.Int64
}

// NewPortAgent creates the agent for port id. rng must not be shared with another agent.
func NewPortAgent(
	id int,
	position shared.Position,
	rng *rand.Rand,
	w *world.World,
	network ports.TradeNetwork,
	ticks <-chan int,
	clock shared.Clock,
) *PortAgent {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &PortAgent{
		id:        id,
		position:  position,
		rng:       rng,
		world:     w,
		network:   network,
		ticks:     ticks,
		clock:     clock,
		lifecycle: shared.NewLifecycleStateMachine(clock),
	}
}

// Name identifies the agent in logs and tick subscriptions
func (a *PortAgent) Name() string {
	return fmt.Sprintf("port-%d", a.id)
}

func (a *PortAgent) ID() int                                  { return a.id }
func (a *PortAgent) Port() *domainHarbor.Port                 { return a.port }
func (a *PortAgent) Status() shared.LifecycleStatus           { return a.lifecycle.Status() }
func (a *PortAgent) Lifecycle() *shared.LifecycleStateMachine { return a.lifecycle }

// Day returns the last day tick the port processed
func (a *PortAgent) Day() int {
	return int(a.day.Load())
}

// UseLayout makes Setup build the port from layout instead of drawing one
func (a *PortAgent) UseLayout(layout domainHarbor.Layout) {
	a.layout = &layout
}

// Setup draws the port's berths and product tables and publishes the port to the world
func (a *PortAgent) Setup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return a.fail(err)
	}

	var (
		port *domainHarbor.Port
		err  error
	)
	if a.layout != nil {
		port, err = domainHarbor.Build(a.id, a.position, *a.layout)
	} else {
		port, err = domainHarbor.Generate(a.rng, a.id, a.position, a.world.Params().PortSetup())
	}
	if err != nil {
		return a.fail(err)
	}
	if err := a.world.RegisterPort(port); err != nil {
		return a.fail(err)
	}
	a.port = port
	a.world.Board().InitPort(a.id, port.Berths().Total())

	if err := a.lifecycle.MarkReady(); err != nil {
		return a.fail(err)
	}

	common.LoggerFromContext(ctx).Log("INFO", "Port ready", map[string]interface{}{
		"port_id":      a.id,
		"position":     a.position.String(),
		"berths":       port.Berths().Total(),
		"offered_tons": port.OfferedTons(),
	})
	return nil
}

// Run waits for the start gate, then serves requests until ctx ends or the network shuts down.
func (a *PortAgent) Run(ctx context.Context, gate *coordination.StartGate) error {
	if err := gate.Wait(ctx); err != nil {
		return nil
	}
	if err := a.lifecycle.Start(); err != nil {
		return err
	}

	logger := common.WithFields(common.LoggerFromContext(ctx), map[string]interface{}{
		"port_id": a.id,
	})
	ctx = common.WithLogger(ctx, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.watchTicks(ctx)
	}()

	err := a.serve(ctx)
	wg.Wait()
	return err
}

// Shutdown releases the port's resources. Later calls are no-ops.
func (a *PortAgent) Shutdown() error {
	if !a.lifecycle.BeginShutdown() {
		return nil
	}

	var err error
	if a.port != nil {
		err = a.port.Close()
	}
	_ = a.lifecycle.MarkStopped()
	return err
}

func (a *PortAgent) serve(ctx context.Context) error {
	logger := common.LoggerFromContext(ctx)

	for {
		request, err := a.network.NextRequest(ctx, a.id)
		if err != nil {
			if coordination.IsShutdown(err) {
				return nil
			}
			return fmt.Errorf("port %d: failed to read request: %w", a.id, err)
		}

		if err := a.handle(ctx, request); err != nil {
			if coordination.IsShutdown(err) {
				return nil
			}
			logger.Log("WARNING", "Handshake aborted", map[string]interface{}{
				"request": request.String(),
				"error":   err.Error(),
			})
		}
	}
}

// handle runs one handshake from request to done
func (a *PortAgent) handle(ctx context.Context, request protocol.Request) error {
	logger := common.LoggerFromContext(ctx)

	accepted := a.validate(request)
	metrics.RecordHandshake(request.Kind, accepted)

	if !accepted {
		a.settleRejected(ctx, request)
		logger.Log("INFO", "Request rejected", map[string]interface{}{
			"ship_id": request.ShipID,
			"kind":    string(request.Kind),
			"good_id": request.GoodID,
			"tons":    request.Tons,
		})
		return a.network.SendReply(ctx, request.ShipID, request.Reject())
	}

	if err := a.network.SendReply(ctx, request.ShipID, request.Accept()); err != nil {
		a.settleRejected(ctx, request)
		return err
	}

	completion, err := a.awaitCompletion(ctx, request)
	if err != nil {
		return err
	}

	committed := a.commit(ctx, request, completion.Tons)
	return a.network.SendDone(ctx, request.ShipID, protocol.Done{
		PortID: a.id,
		GoodID: request.GoodID,
		Tons:   committed,
	})
}

// validate is the coarse check; the ship's reservation is authoritative
func (a *PortAgent) validate(request protocol.Request) bool {
	if request.Tons <= 0 {
		return false
	}
	switch request.Kind {
	case protocol.TransferLoad:
		return a.port.CanLoad(request.GoodID, request.Tons, a.Day())
	case protocol.TransferUnload:
		return a.port.CanUnload(request.GoodID)
	}
	return false
}

// awaitCompletion waits for the accepted ship's completion, ignoring any other
func (a *PortAgent) awaitCompletion(ctx context.Context, request protocol.Request) (protocol.Completion, error) {
	logger := common.LoggerFromContext(ctx)

	for {
		completion, err := a.network.AwaitCompletion(ctx, a.id)
		if err != nil {
			return protocol.Completion{}, err
		}
		if completion.ShipID == request.ShipID && completion.GoodID == request.GoodID {
			return completion, nil
		}
		logger.Log("WARNING", "Ignoring completion from a ship without an accepted request", map[string]interface{}{
			"ship_id":          completion.ShipID,
			"good_id":          completion.GoodID,
			"expected_ship_id": request.ShipID,
		})
	}
}

// commit applies a finished transfer to the port and the statistics.
// Returns the tons actually committed.
func (a *PortAgent) commit(ctx context.Context, request protocol.Request, actual int) int {
	logger := common.LoggerFromContext(ctx)
	board := a.world.Board()

	if actual < 0 {
		actual = 0
	}
	if actual > request.Tons {
		logger.Log("WARNING", "Completion exceeds reservation, clamping", map[string]interface{}{
			"ship_id":  request.ShipID,
			"reserved": request.Tons,
			"reported": actual,
		})
		actual = request.Tons
	}

	a.commitMu.Lock()
	defer a.commitMu.Unlock()

	var (
		settlement domainHarbor.Settlement
		err        error
	)
	switch request.Kind {
	case protocol.TransferLoad:
		settlement, err = a.port.CommitLoad(request.GoodID, request.Tons, actual, a.Day())
		if settlement.Committed > 0 {
			board.RecordLoad(a.id, request.GoodID, settlement.Committed)
		}
		if settlement.Expired > 0 {
			board.RecordPortExpiry(a.id, request.GoodID, settlement.Expired)
			metrics.RecordExpiry(metrics.LocationPort, settlement.Expired)
		}
	case protocol.TransferUnload:
		settlement, err = a.port.CommitUnload(request.GoodID, request.Tons, actual)
		if settlement.Committed > 0 {
			board.RecordUnload(a.id, request.GoodID, settlement.Committed)
		}
	}
	if err != nil {
		logger.Log("ERROR", "Commit failed", map[string]interface{}{
			"request": request.String(),
			"actual":  actual,
			"error":   err.Error(),
		})
	}

	metrics.RecordTransfer(request.Kind, settlement.Committed)
	logger.Log("INFO", "Transfer committed", map[string]interface{}{
		"ship_id":   request.ShipID,
		"kind":      string(request.Kind),
		"good_id":   request.GoodID,
		"reserved":  request.Tons,
		"committed": settlement.Committed,
		"released":  settlement.Released,
		"expired":   settlement.Expired,
	})
	return settlement.Committed
}

// settleRejected disposes of the reservation behind a request the ship will not complete
func (a *PortAgent) settleRejected(ctx context.Context, request protocol.Request) {
	a.commitMu.Lock()
	defer a.commitMu.Unlock()

	var (
		settlement domainHarbor.Settlement
		err        error
	)
	switch request.Kind {
	case protocol.TransferLoad:
		settlement, err = a.port.SettleRejectedLoad(request.GoodID, request.Tons, a.Day())
	case protocol.TransferUnload:
		settlement, err = a.port.SettleRejectedUnload(request.GoodID, request.Tons)
	}
	if err != nil {
		common.LoggerFromContext(ctx).Log("ERROR", "Failed to settle rejected reservation", map[string]interface{}{
			"request": request.String(),
			"error":   err.Error(),
		})
		return
	}
	if settlement.Expired > 0 {
		a.world.Board().RecordPortExpiry(a.id, request.GoodID, settlement.Expired)
		metrics.RecordExpiry(metrics.LocationPort, settlement.Expired)
	}
}

func (a *PortAgent) watchTicks(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case day, ok := <-a.ticks:
			if !ok {
				return
			}
			a.onTick(ctx, day)
		}
	}
}

// onTick advances the port's day and writes off expired offers
func (a *PortAgent) onTick(ctx context.Context, day int) {
	a.commitMu.Lock()
	defer a.commitMu.Unlock()

	a.day.Store(int64(day))
	board := a.world.Board()
	total := 0
	for _, e := range a.port.ExpireOffers(day) {
		board.RecordPortExpiry(a.id, e.GoodID, e.Tons)
		total += e.Tons
	}
	if total > 0 {
		metrics.RecordExpiry(metrics.LocationPort, total)
		common.LoggerFromContext(ctx).Log("INFO", "Offers expired", map[string]interface{}{
			"day":  day,
			"tons": total,
		})
	}
}

func (a *PortAgent) fail(err error) error {
	_ = a.lifecycle.Fail(err)
	return shared.NewSetupError(a.Name(), err)
}
