package fleet

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/harbor-go/internal/adapters/metrics"
	"github.com/andrescamacho/harbor-go/internal/application/common"
	"github.com/andrescamacho/harbor-go/internal/application/trade/coordination"
	"github.com/andrescamacho/harbor-go/internal/application/trade/ports"
	domainFleet "github.com/andrescamacho/harbor-go/internal/domain/fleet"
	"github.com/andrescamacho/harbor-go/internal/domain/harbor"
	"github.com/andrescamacho/harbor-go/internal/domain/protocol"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	"github.com/andrescamacho/harbor-go/internal/domain/world"
)

// ShipAgent drives one ship: pick a trade, reserve it, sail, dock, run the handshake,
// trade greedily while docked, leave. The day tick expires cargo in between.
//
// mu guards the ship record and the day counter. A commit holds it from the completion
// to the done, so an expiry sweep never runs in the middle of a transfer.
type ShipAgent struct {
	id      int
	rng     *rand.Rand
	world   *world.World
	network ports.TradeNetwork
	ticks   <-chan int
	clock   shared.Clock
	nav     domainFleet.Navigation
	idle    *rate.Limiter

	lifecycle *shared.LifecycleStateMachine

	mu     sync.Mutex
	ship   *domainFleet.Ship
	day    int
	docked *harbor.Port
}

// NewShipAgent creates the agent for ship id. rng must not be shared with another agent.
func NewShipAgent(
	id int,
	rng *rand.Rand,
	w *world.World,
	network ports.TradeNetwork,
	ticks <-chan int,
	clock shared.Clock,
) *ShipAgent {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	params := w.Params()
	every := params.DayLength / time.Duration(max(params.IdleRetriesPerDay, 1))
	return &ShipAgent{
		id:        id,
		rng:       rng,
		world:     w,
		network:   network,
		ticks:     ticks,
		clock:     clock,
		nav:       domainFleet.Navigation{Speed: params.Speed, LoadSpeed: params.LoadSpeed},
		idle:      rate.NewLimiter(rate.Every(every), 1),
		lifecycle: shared.NewLifecycleStateMachine(clock),
	}
}

// Name identifies the agent in logs and tick subscriptions
func (a *ShipAgent) Name() string {
	return fmt.Sprintf("ship-%d", a.id)
}

func (a *ShipAgent) ID() int                                  { return a.id }
func (a *ShipAgent) Status() shared.LifecycleStatus           { return a.lifecycle.Status() }
func (a *ShipAgent) Lifecycle() *shared.LifecycleStateMachine { return a.lifecycle }

// Snapshot returns the ship's position, status and cargo
func (a *ShipAgent) Snapshot() ShipSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ship == nil {
		return ShipSnapshot{ID: a.id}
	}
	return ShipSnapshot{
		ID:       a.id,
		Position: a.ship.Position(),
		Status:   a.ship.Status(),
		Cargo:    a.ship.Hold().ByExpiry(),
		Used:     a.ship.Hold().Used(),
		Day:      a.day,
	}
}

// Setup places the ship at a random point of the map, empty
func (a *ShipAgent) Setup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return a.fail(err)
	}

	params := a.world.Params()
	position := shared.NewPosition(a.rng.Float64()*params.MapSide, a.rng.Float64()*params.MapSide)
	ship, err := domainFleet.NewShip(a.id, position, params.Goods, params.Capacity)
	if err != nil {
		return a.fail(err)
	}

	a.mu.Lock()
	a.ship = ship
	a.mu.Unlock()
	a.world.Board().AddShip(ship.Status())

	if err := a.lifecycle.MarkReady(); err != nil {
		return a.fail(err)
	}
	return nil
}

// Run waits for the start gate, then navigates until ctx ends or the network shuts down.
func (a *ShipAgent) Run(ctx context.Context, gate *coordination.StartGate) error {
	if err := gate.Wait(ctx); err != nil {
		return nil
	}
	if err := a.lifecycle.Start(); err != nil {
		return err
	}

	logger := common.WithFields(common.LoggerFromContext(ctx), map[string]interface{}{
		"ship_id": a.id,
	})
	ctx = common.WithLogger(ctx, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.watchTicks(ctx)
	}()
	defer wg.Wait()

	for ctx.Err() == nil {
		progressed, err := a.navigate(ctx)
		if err != nil {
			if coordination.IsShutdown(err) {
				return nil
			}
			logger.Log("WARNING", "Navigation cycle failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		if progressed {
			continue
		}
		metrics.RecordIdleCycle()
		if err := a.backoff(ctx); err != nil {
			return nil
		}
	}
	return nil
}

// Shutdown frees a berth the ship still holds. Later calls are no-ops.
func (a *ShipAgent) Shutdown() error {
	if !a.lifecycle.BeginShutdown() {
		return nil
	}
	err := a.undock()
	_ = a.lifecycle.MarkStopped()
	return err
}

// backoff waits out the idle limiter on the agent's clock, so a mock clock drives the pacing
func (a *ShipAgent) backoff(ctx context.Context) error {
	now := a.clock.Now()
	reservation := a.idle.ReserveN(now, 1)
	if !reservation.OK() {
		return errors.New("idle limiter refused a single retry")
	}
	if err := shared.SleepContext(ctx, a.clock, reservation.DelayFrom(now)); err != nil {
		reservation.CancelAt(a.clock.Now())
		return err
	}
	return nil
}

// navigate runs one decision cycle. progressed is false when nothing could be reserved.
func (a *ShipAgent) navigate(ctx context.Context) (progressed bool, err error) {
	a.mu.Lock()
	from := a.ship.Position()
	day := a.day
	hold := a.ship.Hold()
	empty := hold.IsEmpty()
	cargo := hold.ByExpiry()
	remaining := hold.Remaining()
	a.mu.Unlock()

	views := a.world.PortViews()
	var candidates []domainFleet.Candidate
	if empty {
		candidates = a.nav.LoadCandidates(from, views, remaining, day)
	} else {
		candidates = a.nav.UnloadCandidates(from, views, cargo, day)
	}

	for _, candidate := range candidates {
		tons, err := a.reserve(ctx, candidate)
		if err != nil {
			return false, err
		}
		if tons == 0 {
			continue
		}
		return true, a.voyage(ctx, candidate, tons)
	}
	return false, nil
}

// reserve peeks the candidate's semaphore and claims min(peek, limit), re-peeking when a
// bounded wait lapses. Returns 0 when the candidate has nothing left to claim.
func (a *ShipAgent) reserve(ctx context.Context, candidate domainFleet.Candidate) (int, error) {
	port := a.world.Port(candidate.PortID)
	if port == nil {
		return 0, nil
	}
	params := a.world.Params()

	for attempt := 0; attempt < params.ReservationRetries; attempt++ {
		var peek int
		if candidate.Kind == protocol.TransferLoad {
			peek = port.Offer(candidate.GoodID).Reservable
		} else {
			peek = port.Demand(candidate.GoodID).Reservable
		}
		if peek <= 0 {
			return 0, nil
		}
		tons := min(peek, candidate.Limit)

		waitCtx, cancel := context.WithTimeout(ctx, params.ReservationWait)
		if candidate.Kind == protocol.TransferLoad {
			err := port.ReserveOffer(waitCtx, candidate.GoodID, tons)
			cancel()
			if err == nil {
				metrics.RecordReservation(candidate.Kind, tons)
				return tons, nil
			}
			if retry, err := a.retryable(ctx, err); !retry {
				return 0, err
			}
		} else {
			err := port.ReserveDemand(waitCtx, candidate.GoodID, tons)
			cancel()
			if err == nil {
				metrics.RecordReservation(candidate.Kind, tons)
				return tons, nil
			}
			if retry, err := a.retryable(ctx, err); !retry {
				return 0, err
			}
		}
	}
	return 0, nil
}

// retryable sorts a failed reservation: the wait lapsed (retry), the agent is stopping
// (propagate), or the semaphore refused outright (skip the candidate).
func (a *ShipAgent) retryable(ctx context.Context, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true, nil
	}
	return false, nil
}

// voyage sails to the candidate's port, docks, runs the reserved transfer and then trades
// greedily while docked. The berth is always released on the way out.
func (a *ShipAgent) voyage(ctx context.Context, candidate domainFleet.Candidate, tons int) error {
	logger := common.LoggerFromContext(ctx)
	port := a.world.Port(candidate.PortID)
	params := a.world.Params()

	a.mu.Lock()
	distance := a.ship.Position().DistanceTo(port.Position())
	a.mu.Unlock()

	logger.Log("INFO", "Sailing", map[string]interface{}{
		"port_id":  candidate.PortID,
		"kind":     string(candidate.Kind),
		"good_id":  candidate.GoodID,
		"tons":     tons,
		"distance": distance,
	})
	if err := shared.SleepContext(ctx, a.clock, params.DaysToDuration(a.nav.SailDays(distance))); err != nil {
		return err
	}

	a.mu.Lock()
	a.ship.MoveTo(port.Position())
	a.mu.Unlock()

	if err := port.Berths().Acquire(ctx); err != nil {
		return err
	}
	a.dock(port)
	defer func() {
		if err := a.undock(); err != nil {
			logger.Log("ERROR", "Failed to release berth", map[string]interface{}{
				"port_id": port.ID(),
				"error":   err.Error(),
			})
		}
	}()

	moved, err := a.transfer(ctx, port, candidate, tons)
	if err != nil || moved == 0 {
		return err
	}
	return a.tradeDocked(ctx, port)
}

// tradeDocked unloads everything else the port takes, then loads what still fits
func (a *ShipAgent) tradeDocked(ctx context.Context, port *harbor.Port) error {
	for {
		a.mu.Lock()
		cargo := a.ship.Hold().ByExpiry()
		remaining := a.ship.Hold().Remaining()
		day := a.day
		a.mu.Unlock()

		view := port.View()
		moved, err := a.tryCandidates(ctx, port, domainFleet.DockedUnloads(view, cargo, day))
		if err != nil {
			return err
		}
		if moved {
			continue
		}
		moved, err = a.tryCandidates(ctx, port, domainFleet.DockedLoads(view, remaining, day))
		if err != nil || !moved {
			return err
		}
	}
}

func (a *ShipAgent) tryCandidates(ctx context.Context, port *harbor.Port, candidates []domainFleet.Candidate) (bool, error) {
	for _, candidate := range candidates {
		tons, err := a.reserve(ctx, candidate)
		if err != nil {
			return false, err
		}
		if tons == 0 {
			continue
		}
		moved, err := a.transfer(ctx, port, candidate, tons)
		if err != nil {
			return false, err
		}
		if moved > 0 {
			return true, nil
		}
	}
	return false, nil
}

// transfer runs the four-message handshake for reserved tons and returns the tons moved.
// A rejected request moves nothing; the port settles the reservation.
func (a *ShipAgent) transfer(ctx context.Context, port *harbor.Port, candidate domainFleet.Candidate, tons int) (int, error) {
	logger := common.LoggerFromContext(ctx)
	request := protocol.Request{
		Kind:   candidate.Kind,
		ShipID: a.id,
		PortID: port.ID(),
		GoodID: candidate.GoodID,
		Tons:   tons,
	}

	if err := a.network.SendRequest(ctx, request); err != nil {
		return 0, err
	}
	reply, err := a.network.AwaitReply(ctx, a.id)
	if err != nil {
		return 0, err
	}
	if !reply.Accepted {
		logger.Log("INFO", "Request rejected", map[string]interface{}{
			"port_id": port.ID(),
			"kind":    string(request.Kind),
			"good_id": request.GoodID,
			"tons":    tons,
		})
		return 0, nil
	}

	// Shrink the transfer until it ends before the goods expire
	a.mu.Lock()
	expiry := candidate.ExpiryDay
	if candidate.Kind == protocol.TransferUnload {
		expiry = a.ship.Hold().Lot(candidate.GoodID).ExpiryDay
	}
	actual := a.nav.ShrinkToFit(tons, expiry, a.day)
	a.mu.Unlock()

	if err := shared.SleepContext(ctx, a.clock, a.world.Params().DaysToDuration(a.nav.LoadDays(actual))); err != nil {
		return 0, err
	}

	return a.commit(ctx, request, actual)
}

// commit reports the actual tons, waits for the port's done and updates the hold,
// all without letting the day tick in
func (a *ShipAgent) commit(ctx context.Context, request protocol.Request, actual int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hold := a.ship.Hold()
	switch request.Kind {
	case protocol.TransferLoad:
		actual = min(actual, hold.Remaining())
	case protocol.TransferUnload:
		// the lot may have expired aboard during the loading delay
		actual = min(actual, hold.Lot(request.GoodID).Tons)
	}

	completion := protocol.Completion{ShipID: a.id, GoodID: request.GoodID, Tons: actual}
	if err := a.network.SendCompletion(ctx, request.PortID, completion); err != nil {
		return 0, err
	}
	done, err := a.network.AwaitDone(ctx, a.id)
	if err != nil {
		return 0, err
	}

	switch request.Kind {
	case protocol.TransferLoad:
		offer := a.world.Port(request.PortID).Offer(request.GoodID)
		err = hold.Load(request.GoodID, done.Tons, offer.ExpiryDay)
	case protocol.TransferUnload:
		err = hold.Unload(request.GoodID, done.Tons)
	}
	if err != nil {
		return 0, fmt.Errorf("ship %d: failed to update hold: %w", a.id, err)
	}

	common.LoggerFromContext(ctx).Log("INFO", "Transfer done", map[string]interface{}{
		"port_id":  request.PortID,
		"kind":     string(request.Kind),
		"good_id":  request.GoodID,
		"reserved": request.Tons,
		"tons":     done.Tons,
		"on_board": hold.Used(),
	})
	return done.Tons, nil
}

// dock records the ship taking a berth
func (a *ShipAgent) dock(port *harbor.Port) {
	a.mu.Lock()
	defer a.mu.Unlock()

	board := a.world.Board()
	a.docked = port
	board.DockShip(port.ID())
	previous := a.ship.SetStatus(shared.ShipStatusInPort)
	board.TransitionFleet(previous, shared.ShipStatusInPort)
}

// undock frees the berth, if any, and puts the ship back to sea
func (a *ShipAgent) undock() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.docked == nil {
		return nil
	}
	port := a.docked
	a.docked = nil

	board := a.world.Board()
	board.UndockShip(port.ID())
	status := a.ship.SeaStatus()
	previous := a.ship.SetStatus(status)
	board.TransitionFleet(previous, status)
	return port.Berths().Release()
}

func (a *ShipAgent) watchTicks(ctx context.Context) {
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

// onTick advances the ship's day and writes off expired cargo
func (a *ShipAgent) onTick(ctx context.Context, day int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.day = day
	board := a.world.Board()
	total := 0
	for _, lot := range a.ship.Hold().ExpireThrough(day) {
		board.RecordShipExpiry(lot.GoodID, lot.Tons)
		total += lot.Tons
	}
	if total == 0 {
		return
	}

	metrics.RecordExpiry(metrics.LocationShip, total)
	if a.ship.Hold().IsEmpty() && a.ship.Status() == shared.ShipStatusLoaded {
		a.ship.SetStatus(shared.ShipStatusEmpty)
		board.TransitionFleet(shared.ShipStatusLoaded, shared.ShipStatusEmpty)
	}
	common.LoggerFromContext(ctx).Log("INFO", "Cargo expired", map[string]interface{}{
		"day":  day,
		"tons": total,
	})
}

func (a *ShipAgent) fail(err error) error {
	_ = a.lifecycle.Fail(err)
	return shared.NewSetupError(a.Name(), err)
}
