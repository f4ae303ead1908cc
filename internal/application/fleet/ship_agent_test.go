package fleet

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/harbor-go/internal/application/harbor"
	"github.com/andrescamacho/harbor-go/internal/application/trade/coordination"
	domainFleet "github.com/andrescamacho/harbor-go/internal/domain/fleet"
	domainHarbor "github.com/andrescamacho/harbor-go/internal/domain/harbor"
	"github.com/andrescamacho/harbor-go/internal/domain/protocol"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	"github.com/andrescamacho/harbor-go/internal/domain/world"
	"github.com/andrescamacho/harbor-go/test/helpers"
)

// twoPortWorld has port 0 at the origin offering 10 tons of good 0 (expiring day 5)
// and port 1 ten miles east demanding 10 tons of it
func twoPortWorld(t *testing.T) *world.World {
	t.Helper()
	return helpers.NewWorld(t, helpers.TestParams(2, 2),
		helpers.PortFixture{Position: shared.NewPosition(0, 0), Layout: helpers.SingleGoodLayout(2, 1, 10, 5)},
		helpers.PortFixture{Position: shared.NewPosition(10, 0), Layout: helpers.DemandLayout(2, 1, 0, 10)},
	)
}

func newShip(t *testing.T, w *world.World, id int, network *coordination.ChannelTradeNetwork, at shared.Position) *ShipAgent {
	t.Helper()
	agent := NewShipAgent(id, rand.New(rand.NewSource(int64(id))), w, network, nil, nil)
	require.NoError(t, agent.Setup(context.Background()))
	agent.ship.MoveTo(at)
	return agent
}

func TestShipAgent_SetupAddsEmptyShip(t *testing.T) {
	w := twoPortWorld(t)

	agent := newShip(t, w, 0, nil, shared.NewPosition(1, 1))

	assert.Equal(t, shared.LifecycleStatusReady, agent.Status())
	assert.Equal(t, 1, w.Board().Fleet().Empty)
	snapshot := agent.Snapshot()
	assert.Equal(t, shared.ShipStatusEmpty, snapshot.Status)
	assert.Zero(t, snapshot.Used)
}

// harborRun is a set of running port agents and one running ship
type harborRun struct {
	world  *world.World
	ship   *ShipAgent
	ports  []*harbor.PortAgent
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// startHarbor sets up a port agent per fixture and one ship at the given point, then opens the gate
func startHarbor(t *testing.T, goodsCount int, at shared.Position, fixtures ...helpers.PortFixture) *harborRun {
	t.Helper()
	params := helpers.TestParams(len(fixtures), goodsCount)
	w := world.New(params)
	portIDs := make([]int, len(fixtures))
	for id := range portIDs {
		portIDs[id] = id
	}
	network := coordination.NewChannelTradeNetwork(portIDs, []int{0})

	run := &harborRun{world: w, ports: make([]*harbor.PortAgent, len(fixtures))}
	for id, fixture := range fixtures {
		run.ports[id] = harbor.NewPortAgent(id, fixture.Position, rand.New(rand.NewSource(1)), w, network, nil, nil)
		run.ports[id].UseLayout(fixture.Layout)
		require.NoError(t, run.ports[id].Setup(context.Background()))
	}
	w.PublishSetupTotals()
	run.ship = newShip(t, w, 0, network, at)

	ctx, cancel := context.WithCancel(context.Background())
	run.cancel = cancel
	gate := coordination.NewStartGate()
	for _, port := range run.ports {
		run.wg.Add(1)
		go func() {
			defer run.wg.Done()
			_ = port.Run(ctx, gate)
		}()
	}
	run.wg.Add(1)
	go func() {
		defer run.wg.Done()
		_ = run.ship.Run(ctx, gate)
	}()
	gate.Open()
	return run
}

// stop cancels every agent, joins them and shuts them down
func (r *harborRun) stop(t *testing.T) {
	t.Helper()
	r.cancel()
	r.wg.Wait()
	require.NoError(t, r.ship.Shutdown())
	for _, port := range r.ports {
		require.NoError(t, port.Shutdown())
	}
}

func TestShipAgent_CarriesGoodsFromOfferToDemand(t *testing.T) {
	// Arrange
	fixtures := []helpers.PortFixture{
		{Position: shared.NewPosition(0, 0), Layout: helpers.SingleGoodLayout(2, 1, 10, 5)},
		{Position: shared.NewPosition(10, 0), Layout: helpers.DemandLayout(2, 1, 0, 10)},
	}

	// Act
	run := startHarbor(t, 2, shared.NewPosition(0, 1), fixtures...)

	// Assert
	assert.Eventually(t, func() bool {
		return run.world.Board().Snapshot().Products[0].Delivered == 10
	}, 3*time.Second, 10*time.Millisecond)
	run.stop(t)

	snap := run.world.Board().Snapshot()
	assert.Equal(t, 10, snap.ProductTotal(0))
	assert.Zero(t, snap.Products[0].OnShips)
	assert.Equal(t, 1, snap.Fleet.Empty)
	assert.Zero(t, snap.BerthsOccupied())
	assert.Equal(t, shared.NewPosition(10, 0), run.ship.Snapshot().Position)
}

func TestShipAgent_UnloadsThenLoadsInOneBerthStay(t *testing.T) {
	// Arrange: port 1 takes good 0 and has 6 tons of good 1 waiting
	exchange := harborLayout(1, []int{0, 6}, []int{0, 9}, []int{10, 0})
	fixtures := []helpers.PortFixture{
		{Position: shared.NewPosition(0, 0), Layout: helpers.SingleGoodLayout(2, 1, 10, 5)},
		{Position: shared.NewPosition(10, 0), Layout: exchange},
	}

	// Act
	run := startHarbor(t, 2, shared.NewPosition(0, 1), fixtures...)

	// Assert
	assert.Eventually(t, func() bool {
		snap := run.world.Board().Snapshot()
		return snap.Products[0].Delivered == 10 && snap.Products[1].OnShips == 6
	}, 3*time.Second, 10*time.Millisecond)
	run.stop(t)

	snap := run.world.Board().Snapshot()
	assert.Equal(t, 10, snap.ProductTotal(0))
	assert.Equal(t, 6, snap.ProductTotal(1))
	assert.Zero(t, snap.Products[1].AvailableInPorts)
	assert.Equal(t, 1, snap.Fleet.Loaded)
	assert.Zero(t, snap.BerthsOccupied())

	ship := run.ship.Snapshot()
	assert.Equal(t, shared.NewPosition(10, 0), ship.Position)
	assert.Equal(t, shared.ShipStatusLoaded, ship.Status)
	require.Len(t, ship.Cargo, 1)
	assert.Equal(t, 1, ship.Cargo[0].GoodID)
	assert.Equal(t, 6, ship.Cargo[0].Tons)
}

func harborLayout(berths int, offerTons, offerExpiry, demandTons []int) domainHarbor.Layout {
	return domainHarbor.Layout{
		Berths:      berths,
		OfferTons:   offerTons,
		OfferExpiry: offerExpiry,
		DemandTons:  demandTons,
	}
}

func TestShipAgent_ReserveTakesOnlyTheResidual(t *testing.T) {
	w := helpers.NewWorld(t, helpers.TestParams(1, 2),
		helpers.PortFixture{Layout: helpers.SingleGoodLayout(2, 1, 15, 5)},
	)
	first := newShip(t, w, 0, nil, shared.NewPosition(0, 0))
	second := newShip(t, w, 1, nil, shared.NewPosition(0, 0))
	candidate := domainFleet.Candidate{Kind: protocol.TransferLoad, PortID: 0, GoodID: 0, Limit: 15, ExpiryDay: 5}

	got, err := first.reserve(context.Background(), candidate)
	require.NoError(t, err)
	assert.Equal(t, 15, got)

	got, err = second.reserve(context.Background(), candidate)
	require.NoError(t, err)
	assert.Zero(t, got, "a drained semaphore is skipped, never over-reserved")
}

func TestShipAgent_ReserveClampsToPeek(t *testing.T) {
	w := helpers.NewWorld(t, helpers.TestParams(1, 2),
		helpers.PortFixture{Layout: helpers.SingleGoodLayout(2, 1, 15, 5)},
	)
	require.NoError(t, w.Port(0).ReserveOffer(context.Background(), 0, 10))
	ship := newShip(t, w, 0, nil, shared.NewPosition(0, 0))

	got, err := ship.reserve(context.Background(), domainFleet.Candidate{
		Kind: protocol.TransferLoad, PortID: 0, GoodID: 0, Limit: 15, ExpiryDay: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, 5, got)
	assert.Zero(t, w.Port(0).Offer(0).Reservable)
}

func TestShipAgent_TickExpiresCargo(t *testing.T) {
	w := twoPortWorld(t)
	ship := newShip(t, w, 0, nil, shared.NewPosition(0, 0))
	require.NoError(t, ship.ship.Hold().Load(0, 4, 3))
	ship.ship.SetStatus(shared.ShipStatusLoaded)
	w.Board().TransitionFleet(shared.ShipStatusEmpty, shared.ShipStatusLoaded)
	w.Board().RecordLoad(0, 0, 4)

	ship.onTick(context.Background(), 2)
	assert.Equal(t, 4, ship.Snapshot().Used)

	ship.onTick(context.Background(), 3)

	snapshot := ship.Snapshot()
	assert.Zero(t, snapshot.Used)
	assert.Equal(t, shared.ShipStatusEmpty, snapshot.Status)
	snap := w.Board().Snapshot()
	assert.Equal(t, 4, snap.Products[0].ExpiredOnShips)
	assert.Zero(t, snap.Products[0].OnShips)
	assert.Equal(t, 1, snap.Fleet.Empty)
	assert.Equal(t, 10, snap.ProductTotal(0))
}

func TestShipAgent_ShutdownReleasesBerthOnce(t *testing.T) {
	w := twoPortWorld(t)
	ship := newShip(t, w, 0, nil, shared.NewPosition(0, 0))
	port := w.Port(0)
	require.NoError(t, port.Berths().Acquire(context.Background()))
	ship.dock(port)
	assert.Equal(t, 1, w.Board().Fleet().InPort)

	require.NoError(t, ship.Shutdown())
	require.NoError(t, ship.Shutdown())

	assert.Zero(t, port.Berths().Occupied())
	assert.Zero(t, w.Board().Snapshot().Ports[0].BerthsOccupied)
	assert.Equal(t, 1, w.Board().Fleet().Empty)
	assert.Equal(t, shared.LifecycleStatusStopped, ship.Status())
}

func TestShipAgent_BerthBlocksWhileFull(t *testing.T) {
	w := twoPortWorld(t)
	port := w.Port(0)
	require.NoError(t, port.Berths().Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := port.Berths().Acquire(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, port.Berths().Occupied())
}

func TestShipAgent_IdleBackoffRunsOnAgentClock(t *testing.T) {
	// Arrange
	params := helpers.TestParams(2, 2)
	w := world.New(params)
	clock := shared.NewMockClock(time.Time{})
	agent := NewShipAgent(0, rand.New(rand.NewSource(1)), w, nil, nil, clock)
	every := params.DayLength / time.Duration(params.IdleRetriesPerDay)
	start := clock.Now()

	// Act
	require.NoError(t, agent.backoff(context.Background()))
	first := clock.Now().Sub(start)
	require.NoError(t, agent.backoff(context.Background()))
	require.NoError(t, agent.backoff(context.Background()))

	// Assert
	assert.Zero(t, first, "the first idle cycle retries at once")
	assert.InDelta(t, float64(2*every), float64(clock.Now().Sub(start)), float64(time.Microsecond))
}

func TestShipAgent_IdleBackoffStopsWithContext(t *testing.T) {
	w := world.New(helpers.TestParams(2, 2))
	agent := NewShipAgent(0, rand.New(rand.NewSource(1)), w, nil, nil, shared.NewMockClock(time.Time{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := agent.backoff(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
