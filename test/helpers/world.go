package helpers

import (
	"testing"
	"time"

	"github.com/andrescamacho/harbor-go/internal/domain/harbor"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	"github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/world"
)

// PortFixture is a hand-written port for tests that need exact tables
type PortFixture struct {
	Position shared.Position
	Layout   harbor.Layout
}

// TestParams returns fast parameters for a network of the given size.
// Days are 20ms long so agent tests finish quickly on the real clock.
func TestParams(ports, goods int) simulation.Params {
	return simulation.Params{
		Ships:              1,
		Ports:              ports,
		Goods:              goods,
		Size:               10,
		MinLife:            5,
		MaxLife:            10,
		MapSide:            10,
		Speed:              10,
		Capacity:           20,
		BerthsMin:          1,
		BerthsMax:          2,
		Fill:               ports * 10,
		LoadSpeed:          100,
		Days:               10,
		DayLength:          20 * time.Millisecond,
		Seed:               1,
		ReservationWait:    5 * time.Millisecond,
		ReservationRetries: 3,
		IdleRetriesPerDay:  4,
	}
}

// SingleGoodLayout offers tons of good 0 expiring on expiry, demands nothing, and has
// the given berths. goods sizes the tables.
func SingleGoodLayout(goods, berths, tons, expiry int) harbor.Layout {
	layout := harbor.Layout{
		Berths:      berths,
		OfferTons:   make([]int, goods),
		OfferExpiry: make([]int, goods),
		DemandTons:  make([]int, goods),
	}
	layout.OfferTons[0] = tons
	layout.OfferExpiry[0] = expiry
	return layout
}

// DemandLayout demands tons of good g and offers nothing
func DemandLayout(goods, berths, g, tons int) harbor.Layout {
	layout := harbor.Layout{
		Berths:      berths,
		OfferTons:   make([]int, goods),
		OfferExpiry: make([]int, goods),
		DemandTons:  make([]int, goods),
	}
	layout.DemandTons[g] = tons
	return layout
}

// NewWorld builds a world from fixtures, ids in order, and publishes the setup totals.
// params.Ports is overridden with the fixture count.
func NewWorld(t *testing.T, params simulation.Params, fixtures ...PortFixture) *world.World {
	t.Helper()

	params.Ports = len(fixtures)
	w := world.New(params)
	for id, fixture := range fixtures {
		port, err := harbor.Build(id, fixture.Position, fixture.Layout)
		if err != nil {
			t.Fatalf("failed to build port %d: %v", id, err)
		}
		if err := w.RegisterPort(port); err != nil {
			t.Fatalf("failed to register port %d: %v", id, err)
		}
		w.Board().InitPort(id, fixture.Layout.Berths)
	}
	w.PublishSetupTotals()

	t.Cleanup(func() {
		_ = w.Close()
	})
	return w
}
