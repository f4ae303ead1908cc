package harbor

import (
	"fmt"
	"math/rand"

	"github.com/andrescamacho/harbor-go/internal/domain/goods"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

// SetupParams sizes a generated port
type SetupParams struct {
	Goods      int
	Size       int
	MinLife    int
	MaxLife    int
	BerthsMin  int
	BerthsMax  int
	FillTarget int
}

// Validate checks the parameters can produce a port
func (p SetupParams) Validate() error {
	switch {
	case p.Goods < 2:
		return shared.NewValidationError("goods", "a port needs two distinct goods to offer and demand")
	case p.Size < 1:
		return shared.NewValidationError("size", "must be at least 1")
	case p.MinLife < 1 || p.MaxLife < p.MinLife:
		return shared.NewValidationError("life", fmt.Sprintf("invalid range [%d, %d]", p.MinLife, p.MaxLife))
	case p.BerthsMin < 1 || p.BerthsMax < p.BerthsMin:
		return shared.NewValidationError("berths", fmt.Sprintf("invalid range [%d, %d]", p.BerthsMin, p.BerthsMax))
	case p.FillTarget < 1:
		return shared.NewValidationError("fill", "per-port fill target must be at least 1")
	}
	return nil
}

// Layout is the drawn content of a port before any resource is created
type Layout struct {
	Berths      int
	OfferTons   []int
	OfferExpiry []int
	DemandTons  []int
	FirstOffer  int
	FirstDemand int
}

// DrawLayout draws berths and the offer/demand tables.
//
// One offer and one demand entry on distinct goods are forced. Every other good goes to
// the offer or demand side on a coin flip, with tons drawn so that side never passes the
// fill target; a side already at target leaves the good out. Whatever the draws leave
// short of the target is added to the forced entry, so both sides total exactly FillTarget.
func DrawLayout(rng *rand.Rand, p SetupParams) (Layout, error) {
	if err := p.Validate(); err != nil {
		return Layout{}, err
	}

	layout := Layout{
		Berths:      p.BerthsMin + rng.Intn(p.BerthsMax-p.BerthsMin+1),
		OfferTons:   make([]int, p.Goods),
		OfferExpiry: make([]int, p.Goods),
		DemandTons:  make([]int, p.Goods),
	}

	drawTons := func(room int) int {
		return 1 + rng.Intn(min(p.Size, room))
	}
	drawLife := func() int {
		return p.MinLife + rng.Intn(p.MaxLife-p.MinLife+1)
	}

	layout.FirstOffer = rng.Intn(p.Goods)
	layout.FirstDemand = rng.Intn(p.Goods - 1)
	if layout.FirstDemand >= layout.FirstOffer {
		layout.FirstDemand++
	}

	offerFill := drawTons(p.FillTarget)
	layout.OfferTons[layout.FirstOffer] = offerFill
	layout.OfferExpiry[layout.FirstOffer] = drawLife()

	demandFill := drawTons(p.FillTarget)
	layout.DemandTons[layout.FirstDemand] = demandFill

	for g := 0; g < p.Goods; g++ {
		if g == layout.FirstOffer || g == layout.FirstDemand {
			continue
		}
		if rng.Intn(2) == 1 {
			if room := p.FillTarget - offerFill; room > 0 {
				tons := drawTons(room)
				layout.OfferTons[g] = tons
				layout.OfferExpiry[g] = drawLife()
				offerFill += tons
			}
		} else {
			if room := p.FillTarget - demandFill; room > 0 {
				tons := drawTons(room)
				layout.DemandTons[g] = tons
				demandFill += tons
			}
		}
	}

	layout.OfferTons[layout.FirstOffer] += p.FillTarget - offerFill
	layout.DemandTons[layout.FirstDemand] += p.FillTarget - demandFill

	return layout, nil
}

// Generate draws a layout and builds the port with its berth pool and semaphores
func Generate(rng *rand.Rand, id int, position shared.Position, p SetupParams) (*Port, error) {
	layout, err := DrawLayout(rng, p)
	if err != nil {
		return nil, err
	}
	return Build(id, position, layout)
}

// Build creates a port from an explicit layout
func Build(id int, position shared.Position, layout Layout) (*Port, error) {
	if len(layout.OfferTons) != len(layout.DemandTons) {
		return nil, shared.NewValidationError("goods", "offer and demand tables differ in size")
	}
	offers := make([]*goods.ProductUnit, len(layout.OfferTons))
	demands := make([]*goods.ProductUnit, len(layout.DemandTons))
	for g := range offers {
		expiry := 0
		if g < len(layout.OfferExpiry) {
			expiry = layout.OfferExpiry[g]
		}
		offers[g] = goods.NewOfferUnit(g, layout.OfferTons[g], expiry)
		demands[g] = goods.NewDemandUnit(g, layout.DemandTons[g])
	}
	return NewPort(id, position, layout.Berths, offers, demands)
}

// PlacePorts positions count ports on a square map of the given side.
// The first four sit on the corners, the rest are uniform over the map.
func PlacePorts(rng *rand.Rand, count int, side float64) []shared.Position {
	corners := []shared.Position{
		shared.NewPosition(0, 0),
		shared.NewPosition(0, side),
		shared.NewPosition(side, 0),
		shared.NewPosition(side, side),
	}
	positions := make([]shared.Position, count)
	for i := range positions {
		if i < len(corners) {
			positions[i] = corners[i]
			continue
		}
		positions[i] = shared.NewPosition(rng.Float64()*side, rng.Float64()*side)
	}
	return positions
}
