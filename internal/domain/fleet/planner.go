package fleet

import (
	"github.com/andrescamacho/harbor-go/internal/domain/goods"
	"github.com/andrescamacho/harbor-go/internal/domain/harbor"
	"github.com/andrescamacho/harbor-go/internal/domain/protocol"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	"github.com/andrescamacho/harbor-go/pkg/utils"
)

// Navigation holds the ship performance figures the heuristics work with
type Navigation struct {
	Speed     float64
	LoadSpeed float64
}

// Candidate is one transfer a ship could try to reserve
type Candidate struct {
	Kind      protocol.TransferKind
	PortID    int
	GoodID    int
	Distance  float64
	Limit     int
	ExpiryDay int
}

// SailDays is the time to cover distance
func (n Navigation) SailDays(distance float64) float64 {
	return distance / n.Speed
}

// LoadDays is the time to move tons across the quay
func (n Navigation) LoadDays(tons int) float64 {
	return float64(tons) / n.LoadSpeed
}

// EstimateDays is the whole-day estimate of sailing distance and then moving tons
func (n Navigation) EstimateDays(distance float64, tons int) int {
	return int(n.SailDays(distance)) + int(n.LoadDays(tons))
}

// Fits reports whether a good expiring on expiryDay survives the trip and transfer
func (n Navigation) Fits(expiryDay, day int, distance float64, tons int) bool {
	return expiryDay > n.EstimateDays(distance, tons)+day
}

// ShrinkToFit halves tons until moving them ends before expiryDay. It may return 0.
func (n Navigation) ShrinkToFit(tons, expiryDay, day int) int {
	for tons > 0 && expiryDay <= int(n.LoadDays(tons))+day {
		tons /= 2
	}
	return tons
}

// ByDistance orders ports nearest first, port order breaking ties
func ByDistance(from shared.Position, ports []harbor.PortView) []harbor.PortView {
	sorted := make([]harbor.PortView, len(ports))
	copy(sorted, ports)
	utils.SortStableBy(sorted, func(p harbor.PortView) float64 {
		return from.DistanceTo(p.Position)
	})
	return sorted
}

// OffersByExpiry orders a port's offered goods soonest expiry first, good order breaking ties
func OffersByExpiry(port harbor.PortView) []goods.UnitView {
	offers := make([]goods.UnitView, 0, len(port.Offers))
	for _, o := range port.Offers {
		if o.Tons > 0 {
			offers = append(offers, o)
		}
	}
	utils.SortStableBy(offers, func(u goods.UnitView) int { return u.ExpiryDay })
	return offers
}

// LoadCandidates ranks what an empty ship could go and fetch: nearest port first,
// then soonest expiry, keeping only goods that outlive the trip and loading.
func (n Navigation) LoadCandidates(from shared.Position, ports []harbor.PortView, capacity, day int) []Candidate {
	var candidates []Candidate
	for _, port := range ByDistance(from, ports) {
		distance := from.DistanceTo(port.Position)
		for _, offer := range OffersByExpiry(port) {
			if !n.Fits(offer.ExpiryDay, day, distance, min(offer.Tons, capacity)) {
				continue
			}
			candidates = append(candidates, Candidate{
				Kind:      protocol.TransferLoad,
				PortID:    port.ID,
				GoodID:    offer.GoodID,
				Distance:  distance,
				Limit:     capacity,
				ExpiryDay: offer.ExpiryDay,
			})
		}
	}
	return candidates
}

// UnloadCandidates ranks deliveries for a loaded ship: most urgent cargo first, then the
// nearest port demanding it. Goods nobody demands, or nobody can receive in time, are skipped.
func (n Navigation) UnloadCandidates(from shared.Position, ports []harbor.PortView, cargo []goods.CargoLot, day int) []Candidate {
	var candidates []Candidate
	sorted := ByDistance(from, ports)
	for _, lot := range cargo {
		if lot.Tons <= 0 {
			continue
		}
		for _, port := range sorted {
			if lot.GoodID >= len(port.Demands) {
				continue
			}
			demand := port.Demands[lot.GoodID]
			if demand.Tons <= 0 {
				continue
			}
			distance := from.DistanceTo(port.Position)
			if !n.Fits(lot.ExpiryDay, day, distance, min(demand.Tons, lot.Tons)) {
				continue
			}
			candidates = append(candidates, Candidate{
				Kind:      protocol.TransferUnload,
				PortID:    port.ID,
				GoodID:    lot.GoodID,
				Distance:  distance,
				Limit:     lot.Tons,
				ExpiryDay: lot.ExpiryDay,
			})
		}
	}
	return candidates
}

// DockedUnloads lists what a docked ship can still hand over at port, most urgent first
func DockedUnloads(port harbor.PortView, cargo []goods.CargoLot, day int) []Candidate {
	var candidates []Candidate
	for _, lot := range cargo {
		if lot.Tons <= 0 || lot.ExpiryDay <= day || lot.GoodID >= len(port.Demands) {
			continue
		}
		if port.Demands[lot.GoodID].Tons <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Kind:      protocol.TransferUnload,
			PortID:    port.ID,
			GoodID:    lot.GoodID,
			Limit:     lot.Tons,
			ExpiryDay: lot.ExpiryDay,
		})
	}
	return candidates
}

// DockedLoads lists what a docked ship can still take on at port, soonest expiry first
func DockedLoads(port harbor.PortView, capacity, day int) []Candidate {
	if capacity <= 0 {
		return nil
	}
	var candidates []Candidate
	for _, offer := range OffersByExpiry(port) {
		if offer.ExpiryDay <= day {
			continue
		}
		candidates = append(candidates, Candidate{
			Kind:      protocol.TransferLoad,
			PortID:    port.ID,
			GoodID:    offer.GoodID,
			Limit:     capacity,
			ExpiryDay: offer.ExpiryDay,
		})
	}
	return candidates
}
