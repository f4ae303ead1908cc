package goods

import (
	"fmt"

	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	"github.com/andrescamacho/harbor-go/pkg/utils"
)

// CargoLot is what a ship carries of one good
type CargoLot struct {
	GoodID    int
	Tons      int
	ExpiryDay int
	Status    ProductStatus
}

// CargoHold is a ship's manifest, one lot slot per good.
// Not safe for concurrent use; the ship agent guards it.
type CargoHold struct {
	capacity int
	lots     []CargoLot
}

// NewCargoHold creates an empty hold for goodCount goods
func NewCargoHold(goodCount, capacity int) (*CargoHold, error) {
	if capacity <= 0 {
		return nil, shared.NewValidationError("capacity", "must be positive")
	}
	if goodCount <= 0 {
		return nil, shared.NewValidationError("goods", "must be positive")
	}
	lots := make([]CargoLot, goodCount)
	for i := range lots {
		lots[i] = CargoLot{GoodID: i, Status: ProductStatusNone}
	}
	return &CargoHold{capacity: capacity, lots: lots}, nil
}

func (h *CargoHold) Capacity() int { return h.capacity }

// Used returns the tons aboard
func (h *CargoHold) Used() int {
	total := 0
	for _, lot := range h.lots {
		total += lot.Tons
	}
	return total
}

// Remaining returns the free capacity
func (h *CargoHold) Remaining() int {
	return h.capacity - h.Used()
}

func (h *CargoHold) IsEmpty() bool {
	return h.Used() == 0
}

// Lot returns the lot for a good
func (h *CargoHold) Lot(goodID int) CargoLot {
	if goodID < 0 || goodID >= len(h.lots) {
		return CargoLot{GoodID: goodID, Status: ProductStatusNone}
	}
	return h.lots[goodID]
}

// ByExpiry returns the non-empty lots, earliest expiry first, good order breaking ties
func (h *CargoHold) ByExpiry() []CargoLot {
	lots := make([]CargoLot, 0, len(h.lots))
	for _, lot := range h.lots {
		if lot.Tons > 0 {
			lots = append(lots, lot)
		}
	}
	utils.SortStableBy(lots, func(l CargoLot) int { return l.ExpiryDay })
	return lots
}

// Load stows tons of a good. A good already aboard keeps its earliest expiry day.
func (h *CargoHold) Load(goodID, tons, expiryDay int) error {
	if goodID < 0 || goodID >= len(h.lots) {
		return shared.NewValidationError("good", fmt.Sprintf("unknown good %d", goodID))
	}
	if tons < 0 {
		return shared.NewValidationError("tons", "cannot load a negative amount")
	}
	if tons > h.Remaining() {
		return shared.NewResourceError(fmt.Sprintf("cannot load %d tons: %d free", tons, h.Remaining()))
	}
	if tons == 0 {
		return nil
	}
	lot := &h.lots[goodID]
	if lot.Tons == 0 || expiryDay < lot.ExpiryDay {
		lot.ExpiryDay = expiryDay
	}
	lot.Tons += tons
	lot.Status = ProductStatusOnShip
	return nil
}

// Unload removes tons of a good
func (h *CargoHold) Unload(goodID, tons int) error {
	if goodID < 0 || goodID >= len(h.lots) {
		return shared.NewValidationError("good", fmt.Sprintf("unknown good %d", goodID))
	}
	lot := &h.lots[goodID]
	if tons < 0 || tons > lot.Tons {
		return shared.NewResourceError(fmt.Sprintf("cannot unload %d tons of good %d: %d aboard", tons, goodID, lot.Tons))
	}
	lot.Tons -= tons
	if lot.Tons == 0 && tons > 0 {
		lot.Status = ProductStatusDelivered
	}
	return nil
}

// ExpireThrough drops every lot whose expiry day is <= day and returns what was dropped
func (h *CargoHold) ExpireThrough(day int) []CargoLot {
	var expired []CargoLot
	for i := range h.lots {
		lot := &h.lots[i]
		if lot.Tons > 0 && lot.ExpiryDay <= day {
			expired = append(expired, *lot)
			lot.Tons = 0
			lot.Status = ProductStatusExpiredOnShip
		}
	}
	return expired
}
