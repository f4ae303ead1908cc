package fleet

import (
	"github.com/andrescamacho/harbor-go/internal/domain/goods"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

// ShipSnapshot is a point-in-time copy of a ship agent's state
type ShipSnapshot struct {
	ID       int
	Position shared.Position
	Status   shared.ShipStatus
	Cargo    []goods.CargoLot
	Used     int
	Day      int
}
