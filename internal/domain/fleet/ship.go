package fleet

import (
	"github.com/andrescamacho/harbor-go/internal/domain/goods"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

// Ship is a vessel's own state. Only its agent touches it.
type Ship struct {
	id       int
	position shared.Position
	hold     *goods.CargoHold
	status   shared.ShipStatus
}

// NewShip creates an empty ship at position
func NewShip(id int, position shared.Position, goodCount, capacity int) (*Ship, error) {
	hold, err := goods.NewCargoHold(goodCount, capacity)
	if err != nil {
		return nil, err
	}
	return &Ship{
		id:       id,
		position: position,
		hold:     hold,
		status:   shared.ShipStatusEmpty,
	}, nil
}

func (s *Ship) ID() int                   { return s.id }
func (s *Ship) Position() shared.Position { return s.position }
func (s *Ship) Hold() *goods.CargoHold    { return s.hold }
func (s *Ship) Status() shared.ShipStatus { return s.status }

// MoveTo puts the ship at a new position
func (s *Ship) MoveTo(p shared.Position) {
	s.position = p
}

// SetStatus changes the status and returns the previous one
func (s *Ship) SetStatus(status shared.ShipStatus) shared.ShipStatus {
	previous := s.status
	s.status = status
	return previous
}

// SeaStatus is the status the ship sails with given its cargo
func (s *Ship) SeaStatus() shared.ShipStatus {
	if s.hold.IsEmpty() {
		return shared.ShipStatusEmpty
	}
	return shared.ShipStatusLoaded
}
