package shared

// ShipStatus is the fleet-wide bucket a ship is counted in
type ShipStatus string

const (
	ShipStatusEmpty  ShipStatus = "EMPTY"
	ShipStatusLoaded ShipStatus = "LOADED"
	ShipStatusInPort ShipStatus = "IN_PORT"
)

func (s ShipStatus) IsValid() bool {
	switch s {
	case ShipStatusEmpty, ShipStatusLoaded, ShipStatusInPort:
		return true
	}
	return false
}
