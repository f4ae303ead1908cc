// Package protocol defines the four messages of a ship/port transfer handshake:
// Request (ship → port), Reply (port → ship), Completion (ship → port) and Done (port → ship).
package protocol

import "fmt"

// TransferKind says which way the goods move
type TransferKind string

const (
	TransferLoad   TransferKind = "LOAD"
	TransferUnload TransferKind = "UNLOAD"
)

// Request asks a port to serve a transfer the ship has already reserved
type Request struct {
	Kind   TransferKind
	ShipID int
	PortID int
	GoodID int
	Tons   int
}

// Reply accepts or rejects a request
type Reply struct {
	Kind     TransferKind
	Accepted bool
	PortID   int
	GoodID   int
	Tons     int
}

// Completion carries the tons actually moved once the loading delay elapsed
type Completion struct {
	ShipID int
	GoodID int
	Tons   int
}

// Done acknowledges a committed completion
type Done struct {
	PortID int
	GoodID int
	Tons   int
}

func (r Request) String() string {
	return fmt.Sprintf("%s ship=%d port=%d good=%d tons=%d", r.Kind, r.ShipID, r.PortID, r.GoodID, r.Tons)
}

// Accept builds the positive reply to r
func (r Request) Accept() Reply {
	return Reply{Kind: r.Kind, Accepted: true, PortID: r.PortID, GoodID: r.GoodID, Tons: r.Tons}
}

// Reject builds the negative reply to r
func (r Request) Reject() Reply {
	return Reply{Kind: r.Kind, Accepted: false, PortID: r.PortID, GoodID: r.GoodID, Tons: r.Tons}
}
