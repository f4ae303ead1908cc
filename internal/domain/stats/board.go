package stats

import (
	"sync"

	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

// NoPort marks a product nobody offers or demands
const NoPort = -1

// PortStats aggregates what happened at one port
type PortStats struct {
	PortID         int `json:"port_id"`
	BerthsTotal    int `json:"berths_total"`
	BerthsOccupied int `json:"berths_occupied"`
	TonsAvailable  int `json:"tons_available"`
	TonsShipped    int `json:"tons_shipped"`
	TonsDelivered  int `json:"tons_delivered"`
	TonsExpired    int `json:"tons_expired"`
}

// ProductStats aggregates one good across the whole network
type ProductStats struct {
	GoodID           int `json:"good_id"`
	AvailableInPorts int `json:"available_in_ports"`
	OnShips          int `json:"on_ships"`
	Delivered        int `json:"delivered"`
	ExpiredInPorts   int `json:"expired_in_ports"`
	ExpiredOnShips   int `json:"expired_on_ships"`
	TopOfferingPort  int `json:"top_offering_port"`
	TopDemandingPort int `json:"top_demanding_port"`
}

// Total is the conserved quantity: no transfer or expiry changes it
func (p ProductStats) Total() int {
	return p.AvailableInPorts + p.OnShips + p.Delivered + p.ExpiredInPorts + p.ExpiredOnShips
}

// FleetStats counts ships per status
type FleetStats struct {
	Empty  int `json:"empty"`
	Loaded int `json:"loaded"`
	InPort int `json:"in_port"`
}

// Board is the statistics region shared by every agent
type Board struct {
	mu       sync.Mutex
	day      int
	ports    []PortStats
	products []ProductStats
	fleet    FleetStats
}

// NewBoard creates zeroed statistics for the given network size
func NewBoard(portCount, goodCount int) *Board {
	b := &Board{
		ports:    make([]PortStats, portCount),
		products: make([]ProductStats, goodCount),
	}
	for i := range b.ports {
		b.ports[i].PortID = i
	}
	for g := range b.products {
		b.products[g] = ProductStats{GoodID: g, TopOfferingPort: NoPort, TopDemandingPort: NoPort}
	}
	return b
}

// SetDay records the coordinator's current day
func (b *Board) SetDay(day int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.day = day
}

// InitPort records a port's berth count
func (b *Board) InitPort(portID, berths int) {
	b.withPort(portID, func(p *PortStats) {
		p.BerthsTotal = berths
	})
}

// RecordOffered adds setup stock offered by a port
func (b *Board) RecordOffered(portID, goodID, tons int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.validPort(portID) || !b.validGood(goodID) {
		return
	}
	b.ports[portID].TonsAvailable += tons
	b.products[goodID].AvailableInPorts += tons
}

// SetTopPorts records the ports with the largest offer and demand of a good
func (b *Board) SetTopPorts(goodID, offering, demanding int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.validGood(goodID) {
		return
	}
	b.products[goodID].TopOfferingPort = offering
	b.products[goodID].TopDemandingPort = demanding
}

// RecordLoad moves tons from a port onto a ship
func (b *Board) RecordLoad(portID, goodID, tons int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.validPort(portID) || !b.validGood(goodID) {
		return
	}
	b.ports[portID].TonsAvailable -= tons
	b.ports[portID].TonsShipped += tons
	b.products[goodID].AvailableInPorts -= tons
	b.products[goodID].OnShips += tons
}

// RecordUnload moves tons from a ship into a port's demand
func (b *Board) RecordUnload(portID, goodID, tons int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.validPort(portID) || !b.validGood(goodID) {
		return
	}
	b.ports[portID].TonsDelivered += tons
	b.products[goodID].OnShips -= tons
	b.products[goodID].Delivered += tons
}

// RecordPortExpiry writes tons off at a port
func (b *Board) RecordPortExpiry(portID, goodID, tons int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.validPort(portID) || !b.validGood(goodID) {
		return
	}
	b.ports[portID].TonsAvailable -= tons
	b.ports[portID].TonsExpired += tons
	b.products[goodID].AvailableInPorts -= tons
	b.products[goodID].ExpiredInPorts += tons
}

// RecordShipExpiry writes tons off aboard a ship
func (b *Board) RecordShipExpiry(goodID, tons int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.validGood(goodID) {
		return
	}
	b.products[goodID].OnShips -= tons
	b.products[goodID].ExpiredOnShips += tons
}

// DockShip counts a ship taking a berth
func (b *Board) DockShip(portID int) {
	b.withPort(portID, func(p *PortStats) {
		p.BerthsOccupied++
	})
}

// UndockShip counts a ship leaving its berth
func (b *Board) UndockShip(portID int) {
	b.withPort(portID, func(p *PortStats) {
		p.BerthsOccupied--
	})
}

// AddShip counts a new ship in the given status
func (b *Board) AddShip(status shared.ShipStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	*b.fleetBucket(status)++
}

// TransitionFleet moves one ship between status buckets
func (b *Board) TransitionFleet(from, to shared.ShipStatus) {
	if from == to {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	*b.fleetBucket(from)--
	*b.fleetBucket(to)++
}

// Fleet returns the current fleet counters
func (b *Board) Fleet() FleetStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fleet
}

// Snapshot returns a deep copy of every counter
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := Snapshot{
		Day:      b.day,
		Ports:    make([]PortStats, len(b.ports)),
		Products: make([]ProductStats, len(b.products)),
		Fleet:    b.fleet,
	}
	copy(snap.Ports, b.ports)
	copy(snap.Products, b.products)
	return snap
}

func (b *Board) withPort(portID int, fn func(*PortStats)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.validPort(portID) {
		fn(&b.ports[portID])
	}
}

func (b *Board) fleetBucket(status shared.ShipStatus) *int {
	switch status {
	case shared.ShipStatusLoaded:
		return &b.fleet.Loaded
	case shared.ShipStatusInPort:
		return &b.fleet.InPort
	default:
		return &b.fleet.Empty
	}
}

func (b *Board) validPort(id int) bool { return id >= 0 && id < len(b.ports) }
func (b *Board) validGood(id int) bool { return id >= 0 && id < len(b.products) }
