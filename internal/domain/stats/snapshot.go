package stats

// Snapshot is a point-in-time copy of the board
type Snapshot struct {
	Day      int            `json:"day"`
	Ports    []PortStats    `json:"ports"`
	Products []ProductStats `json:"products"`
	Fleet    FleetStats     `json:"fleet"`
}

// ProductTotal returns the conserved total for a good
func (s Snapshot) ProductTotal(goodID int) int {
	if goodID < 0 || goodID >= len(s.Products) {
		return 0
	}
	return s.Products[goodID].Total()
}

// Totals sums every product column
func (s Snapshot) Totals() ProductStats {
	totals := ProductStats{GoodID: -1, TopOfferingPort: NoPort, TopDemandingPort: NoPort}
	for _, p := range s.Products {
		totals.AvailableInPorts += p.AvailableInPorts
		totals.OnShips += p.OnShips
		totals.Delivered += p.Delivered
		totals.ExpiredInPorts += p.ExpiredInPorts
		totals.ExpiredOnShips += p.ExpiredOnShips
	}
	return totals
}

// ShipCount returns how many ships the fleet counters account for
func (s Snapshot) ShipCount() int {
	return s.Fleet.Empty + s.Fleet.Loaded + s.Fleet.InPort
}

// BerthsOccupied sums occupied berths over every port
func (s Snapshot) BerthsOccupied() int {
	total := 0
	for _, p := range s.Ports {
		total += p.BerthsOccupied
	}
	return total
}
