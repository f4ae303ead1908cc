package world

import (
	"errors"
	"fmt"
	"sync"

	"github.com/andrescamacho/harbor-go/internal/domain/harbor"
	"github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
)

// World is the state every agent shares: the ports and the statistics board.
// Ports are registered once during setup and never replaced.
type World struct {
	params simulation.Params
	board  *stats.Board

	mu    sync.RWMutex
	ports []*harbor.Port
}

// New creates an empty world sized for params
func New(params simulation.Params) *World {
	return &World{
		params: params,
		board:  stats.NewBoard(params.Ports, params.Goods),
		ports:  make([]*harbor.Port, params.Ports),
	}
}

func (w *World) Params() simulation.Params { return w.params }
func (w *World) Board() *stats.Board       { return w.board }

// RegisterPort publishes a port once its agent finished setup
func (w *World) RegisterPort(port *harbor.Port) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := port.ID()
	if id < 0 || id >= len(w.ports) {
		return fmt.Errorf("port id %d out of range", id)
	}
	if w.ports[id] != nil {
		return fmt.Errorf("port %d already registered", id)
	}
	w.ports[id] = port
	return nil
}

// Port returns a registered port, or nil
func (w *World) Port(id int) *harbor.Port {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if id < 0 || id >= len(w.ports) {
		return nil
	}
	return w.ports[id]
}

// Ports returns the registered ports in id order
func (w *World) Ports() []*harbor.Port {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ports := make([]*harbor.Port, 0, len(w.ports))
	for _, p := range w.ports {
		if p != nil {
			ports = append(ports, p)
		}
	}
	return ports
}

// PortViews snapshots every registered port
func (w *World) PortViews() []harbor.PortView {
	ports := w.Ports()
	views := make([]harbor.PortView, len(ports))
	for i, p := range ports {
		views[i] = p.View()
	}
	return views
}

// HasOffers reports whether any port still displays offered tons
func (w *World) HasOffers() bool {
	for _, p := range w.Ports() {
		if p.OfferedTons() > 0 {
			return true
		}
	}
	return false
}

// Exhausted reports the terminal condition: nothing offered anywhere and no ship loaded.
// A docked ship counts as loaded: it may have just taken the last offer aboard.
func (w *World) Exhausted() bool {
	if w.HasOffers() {
		return false
	}
	fleet := w.board.Fleet()
	return fleet.Loaded == 0 && fleet.InPort == 0
}

// PublishSetupTotals seeds the product statistics from the ports' initial tables and
// records the top offering and demanding port of every good
func (w *World) PublishSetupTotals() {
	views := w.PortViews()
	for g := 0; g < w.params.Goods; g++ {
		offering, demanding := stats.NoPort, stats.NoPort
		bestOffer, bestDemand := 0, 0
		for _, v := range views {
			if g >= len(v.Offers) {
				continue
			}
			if tons := v.Offers[g].Tons; tons > 0 {
				w.board.RecordOffered(v.ID, g, tons)
				if tons > bestOffer {
					bestOffer, offering = tons, v.ID
				}
			}
			if tons := v.Demands[g].Tons; tons > bestDemand {
				bestDemand, demanding = tons, v.ID
			}
		}
		w.board.SetTopPorts(g, offering, demanding)
	}
}

// Close tears down every port's resources, continuing past failures
func (w *World) Close() error {
	var errs []error
	for _, p := range w.Ports() {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
