package harbor

import (
	"context"
	"errors"
	"fmt"

	"github.com/andrescamacho/harbor-go/internal/domain/goods"
	"github.com/andrescamacho/harbor-go/internal/domain/resource"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

// Port is a harbor with a berth pool and one offer and one demand entry per good.
//
// Any ship may read a port through its views and claim quantities through the
// Reserve* methods. Every other mutation belongs to the port's own agent.
type Port struct {
	id       int
	position shared.Position
	berths   *resource.BerthPool
	offers   []*goods.ProductUnit
	demands  []*goods.ProductUnit
}

// PortView is a read-only snapshot of a port
type PortView struct {
	ID             int
	Position       shared.Position
	BerthsTotal    int
	BerthsOccupied int
	Offers         []goods.UnitView
	Demands        []goods.UnitView
}

// Expiry records tons written off at a port on a tick
type Expiry struct {
	GoodID int
	Tons   int
}

// Settlement describes how a committed transfer changed a product entry
type Settlement struct {
	Committed int
	Released  int
	Expired   int
}

// NewPort assembles a port from its tables
func NewPort(id int, position shared.Position, berths int, offers, demands []*goods.ProductUnit) (*Port, error) {
	if len(offers) != len(demands) {
		return nil, shared.NewValidationError("goods", "offer and demand tables differ in size")
	}
	pool, err := resource.NewBerthPool(berths)
	if err != nil {
		return nil, err
	}
	return &Port{
		id:       id,
		position: position,
		berths:   pool,
		offers:   offers,
		demands:  demands,
	}, nil
}

func (p *Port) ID() int                   { return p.id }
func (p *Port) Position() shared.Position { return p.position }
func (p *Port) GoodCount() int            { return len(p.offers) }

// Berths exposes the dock pool ships acquire on arrival
func (p *Port) Berths() *resource.BerthPool {
	return p.berths
}

// Offer returns a snapshot of the offer entry for a good
func (p *Port) Offer(goodID int) goods.UnitView {
	if !p.validGood(goodID) {
		return goods.UnitView{GoodID: goodID, Status: goods.ProductStatusNone}
	}
	return p.offers[goodID].View()
}

// Demand returns a snapshot of the demand entry for a good
func (p *Port) Demand(goodID int) goods.UnitView {
	if !p.validGood(goodID) {
		return goods.UnitView{GoodID: goodID, Status: goods.ProductStatusNone}
	}
	return p.demands[goodID].View()
}

// View snapshots the whole port
func (p *Port) View() PortView {
	view := PortView{
		ID:             p.id,
		Position:       p.position,
		BerthsTotal:    p.berths.Total(),
		BerthsOccupied: p.berths.Occupied(),
		Offers:         make([]goods.UnitView, len(p.offers)),
		Demands:        make([]goods.UnitView, len(p.demands)),
	}
	for i := range p.offers {
		view.Offers[i] = p.offers[i].View()
		view.Demands[i] = p.demands[i].View()
	}
	return view
}

// OfferedTons sums the displayed offer tons
func (p *Port) OfferedTons() int {
	total := 0
	for _, u := range p.offers {
		total += u.Tons()
	}
	return total
}

// ReserveOffer claims tons of an offered good for a load
func (p *Port) ReserveOffer(ctx context.Context, goodID, tons int) error {
	if !p.validGood(goodID) {
		return shared.NewValidationError("good", fmt.Sprintf("unknown good %d", goodID))
	}
	return p.offers[goodID].Reserve(ctx, tons)
}

// ReserveDemand claims tons of a demanded good for an unload
func (p *Port) ReserveDemand(ctx context.Context, goodID, tons int) error {
	if !p.validGood(goodID) {
		return shared.NewValidationError("good", fmt.Sprintf("unknown good %d", goodID))
	}
	return p.demands[goodID].Reserve(ctx, tons)
}

// CanLoad is the port's coarse pre-check on a load request
func (p *Port) CanLoad(goodID, tons, day int) bool {
	if !p.validGood(goodID) {
		return false
	}
	unit := p.offers[goodID]
	return unit.HasEntry() && !unit.IsExpired(day) && unit.Tons() >= tons
}

// CanUnload reports whether the port takes deliveries of a good
func (p *Port) CanUnload(goodID int) bool {
	return p.validGood(goodID) && p.demands[goodID].HasEntry()
}

// CommitLoad applies a finished load. The ship reserved reserved tons and moved actual.
// The remainder goes back to the semaphore, or is written off when the lot has expired meanwhile.
func (p *Port) CommitLoad(goodID, reserved, actual, day int) (Settlement, error) {
	if err := p.checkTransfer(goodID, reserved, actual); err != nil {
		return Settlement{}, err
	}
	unit := p.offers[goodID]
	if err := unit.Withdraw(actual); err != nil {
		return Settlement{}, err
	}
	settlement := Settlement{Committed: actual}
	remainder := reserved - actual
	if remainder > 0 {
		if unit.IsExpired(day) {
			if err := unit.Withdraw(remainder); err != nil {
				return settlement, err
			}
			unit.SetStatus(goods.ProductStatusExpiredAtPort)
			settlement.Expired = remainder
		} else {
			if err := unit.ReleaseReservation(remainder); err != nil {
				return settlement, err
			}
			settlement.Released = remainder
		}
	}
	if unit.Tons() == 0 && unit.Status() == goods.ProductStatusAvailable {
		unit.SetStatus(goods.ProductStatusOnShip)
	}
	return settlement, nil
}

// CommitUnload applies a finished unload
func (p *Port) CommitUnload(goodID, reserved, actual int) (Settlement, error) {
	if err := p.checkTransfer(goodID, reserved, actual); err != nil {
		return Settlement{}, err
	}
	unit := p.demands[goodID]
	if err := unit.Withdraw(actual); err != nil {
		return Settlement{}, err
	}
	settlement := Settlement{Committed: actual}
	if remainder := reserved - actual; remainder > 0 {
		if err := unit.ReleaseReservation(remainder); err != nil {
			return settlement, err
		}
		settlement.Released = remainder
	}
	if unit.Tons() == 0 {
		unit.SetStatus(goods.ProductStatusDelivered)
	}
	return settlement, nil
}

// SettleRejectedLoad disposes of a reservation whose load request was turned down.
// Tons reserved on an expired lot are written off; otherwise they become claimable again.
func (p *Port) SettleRejectedLoad(goodID, reserved, day int) (Settlement, error) {
	if !p.validGood(goodID) || reserved <= 0 {
		return Settlement{}, nil
	}
	unit := p.offers[goodID]
	if unit.IsExpired(day) {
		if err := unit.Withdraw(reserved); err != nil {
			return Settlement{}, err
		}
		unit.SetStatus(goods.ProductStatusExpiredAtPort)
		return Settlement{Expired: reserved}, nil
	}
	if err := unit.ReleaseReservation(reserved); err != nil {
		return Settlement{}, err
	}
	return Settlement{Released: reserved}, nil
}

// SettleRejectedUnload hands a turned-down unload reservation back
func (p *Port) SettleRejectedUnload(goodID, reserved int) (Settlement, error) {
	if !p.validGood(goodID) || reserved <= 0 {
		return Settlement{}, nil
	}
	if err := p.demands[goodID].ReleaseReservation(reserved); err != nil {
		return Settlement{}, err
	}
	return Settlement{Released: reserved}, nil
}

// ExpireOffers writes off every offer whose expiry day has come.
// Only the free part of a lot is drained; tons already reserved stay until their
// transfer commits or is rejected. A lot whose drain is contended is retried next tick,
// as is anything handed back to an expired lot after an earlier sweep.
func (p *Port) ExpireOffers(day int) []Expiry {
	var expired []Expiry
	for _, unit := range p.offers {
		if unit.Tons() <= 0 || !unit.IsExpired(day) {
			continue
		}
		if unit.Status() != goods.ProductStatusAvailable && unit.Reservable() == 0 {
			continue
		}
		drained, ok := unit.DrainReservable()
		if !ok {
			continue
		}
		if drained > 0 {
			if err := unit.Withdraw(drained); err != nil {
				continue
			}
			expired = append(expired, Expiry{GoodID: unit.GoodID(), Tons: drained})
		}
		unit.SetStatus(goods.ProductStatusExpiredAtPort)
	}
	return expired
}

// Close tears down the berth pool and every reservation semaphore.
// Every resource is attempted even when an earlier one fails.
func (p *Port) Close() error {
	var errs []error
	if err := p.berths.Close(); err != nil {
		errs = append(errs, fmt.Errorf("port %d berths: %w", p.id, err))
	}
	for i := range p.offers {
		if err := p.offers[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("port %d offer %d: %w", p.id, i, err))
		}
		if err := p.demands[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("port %d demand %d: %w", p.id, i, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Port) validGood(goodID int) bool {
	return goodID >= 0 && goodID < len(p.offers)
}

func (p *Port) checkTransfer(goodID, reserved, actual int) error {
	if !p.validGood(goodID) {
		return shared.NewValidationError("good", fmt.Sprintf("unknown good %d", goodID))
	}
	if actual < 0 || actual > reserved {
		return shared.NewValidationError("tons", fmt.Sprintf("transferred %d outside reservation of %d", actual, reserved))
	}
	return nil
}
