package goods

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/andrescamacho/harbor-go/internal/domain/resource"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

// ProductUnit is one entry of a port's offer or demand table.
//
// Tons and status are the displayed fields: only the owning port writes them, any ship
// may read them. The reservable semaphore is authoritative for how much a ship can still
// claim; displayed tons are corrected at commit time, so reservable <= tons always holds.
type ProductUnit struct {
	goodID     int
	expiryDay  int
	perishable bool

	tons   atomic.Int64
	status atomic.Value

	reservable *resource.CountingSemaphore
}

// UnitView is a read-only snapshot of a product unit
type UnitView struct {
	GoodID     int
	Tons       int
	ExpiryDay  int
	Perishable bool
	Status     ProductStatus
	Reservable int
}

// NewOfferUnit creates an offered lot that expires on expiryDay
func NewOfferUnit(goodID, tons, expiryDay int) *ProductUnit {
	u := newUnit(goodID, tons)
	u.expiryDay = expiryDay
	u.perishable = true
	return u
}

// NewDemandUnit creates a demand entry; demand never expires
func NewDemandUnit(goodID, tons int) *ProductUnit {
	return newUnit(goodID, tons)
}

func newUnit(goodID, tons int) *ProductUnit {
	u := &ProductUnit{goodID: goodID}
	if tons <= 0 {
		u.status.Store(ProductStatusNone)
		return u
	}
	u.tons.Store(int64(tons))
	u.status.Store(ProductStatusAvailable)
	u.reservable = resource.NewCountingSemaphore(tons)
	return u
}

func (u *ProductUnit) GoodID() int    { return u.goodID }
func (u *ProductUnit) ExpiryDay() int { return u.expiryDay }

// HasEntry reports whether the port trades this good at all
func (u *ProductUnit) HasEntry() bool {
	return u.reservable != nil
}

// Tons returns the displayed tons
func (u *ProductUnit) Tons() int {
	return int(u.tons.Load())
}

func (u *ProductUnit) Status() ProductStatus {
	return u.status.Load().(ProductStatus)
}

// IsExpired reports whether the lot can no longer be transferred on day
func (u *ProductUnit) IsExpired(day int) bool {
	return u.perishable && u.expiryDay <= day
}

// Reservable peeks the claimable quantity
func (u *ProductUnit) Reservable() int {
	if u.reservable == nil {
		return 0
	}
	return u.reservable.Peek()
}

// Reserve claims n tons for an upcoming transfer
func (u *ProductUnit) Reserve(ctx context.Context, n int) error {
	if u.reservable == nil {
		return shared.NewResourceError(fmt.Sprintf("good %d has no entry", u.goodID))
	}
	return u.reservable.Reserve(ctx, n)
}

// View returns a snapshot
func (u *ProductUnit) View() UnitView {
	return UnitView{
		GoodID:     u.goodID,
		Tons:       u.Tons(),
		ExpiryDay:  u.expiryDay,
		Perishable: u.perishable,
		Status:     u.Status(),
		Reservable: u.Reservable(),
	}
}

// Owner-only mutators below. The port agent calls them under its commit lock.

// Withdraw lowers the displayed tons by n
func (u *ProductUnit) Withdraw(n int) error {
	if n < 0 {
		return shared.NewValidationError("tons", "cannot withdraw a negative amount")
	}
	for {
		current := u.tons.Load()
		if int64(n) > current {
			return shared.NewResourceError(fmt.Sprintf("good %d: cannot withdraw %d, only %d displayed", u.goodID, n, current))
		}
		if u.tons.CompareAndSwap(current, current-int64(n)) {
			return nil
		}
	}
}

// SetStatus updates the displayed status
func (u *ProductUnit) SetStatus(status ProductStatus) {
	u.status.Store(status)
}

// ReleaseReservation hands n reserved tons back to the semaphore
func (u *ProductUnit) ReleaseReservation(n int) error {
	if u.reservable == nil || n <= 0 {
		return nil
	}
	return u.reservable.Release(n)
}

// DrainReservable claims everything still reservable, see CountingSemaphore.Drain
func (u *ProductUnit) DrainReservable() (int, bool) {
	if u.reservable == nil {
		return 0, true
	}
	return u.reservable.Drain()
}

// Close tears the reservation semaphore down
func (u *ProductUnit) Close() error {
	if u.reservable == nil {
		return nil
	}
	return u.reservable.Close()
}
