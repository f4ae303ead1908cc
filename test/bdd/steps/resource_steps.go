package steps

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"

	"github.com/andrescamacho/harbor-go/internal/domain/resource"
)

type reservationContext struct {
	semaphore *resource.CountingSemaphore
	berths    *resource.BerthPool

	capacities map[string]int
	reserved   map[string]int
	docked     map[string]time.Time
	waitStart  map[string]time.Time
	waitErrs   map[string]chan error

	mu  sync.Mutex
	err error
}

func (rc *reservationContext) reset() {
	rc.semaphore = nil
	rc.berths = nil
	rc.capacities = make(map[string]int)
	rc.reserved = make(map[string]int)
	rc.docked = make(map[string]time.Time)
	rc.waitStart = make(map[string]time.Time)
	rc.waitErrs = make(map[string]chan error)
	rc.err = nil
}

// Given steps

func (rc *reservationContext) anOfferOfTons(tons int) error {
	rc.semaphore = resource.NewCountingSemaphore(tons)
	return nil
}

func (rc *reservationContext) aPortWithBerths(berths int) error {
	pool, err := resource.NewBerthPool(berths)
	if err != nil {
		return err
	}
	rc.berths = pool
	return nil
}

func (rc *reservationContext) theFollowingShips(table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		name := getCellValueFromTable(table, row, "ship")
		capacity, err := strconv.Atoi(getCellValueFromTable(table, row, "capacity"))
		if err != nil {
			return fmt.Errorf("invalid capacity for %s: %w", name, err)
		}
		rc.capacities[name] = capacity
	}
	return nil
}

// When steps

// everyShipReservesAtOnce races the ships: each peeks, asks for what fits in its hold,
// and retries a timed-out reservation against a fresh peek
func (rc *reservationContext) everyShipReservesAtOnce(retries, waitMs int) error {
	var wg sync.WaitGroup
	for name, capacity := range rc.capacities {
		wg.Add(1)
		go func(name string, capacity int) {
			defer wg.Done()
			for attempt := 0; attempt < retries; attempt++ {
				available := rc.semaphore.Peek()
				if available == 0 {
					return
				}
				tons := min(available, capacity)

				ctx, cancel := context.WithTimeout(context.Background(), time.Duration(waitMs)*time.Millisecond)
				err := rc.semaphore.Reserve(ctx, tons)
				cancel()
				if err == nil {
					rc.mu.Lock()
					rc.reserved[name] = tons
					rc.mu.Unlock()
					return
				}
			}
		}(name, capacity)
	}
	wg.Wait()
	return nil
}

func (rc *reservationContext) shipDocks(name string) error {
	if err := rc.berths.Acquire(context.Background()); err != nil {
		return err
	}
	rc.docked[name] = time.Now()
	return nil
}

func (rc *reservationContext) shipWaitsForABerth(name string) error {
	done := make(chan error, 1)
	rc.waitStart[name] = time.Now()
	rc.waitErrs[name] = done
	go func() {
		done <- rc.berths.Acquire(context.Background())
	}()
	return nil
}

func (rc *reservationContext) shipUndocksAfterMilliseconds(name string, ms int) error {
	if _, ok := rc.docked[name]; !ok {
		return fmt.Errorf("%s is not docked", name)
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	delete(rc.docked, name)
	return rc.berths.Release()
}

// Then steps

func (rc *reservationContext) theShipsShouldHaveReservedTonsInTotal(tons int) error {
	total := 0
	for _, reserved := range rc.reserved {
		total += reserved
	}
	if total != tons {
		return fmt.Errorf("expected %d tons reserved in total, got %d (%v)", tons, total, rc.reserved)
	}
	return nil
}

func (rc *reservationContext) noShipShouldHoldMoreThanItsCapacity() error {
	for name, reserved := range rc.reserved {
		if reserved > rc.capacities[name] {
			return fmt.Errorf("%s reserved %d tons with capacity %d", name, reserved, rc.capacities[name])
		}
	}
	return nil
}

func (rc *reservationContext) tonsShouldRemainReservable(tons int) error {
	if got := rc.semaphore.Peek(); got != tons {
		return fmt.Errorf("expected %d tons reservable, got %d", tons, got)
	}
	return nil
}

func (rc *reservationContext) shipShouldStillBeWaiting(name string) error {
	select {
	case err := <-rc.waitErrs[name]:
		return fmt.Errorf("%s docked early (err=%v)", name, err)
	case <-time.After(10 * time.Millisecond):
		return nil
	}
}

func (rc *reservationContext) shipShouldDockAfterWaitingAtLeastMilliseconds(name string, ms int) error {
	select {
	case err := <-rc.waitErrs[name]:
		if err != nil {
			return err
		}
	case <-time.After(time.Second):
		return fmt.Errorf("%s never docked", name)
	}
	rc.docked[name] = time.Now()
	if waited := rc.docked[name].Sub(rc.waitStart[name]); waited < time.Duration(ms)*time.Millisecond {
		return fmt.Errorf("%s waited only %s", name, waited)
	}
	return nil
}

func (rc *reservationContext) berthsShouldBeOccupied(occupied int) error {
	if got := rc.berths.Occupied(); got != occupied {
		return fmt.Errorf("expected %d berths occupied, got %d", occupied, got)
	}
	return nil
}

// getCellValueFromTable gets a cell value from a table row by column name
func getCellValueFromTable(table *godog.Table, row *messages.PickleTableRow, columnName string) string {
	if len(table.Rows) == 0 {
		return ""
	}
	for i, headerCell := range table.Rows[0].Cells {
		if headerCell.Value == columnName {
			if i < len(row.Cells) {
				return row.Cells[i].Value
			}
			return ""
		}
	}
	return ""
}

// InitializeReservationScenario registers the berth and tonnage reservation steps
func InitializeReservationScenario(ctx *godog.ScenarioContext) {
	rc := &reservationContext{}

	ctx.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		rc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an offer of (\d+) tons$`, rc.anOfferOfTons)
	ctx.Step(`^a port with (\d+) berths?$`, rc.aPortWithBerths)
	ctx.Step(`^the following ships:$`, rc.theFollowingShips)

	// When steps
	ctx.Step(`^every ship reserves at once, retrying (\d+) times with a (\d+) millisecond wait$`, rc.everyShipReservesAtOnce)
	ctx.Step(`^"([^"]*)" docks$`, rc.shipDocks)
	ctx.Step(`^"([^"]*)" waits for a berth$`, rc.shipWaitsForABerth)
	ctx.Step(`^"([^"]*)" undocks after (\d+) milliseconds$`, rc.shipUndocksAfterMilliseconds)

	// Then steps
	ctx.Step(`^the ships should have reserved (\d+) tons in total$`, rc.theShipsShouldHaveReservedTonsInTotal)
	ctx.Step(`^no ship should hold more than its capacity$`, rc.noShipShouldHoldMoreThanItsCapacity)
	ctx.Step(`^(\d+) tons should remain reservable$`, rc.tonsShouldRemainReservable)
	ctx.Step(`^"([^"]*)" should still be waiting$`, rc.shipShouldStillBeWaiting)
	ctx.Step(`^"([^"]*)" should dock after waiting at least (\d+) milliseconds$`, rc.shipShouldDockAfterWaitingAtLeastMilliseconds)
	ctx.Step(`^(\d+) berths? should be occupied$`, rc.berthsShouldBeOccupied)
}
