package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/harbor-go/internal/adapters/persistence"
	"github.com/andrescamacho/harbor-go/internal/application/simulation"
	"github.com/andrescamacho/harbor-go/internal/application/simulation/commands"
	domainHarbor "github.com/andrescamacho/harbor-go/internal/domain/harbor"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	domainSimulation "github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/test/helpers"
)

type simulationContext struct {
	params    domainSimulation.Params
	layouts   map[int]domainHarbor.Layout
	positions map[int]shared.Position

	coordinator *simulation.Coordinator
	report      *domainSimulation.Report
	runID       string
	err         error
	shutdownErr error
}

func (sc *simulationContext) reset() {
	sc.params = domainSimulation.Params{}
	sc.layouts = make(map[int]domainHarbor.Layout)
	sc.positions = make(map[int]shared.Position)
	sc.coordinator = nil
	sc.report = nil
	sc.runID = ""
	sc.err = nil
	sc.shutdownErr = nil
}

// Given steps

func (sc *simulationContext) aNetworkOfPortsWithGoods(ports, goods int) error {
	sc.params = helpers.TestParams(ports, goods)
	sc.params.MapSide = 10
	return nil
}

func (sc *simulationContext) portAtOffersTonsOfGoodExpiringOnDay(portID int, x, y float64, tons, goodID, expiry int) error {
	layout := sc.layoutFor(portID)
	layout.OfferTons[goodID] = tons
	layout.OfferExpiry[goodID] = expiry
	sc.layouts[portID] = layout
	sc.positions[portID] = shared.NewPosition(x, y)
	return nil
}

func (sc *simulationContext) portAtDemandsTonsOfGood(portID int, x, y float64, tons, goodID int) error {
	layout := sc.layoutFor(portID)
	layout.DemandTons[goodID] = tons
	sc.layouts[portID] = layout
	sc.positions[portID] = shared.NewPosition(x, y)
	return nil
}

func (sc *simulationContext) everyOtherPortTradesNothing() error {
	side := sc.params.MapSide
	corners := []shared.Position{
		shared.NewPosition(0, 0), shared.NewPosition(0, side),
		shared.NewPosition(side, 0), shared.NewPosition(side, side),
	}
	for id := 0; id < sc.params.Ports; id++ {
		if _, ok := sc.layouts[id]; !ok {
			sc.layouts[id] = sc.layoutFor(id)
		}
		if _, ok := sc.positions[id]; !ok {
			sc.positions[id] = corners[id%len(corners)]
		}
	}
	return nil
}

func (sc *simulationContext) shipsWithCapacity(ships, capacity int) error {
	sc.params.Ships = ships
	sc.params.Capacity = capacity
	return nil
}

func (sc *simulationContext) aBudgetOfDays(days int) error {
	sc.params.Days = days
	return nil
}

func (sc *simulationContext) daysLastMilliseconds(ms int) error {
	sc.params.DayLength = time.Duration(ms) * time.Millisecond
	return nil
}

func (sc *simulationContext) goodsLiveBetweenDays(minLife, maxLife int) error {
	sc.params.MinLife = minLife
	sc.params.MaxLife = maxLife
	return nil
}

func (sc *simulationContext) shipsLoadTonsPerDay(speed float64) error {
	sc.params.LoadSpeed = speed
	return nil
}

// When steps

func (sc *simulationContext) theSimulationRuns() error {
	sc.coordinator = simulation.NewCoordinator(sc.params, nil)
	sc.pin(sc.coordinator)
	sc.report, sc.err = sc.coordinator.Run(context.Background())
	return nil
}

func (sc *simulationContext) theSimulationRunsThroughTheRecorder() error {
	repos := helpers.NewTestRepositories(helpers.SharedTestDB, nil)
	handler := commands.NewRunSimulationHandler(repos.RunRepo, repos.SnapshotRepo, nil)

	cmd := &commands.RunSimulationCommand{Params: sc.params, Preset: "bdd"}
	if len(sc.layouts) > 0 {
		cmd.Layouts = sc.layoutFunc()
		cmd.Positions = sc.positionList()
	}
	response, err := handler.Handle(context.Background(), cmd)
	sc.err = err
	if result, ok := response.(*commands.RunSimulationResponse); ok {
		sc.runID = result.RunID
		sc.report = result.Report
	}
	return nil
}

func (sc *simulationContext) everyAgentIsShutDownAgain() error {
	if sc.coordinator == nil {
		return fmt.Errorf("no simulation has run")
	}
	for _, ship := range sc.coordinator.Ships() {
		if err := ship.Shutdown(); err != nil {
			sc.shutdownErr = err
		}
	}
	for _, port := range sc.coordinator.Ports() {
		if err := port.Shutdown(); err != nil {
			sc.shutdownErr = err
		}
	}
	return nil
}

// Then steps

func (sc *simulationContext) theRunShouldEndWith(reason string) error {
	if err := sc.requireReport(); err != nil {
		return err
	}
	if string(sc.report.EndReason) != reason {
		return fmt.Errorf("expected end reason %s, got %s", reason, sc.report.EndReason)
	}
	return nil
}

func (sc *simulationContext) theRunShouldEndBeforeDay(day int) error {
	if err := sc.requireReport(); err != nil {
		return err
	}
	if sc.report.DaysElapsed >= day {
		return fmt.Errorf("expected the run to end before day %d, it lasted %d days", day, sc.report.DaysElapsed)
	}
	return nil
}

func (sc *simulationContext) theReportShouldShowDay(day int) error {
	if err := sc.requireReport(); err != nil {
		return err
	}
	if sc.report.Final.Day != day {
		return fmt.Errorf("expected report day %d, got %d", day, sc.report.Final.Day)
	}
	return nil
}

func (sc *simulationContext) tonsOfGoodShouldBeDelivered(tons, goodID int) error {
	if err := sc.requireReport(); err != nil {
		return err
	}
	if got := sc.report.Final.Products[goodID].Delivered; got != tons {
		return fmt.Errorf("expected %d tons of good %d delivered, got %d", tons, goodID, got)
	}
	return nil
}

func (sc *simulationContext) tonsOfGoodShouldHaveExpiredInPorts(tons, goodID int) error {
	if err := sc.requireReport(); err != nil {
		return err
	}
	if got := sc.report.Final.Products[goodID].ExpiredInPorts; got != tons {
		return fmt.Errorf("expected %d tons of good %d expired in ports, got %d", tons, goodID, got)
	}
	return nil
}

func (sc *simulationContext) portShouldHaveTonsAvailable(portID, tons int) error {
	if err := sc.requireReport(); err != nil {
		return err
	}
	if got := sc.report.Final.Ports[portID].TonsAvailable; got != tons {
		return fmt.Errorf("expected port %d to have %d tons available, got %d", portID, tons, got)
	}
	return nil
}

func (sc *simulationContext) noTonsShouldHaveBeenCreatedOrDestroyed() error {
	if err := sc.requireReport(); err != nil {
		return err
	}
	if total := sc.report.Final.Totals().Total(); total != sc.report.TotalOffered {
		return fmt.Errorf("conservation broken: offered %d, accounted for %d", sc.report.TotalOffered, total)
	}
	return nil
}

func (sc *simulationContext) everyShipShouldBeAccountedFor() error {
	if err := sc.requireReport(); err != nil {
		return err
	}
	if got := sc.report.Final.ShipCount(); got != sc.params.Ships {
		return fmt.Errorf("expected %d ships in the fleet counters, got %d", sc.params.Ships, got)
	}
	return nil
}

func (sc *simulationContext) noBerthShouldBeOccupied() error {
	if err := sc.requireReport(); err != nil {
		return err
	}
	if occupied := sc.report.Final.BerthsOccupied(); occupied != 0 {
		return fmt.Errorf("%d berths still occupied", occupied)
	}
	return nil
}

func (sc *simulationContext) noShutdownShouldFail() error {
	return sc.shutdownErr
}

func (sc *simulationContext) everyAgentShouldBeStopped() error {
	if sc.coordinator == nil {
		return fmt.Errorf("no simulation has run")
	}
	for _, ship := range sc.coordinator.Ships() {
		if ship.Status() != shared.LifecycleStatusStopped {
			return fmt.Errorf("%s is %s", ship.Name(), ship.Status())
		}
	}
	for _, port := range sc.coordinator.Ports() {
		if port.Status() != shared.LifecycleStatusStopped {
			return fmt.Errorf("%s is %s", port.Name(), port.Status())
		}
	}
	return nil
}

func (sc *simulationContext) theRunShouldBeRecordedWithOneSnapshotPerDay() error {
	if sc.runID == "" {
		return fmt.Errorf("no run id returned")
	}
	ctx := context.Background()
	run, err := persistence.NewGormRunRepository(helpers.SharedTestDB).FindByID(ctx, sc.runID)
	if err != nil {
		return err
	}
	if !run.IsFinished() {
		return fmt.Errorf("run %s was not finished", sc.runID)
	}

	days, err := persistence.NewGormSnapshotRepository(helpers.SharedTestDB, nil).ListByRun(ctx, sc.runID)
	if err != nil {
		return err
	}
	for i, day := range days {
		if day.Day != i+1 {
			return fmt.Errorf("snapshot %d is for day %d", i, day.Day)
		}
	}
	if len(days) == 0 {
		return fmt.Errorf("no daily snapshots recorded")
	}
	return nil
}

// helpers

func (sc *simulationContext) layoutFor(portID int) domainHarbor.Layout {
	if layout, ok := sc.layouts[portID]; ok {
		return layout
	}
	return helpers.DemandLayout(sc.params.Goods, 1, 0, 0)
}

func (sc *simulationContext) layoutFunc() simulation.LayoutFunc {
	layouts := sc.layouts
	return func(portID int) (domainHarbor.Layout, bool) {
		layout, ok := layouts[portID]
		return layout, ok
	}
}

func (sc *simulationContext) positionList() []shared.Position {
	if len(sc.positions) != sc.params.Ports {
		return nil
	}
	positions := make([]shared.Position, sc.params.Ports)
	for id := range positions {
		positions[id] = sc.positions[id]
	}
	return positions
}

func (sc *simulationContext) pin(coordinator *simulation.Coordinator) {
	if len(sc.layouts) > 0 {
		coordinator.SetLayouts(sc.layoutFunc())
	}
	if positions := sc.positionList(); positions != nil {
		coordinator.SetPositions(positions)
	}
}

func (sc *simulationContext) requireReport() error {
	if sc.err != nil {
		return fmt.Errorf("simulation failed: %w", sc.err)
	}
	if sc.report == nil {
		return fmt.Errorf("no report produced")
	}
	return nil
}

// InitializeSimulationScenario registers the simulation run steps
func InitializeSimulationScenario(ctx *godog.ScenarioContext) {
	sc := &simulationContext{}

	ctx.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		sc.reset()
		return ctx, helpers.TruncateAllTables()
	})

	// Given steps
	ctx.Step(`^a network of (\d+) ports with (\d+) goods$`, sc.aNetworkOfPortsWithGoods)
	ctx.Step(`^port (\d+) at \((\d+), (\d+)\) offers (\d+) tons of good (\d+) expiring on day (\d+)$`, sc.portAtOffersTonsOfGoodExpiringOnDay)
	ctx.Step(`^port (\d+) at \((\d+), (\d+)\) demands (\d+) tons of good (\d+)$`, sc.portAtDemandsTonsOfGood)
	ctx.Step(`^every other port trades nothing$`, sc.everyOtherPortTradesNothing)
	ctx.Step(`^(\d+) ships? with capacity (\d+)$`, sc.shipsWithCapacity)
	ctx.Step(`^a budget of (\d+) days$`, sc.aBudgetOfDays)
	ctx.Step(`^days last (\d+) milliseconds$`, sc.daysLastMilliseconds)
	ctx.Step(`^goods live between (\d+) and (\d+) days$`, sc.goodsLiveBetweenDays)
	ctx.Step(`^ships load (\d+) tons? per day$`, sc.shipsLoadTonsPerDay)

	// When steps
	ctx.Step(`^the simulation runs$`, sc.theSimulationRuns)
	ctx.Step(`^the simulation runs through the recorder$`, sc.theSimulationRunsThroughTheRecorder)
	ctx.Step(`^every agent is shut down again$`, sc.everyAgentIsShutDownAgain)

	// Then steps
	ctx.Step(`^the run should end with "([^"]*)"$`, sc.theRunShouldEndWith)
	ctx.Step(`^the run should end before day (\d+)$`, sc.theRunShouldEndBeforeDay)
	ctx.Step(`^the report should show day (\d+)$`, sc.theReportShouldShowDay)
	ctx.Step(`^(\d+) tons of good (\d+) should be delivered$`, sc.tonsOfGoodShouldBeDelivered)
	ctx.Step(`^(\d+) tons of good (\d+) should have expired in ports$`, sc.tonsOfGoodShouldHaveExpiredInPorts)
	ctx.Step(`^port (\d+) should have (\d+) tons available$`, sc.portShouldHaveTonsAvailable)
	ctx.Step(`^no tons should have been created or destroyed$`, sc.noTonsShouldHaveBeenCreatedOrDestroyed)
	ctx.Step(`^every ship should be accounted for$`, sc.everyShipShouldBeAccountedFor)
	ctx.Step(`^no berth should be occupied$`, sc.noBerthShouldBeOccupied)
	ctx.Step(`^no shutdown should fail$`, sc.noShutdownShouldFail)
	ctx.Step(`^every agent should be stopped$`, sc.everyAgentShouldBeStopped)
	ctx.Step(`^the run should be recorded with one snapshot per day$`, sc.theRunShouldBeRecordedWithOneSnapshotPerDay)
}
