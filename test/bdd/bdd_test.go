package bdd

import (
	"os"
	"testing"

	"github.com/andrescamacho/harbor-go/test/bdd/steps"
	"github.com/andrescamacho/harbor-go/test/helpers"
	"github.com/cucumber/godog"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/resource", "features/simulation"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	steps.InitializeReservationScenario(sc)
	steps.InitializeSimulationScenario(sc)
}

func TestMain(m *testing.M) {
	// Recorded runs share one database; scenarios truncate it in their Before hook
	if err := helpers.InitializeSharedTestDB(); err != nil {
		panic("Failed to initialize shared test database: " + err.Error())
	}

	code := m.Run()
	_ = helpers.CloseSharedTestDB()
	os.Exit(code)
}
