package cli_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/harbor-go/internal/adapters/cli"
	domainSimulation "github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`
preset: balanced
simulation:
  ships: 2
  ports: 4
  goods: 2
  fill: 40
  days: 2
  day_length: 20ms
  reservation_wait: 5ms
  seed: 7
database:
  type: sqlite
  path: %s
logging:
  level: error
daemon:
  pid_file: %s
`, filepath.Join(dir, "harbor.db"), filepath.Join(dir, "harbor.pid"))
	path := filepath.Join(dir, "harbor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := cli.NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigPresets_ListsEveryPreset(t *testing.T) {
	// Act
	out, err := execute(t, "config", "presets")

	// Assert
	require.NoError(t, err)
	for _, name := range []string{"balanced", "big-ships", "crowded", "perishable", "small-ships"} {
		assert.Contains(t, out, name)
	}
}

func TestConfigShow_UsesPresetFlag(t *testing.T) {
	// Act
	out, err := execute(t, "config", "show", "--config", writeTestConfig(t), "--preset", "crowded")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "preset: crowded")
	assert.Contains(t, out, "Ships:            2")
}

func TestRunThenList_RecordsTheRun(t *testing.T) {
	// Arrange
	configFile := writeTestConfig(t)

	// Act
	_, err := execute(t, "run", "--config", configFile)
	require.NoError(t, err)
	out, err := execute(t, "runs", "list", "--config", configFile)

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "run-balanced-")
	assert.Contains(t, out, "balanced")
}

func TestRunsShow_UnknownRun(t *testing.T) {
	// Act
	_, err := execute(t, "runs", "show", "missing", "--config", writeTestConfig(t))

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestRun_NoRecordLeavesDatabaseEmpty(t *testing.T) {
	// Arrange
	configFile := writeTestConfig(t)

	// Act
	_, err := execute(t, "run", "--config", configFile, "--no-record")
	require.NoError(t, err)
	out, err := execute(t, "runs", "list", "--config", configFile)

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
}

func TestFormatReport(t *testing.T) {
	// Arrange
	report := &domainSimulation.Report{
		RunID:        "run-test-1",
		EndReason:    domainSimulation.EndReasonExhausted,
		DaysElapsed:  4,
		TotalOffered: 30,
		Final: stats.Snapshot{
			Day: 4,
			Products: []stats.ProductStats{
				{GoodID: 0, Delivered: 20, ExpiredOnShips: 10, TopOfferingPort: 1, TopDemandingPort: stats.NoPort},
			},
			Ports: []stats.PortStats{{PortID: 1, BerthsTotal: 2, TonsShipped: 30}},
			Fleet: stats.FleetStats{Empty: 3},
		},
	}

	// Act
	out := cli.FormatReport(report)

	// Assert
	assert.Contains(t, out, "run-test-1")
	assert.Contains(t, out, "EXHAUSTED")
	assert.Contains(t, out, "Tons offered:   30")
	assert.Contains(t, out, "0/2")
	assert.Contains(t, out, "3 at sea empty")
}

func TestFormatReport_Nil(t *testing.T) {
	assert.Equal(t, "(no report)", cli.FormatReport(nil))
}
