package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/harbor-go/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration settings",
		Long: `Inspect Harbor configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (HARBOR_* prefix, e.g. HARBOR_SIMULATION_SHIPS)
2. Config file (harbor.yaml)
3. Preset (--preset, the file's "preset" key, or "balanced")
4. Default values

Examples:
  harbor config show
  harbor config show --preset crowded
  harbor config presets`,
	}

	// Add subcommands
	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigPresetsCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				fmt.Printf("Warning: Failed to load config: %v\n", err)
				fmt.Println("Using default configuration.")
				cfg = config.DefaultConfig()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Harbor Configuration")
			fmt.Fprintln(out, "====================")

			sim := cfg.Simulation
			fmt.Fprintf(out, "\nSimulation (preset: %s):\n", cfg.Preset)
			fmt.Fprintf(out, "  Ships:            %d\n", sim.Ships)
			fmt.Fprintf(out, "  Ports:            %d\n", sim.Ports)
			fmt.Fprintf(out, "  Goods:            %d\n", sim.Goods)
			fmt.Fprintf(out, "  Lot size:         %d\n", sim.Size)
			fmt.Fprintf(out, "  Lifetime:         %d-%d days\n", sim.MinLife, sim.MaxLife)
			fmt.Fprintf(out, "  Map side:         %g\n", sim.MapSide)
			fmt.Fprintf(out, "  Speed:            %g\n", sim.Speed)
			fmt.Fprintf(out, "  Capacity:         %d\n", sim.Capacity)
			fmt.Fprintf(out, "  Berths:           %d-%d\n", sim.BerthsMin, sim.BerthsMax)
			fmt.Fprintf(out, "  Fill:             %d\n", sim.Fill)
			fmt.Fprintf(out, "  Load speed:       %g\n", sim.LoadSpeed)
			fmt.Fprintf(out, "  Days:             %d (%s each)\n", sim.Days, sim.DayLength)
			fmt.Fprintf(out, "  Seed:             %d\n", sim.Seed)
			fmt.Fprintf(out, "  Reservation:      %s wait, %d attempts\n", sim.ReservationWait, sim.ReservationRetries)

			fmt.Fprintln(out, "\nDatabase:")
			fmt.Fprintf(out, "  Type:             %s\n", cfg.Database.Type)
			switch {
			case cfg.Database.URL != "":
				fmt.Fprintf(out, "  URL:              %s\n", maskPassword(cfg.Database.URL))
			case cfg.Database.Type == "sqlite":
				fmt.Fprintf(out, "  Path:             %s\n", cfg.Database.Path)
			default:
				fmt.Fprintf(out, "  Host:             %s\n", cfg.Database.Host)
				fmt.Fprintf(out, "  Port:             %d\n", cfg.Database.Port)
				fmt.Fprintf(out, "  Database:         %s\n", cfg.Database.Name)
				fmt.Fprintf(out, "  User:             %s\n", cfg.Database.User)
			}

			fmt.Fprintln(out, "\nMetrics:")
			fmt.Fprintf(out, "  Enabled:          %t\n", cfg.Metrics.Enabled)
			fmt.Fprintf(out, "  Endpoint:         %s\n", cfg.Metrics.Endpoint())

			fmt.Fprintln(out, "\nStatus server:")
			fmt.Fprintf(out, "  Enabled:          %t\n", cfg.Status.Enabled)
			fmt.Fprintf(out, "  Address:          %s\n", cfg.Status.Address)

			fmt.Fprintln(out, "\nLogging:")
			fmt.Fprintf(out, "  Level:            %s\n", cfg.Logging.Level)
			fmt.Fprintf(out, "  Format:           %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "  Output:           %s\n", cfg.Logging.Output)
			fmt.Fprintf(out, "  Persist:          %t\n", cfg.Logging.Persist)

			return nil
		},
	}

	return cmd
}

// newConfigPresetsCommand creates the config presets subcommand
func newConfigPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the simulation presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tSHIPS\tPORTS\tGOODS\tCAPACITY\tLIFE\tBERTHS\tFILL\tDAYS")
			for _, name := range config.PresetNames() {
				p := config.Presets[name]
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d-%d\t%d-%d\t%d\t%d\n",
					name, p.Ships, p.Ports, p.Goods, p.Capacity,
					p.MinLife, p.MaxLife, p.BerthsMin, p.BerthsMax, p.Fill, p.Days)
			}
			return w.Flush()
		},
	}
}
