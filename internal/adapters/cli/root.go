package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	presetName string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "harbor",
		Short: "Harbor - maritime trade network simulation",
		Long: `Harbor simulates ports and ships trading perishable goods under limited berth capacity.
Every port and every ship is an independent agent; a coordinator drives the day clock.

Examples:
  harbor run --preset balanced
  harbor run --preset perishable --days 5 --seed 42
  harbor config presets
  harbor runs list
  harbor runs show <run-id>
  harbor status --address localhost:50061`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ./harbor.yaml, ./configs, /etc/harbor)")
	rootCmd.PersistentFlags().StringVar(&presetName, "preset", "",
		"Simulation preset (overrides the preset named in the config file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	// Add command groups
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewRunsCommand())
	rootCmd.AddCommand(NewStatusCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
