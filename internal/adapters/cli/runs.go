package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/harbor-go/internal/adapters/persistence"
	"github.com/andrescamacho/harbor-go/internal/application/mediator"
	"github.com/andrescamacho/harbor-go/internal/application/setup"
	"github.com/andrescamacho/harbor-go/internal/application/simulation/queries"
	"github.com/andrescamacho/harbor-go/internal/infrastructure/database"
)

// NewRunsCommand creates the runs command with subcommands
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded in the database.

Examples:
  harbor runs list --limit 5
  harbor runs show run-balanced-1a2b3c4d
  harbor runs show run-balanced-1a2b3c4d --days`,
	}

	cmd.AddCommand(newRunsListCommand())
	cmd.AddCommand(newRunsShowCommand())

	return cmd
}

func newRunsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunQueries(func(med mediator.Mediator) error {
				response, err := med.Send(context.Background(), &queries.ListRunsQuery{Limit: limit})
				if err != nil {
					return err
				}
				runs := response.(*queries.ListRunsResponse).Runs
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "RUN\tPRESET\tSTARTED\tOUTCOME\tDAYS\tDELIVERED\t")
				for _, run := range runs {
					fmt.Fprintln(w, FormatRunLine(run))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func newRunsShowCommand() *cobra.Command {
	var (
		showDays bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the report of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunQueries(func(med mediator.Mediator) error {
				response, err := med.Send(context.Background(), &queries.GetRunReportQuery{RunID: args[0]})
				if err != nil {
					return err
				}
				result := response.(*queries.GetRunReportResponse)
				out := cmd.OutOrStdout()

				if asJSON {
					fmt.Fprintln(out, prettyPrint(result))
					return nil
				}

				run := result.Run
				fmt.Fprintf(out, "Run %s (preset %s)\n", run.ID, run.Preset)
				fmt.Fprintf(out, "  Started:        %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
				if !run.IsFinished() {
					fmt.Fprintln(out, "  Outcome:        not finished")
					return nil
				}
				fmt.Fprintf(out, "  Finished:       %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "  End reason:     %s\n", run.EndReason)
				fmt.Fprintf(out, "  Days elapsed:   %d\n\n", run.DaysElapsed)
				if run.Final != nil {
					fmt.Fprintln(out, FormatSnapshot(*run.Final))
				}

				if showDays {
					for _, day := range result.Days {
						fmt.Fprintln(out, FormatSnapshot(day))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showDays, "days", false, "Also print every daily snapshot")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

// withRunQueries opens the database and hands a mediator with the run queries to fn
func withRunQueries(fn func(med mediator.Mediator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	registry := setup.NewHandlerRegistry(
		persistence.NewGormRunRepository(db),
		persistence.NewGormSnapshotRepository(db, nil),
		nil,
	)
	med, err := registry.CreateConfiguredMediator()
	if err != nil {
		return fmt.Errorf("failed to configure mediator: %w", err)
	}
	return fn(med)
}
