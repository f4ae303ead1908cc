package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	statusgrpc "github.com/andrescamacho/harbor-go/internal/adapters/grpc"
)

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	var (
		address string
		wait    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query the status server of a running simulation",
		Long: `Query the gRPC health service of a running simulation.

The server itself reports SERVING while the process is up; the
harbor.v1.Simulation service reports SERVING only while the simulation is running.

Examples:
  harbor status
  harbor status --address localhost:50061 --wait 30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if address == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				address = cfg.Status.Address
			}

			client, err := statusgrpc.NewStatusClient(address)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second+wait)
			defer cancel()

			if wait > 0 {
				waitCtx, waitCancel := context.WithTimeout(ctx, wait)
				defer waitCancel()
				if err := client.WaitFor(waitCtx, statusgrpc.SimulationService, healthpb.HealthCheckResponse_SERVING); err != nil {
					return err
				}
			}

			for _, service := range []string{"", statusgrpc.SimulationService} {
				resp, err := client.Check(ctx, service)
				if err != nil {
					return err
				}
				rendered, err := statusgrpc.RenderJSON(resp)
				if err != nil {
					return err
				}
				name := service
				if name == "" {
					name = "server"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, rendered)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Status server address (default: status.address from config)")
	cmd.Flags().DurationVar(&wait, "wait", 0, "Wait up to this long for the simulation to be running")
	return cmd
}
