package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	statusgrpc "github.com/andrescamacho/harbor-go/internal/adapters/grpc"
	"github.com/andrescamacho/harbor-go/internal/adapters/metrics"
	"github.com/andrescamacho/harbor-go/internal/adapters/persistence"
	"github.com/andrescamacho/harbor-go/internal/application/common"
	"github.com/andrescamacho/harbor-go/internal/application/setup"
	"github.com/andrescamacho/harbor-go/internal/application/simulation"
	"github.com/andrescamacho/harbor-go/internal/application/simulation/commands"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
	domainSimulation "github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/infrastructure/config"
	"github.com/andrescamacho/harbor-go/internal/infrastructure/database"
	"github.com/andrescamacho/harbor-go/internal/infrastructure/pidfile"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var (
		days     int
		seed     int64
		ships    int
		noRecord bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation to completion",
		Long: `Run a simulation with the configured (or preset) parameters and print the final report.

The run ends after the day budget, when no goods are left anywhere in the network,
or on SIGINT/SIGTERM. Every run is recorded in the database unless --no-record is given.

Examples:
  harbor run
  harbor run --preset crowded --days 20
  harbor run --seed 42 --no-record`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if days > 0 {
				cfg.Simulation.Days = days
			}
			if seed != 0 {
				cfg.Simulation.Seed = seed
			}
			if ships > 0 {
				cfg.Simulation.Ships = ships
			}

			return runSimulation(cmd.Context(), cfg, !noRecord)
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Override the number of simulated days")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 draws one from the clock)")
	cmd.Flags().IntVar(&ships, "ships", 0, "Override the number of ships")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "Do not record the run in the database")

	return cmd
}

func runSimulation(parent context.Context, cfg *config.Config, record bool) error {
	if parent == nil {
		parent = context.Background()
	}

	// Acquire PID file lock to prevent two runs sharing a database and ports
	pf := pidfile.New(cfg.Daemon.PIDFile)
	if err := pf.Acquire(); err != nil {
		return fmt.Errorf("failed to acquire PID file lock: %w", err)
	}
	defer func() {
		if err := pf.Release(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to release PID file: %v\n", err)
		}
	}()

	logger, closeLog, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()
	defer logger.Flush()

	// Repositories stay untyped nil when the run is not recorded
	var (
		runRepo      domainSimulation.RunRepository
		snapshotRepo domainSimulation.SnapshotRepository
	)
	if record {
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close(db)

		runRepo = persistence.NewGormRunRepository(db)
		snapshotRepo = persistence.NewGormSnapshotRepository(db, nil)
		if cfg.Logging.Persist {
			logger.WithSink(persistence.NewGormEventLogRepository(db, nil))
		}
	}

	var observers []simulation.PhaseObserver

	if cfg.Metrics.Enabled {
		server, err := startMetrics(cfg.Metrics)
		if err != nil {
			return err
		}
		defer shutdownWithTimeout(cfg, server.Shutdown)
		logger.Log("INFO", "Metrics server started", map[string]interface{}{
			"addr": server.Addr(),
			"path": cfg.Metrics.Path,
		})
	}

	if cfg.Status.Enabled {
		status := statusgrpc.NewStatusServer()
		if err := status.Listen(cfg.Status.Address); err != nil {
			return fmt.Errorf("failed to start status server: %w", err)
		}
		defer status.Stop()
		observers = append(observers, status)
		logger.Log("INFO", "Status server started", map[string]interface{}{
			"addr": cfg.Status.Address,
		})
	}

	registry := setup.NewHandlerRegistry(runRepo, snapshotRepo, nil, observers...)
	med, err := registry.CreateConfiguredMediator()
	if err != nil {
		return fmt.Errorf("failed to configure mediator: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = common.WithLogger(ctx, logger)

	response, err := med.Send(ctx, &commands.RunSimulationCommand{
		Params: cfg.Simulation.ToParams(),
		Preset: cfg.Preset,
	})
	if err != nil {
		var setupErr *shared.SetupError
		if errors.As(err, &setupErr) {
			return fmt.Errorf("simulation setup failed: %w", err)
		}
		return fmt.Errorf("simulation failed: %w", err)
	}

	result := response.(*commands.RunSimulationResponse)
	fmt.Println(FormatReport(result.Report))
	return nil
}

func startMetrics(cfg config.MetricsConfig) (*metrics.Server, error) {
	metrics.InitRegistry()
	collector := metrics.NewSimulationMetricsCollector()
	if err := collector.Register(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	metrics.SetGlobalCollector(collector)

	server, err := metrics.StartServer(cfg.Host, cfg.Port, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}
	return server, nil
}

func shutdownWithTimeout(cfg *config.Config, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Daemon.ShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: shutdown failed: %v\n", err)
	}
}
