package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/core/events"
	"github.com/frahmantamala/hira-inspection/internal/inspection"
	inspectionpostgres "github.com/frahmantamala/hira-inspection/internal/inspection/postgres"
	"github.com/frahmantamala/hira-inspection/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run background jobs outside the HTTP server",
}

var sweepWorkerCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark inspections stuck in analyzing as failed",
	Long: `Sweep inspections whose analysis never finished. Runs once unless
--interval is given, in which case it keeps sweeping until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSweepWorker(cmd.Context())
	},
}

var (
	sweepInterval   time.Duration
	sweepStaleAfter time.Duration
)

func runSweepWorker(parent context.Context) error {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.Init(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)

	database, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}
	defer database.Close()

	staleAfter, err := sweepAge(cfg, sweepStaleAfter)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(log)
	bus.Subscribe(events.EventTypeInspectionsSwept, func(ctx context.Context, e events.Event) error {
		log.Info("sweep completed", "event_id", e.EventID(), "payload", e.Payload())
		return nil
	})

	svc := inspection.NewService(
		inspectionpostgres.NewInspectionRepository(database.Gorm),
		nil, nil, bus,
		inspection.Options{StaleAfter: staleAfter},
		log,
	)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("sweep worker started", "stale_after", staleAfter, "interval", sweepInterval)
	inspection.RunSweeper(ctx, svc, sweepInterval)
	log.Info("sweep worker stopped")
	return nil
}

func init() {
	sweepWorkerCmd.Flags().DurationVar(&sweepInterval, "interval", 0, "sweep repeatedly at this interval (0 sweeps once)")
	sweepWorkerCmd.Flags().DurationVar(&sweepStaleAfter, "stale-after", 0, "override analysis.stale_after")

	workerCmd.AddCommand(sweepWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}

// sweepAge picks the stale threshold. An in-flight analysis may run for up to
// ai.timeout, so a shorter threshold would fail healthy inspections.
func sweepAge(cfg *internal.Config, override time.Duration) (time.Duration, error) {
	if override <= 0 {
		return cfg.Analysis.StaleAfter, nil
	}
	if override <= cfg.AI.Timeout {
		return 0, fmt.Errorf("--stale-after %s must exceed ai.timeout %s", override, cfg.AI.Timeout)
	}
	return override, nil
}
