package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/project-ledger/internal/core/events"
	"github.com/frahmantamala/project-ledger/internal/editpermission"
	editpermissionPostgres "github.com/frahmantamala/project-ledger/internal/editpermission/postgres"
	"github.com/frahmantamala/project-ledger/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start long running background workers, separately from the HTTP server.`,
}

var sweepWorkerCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the edit permission expiry sweeper on its schedule",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSweeper(false); err != nil {
			fmt.Fprintf(os.Stderr, "sweeper: %v\n", err)
			os.Exit(1)
		}
	},
}

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Transaction edit permission maintenance",
}

var permissionsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Deactivate expired edit permissions once and exit",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSweeper(true); err != nil {
			fmt.Fprintf(os.Stderr, "sweep: %v\n", err)
			os.Exit(1)
		}
	},
}

var sweepSchedule string

func runSweeper(once bool) error {
	config, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, gormDB, err := initDB(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ledgerCfg := config.Ledger.WithDefaults()
	bus := events.NewEventBus(lg)
	defer bus.Wait()

	svc := editpermission.NewService(
		editpermissionPostgres.NewEditPermissionRepository(gormDB), bus, lg,
		editpermission.WithWindow(ledgerCfg.EditWindow),
	)

	schedule := ledgerCfg.SweepSchedule
	if sweepSchedule != "" {
		schedule = sweepSchedule
	}
	sweeper, err := editpermission.NewSweeper(svc, schedule, lg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		count, err := sweeper.RunOnce(ctx)
		if err != nil {
			return err
		}
		lg.Info("edit permission sweep finished", "expired", count)
		return nil
	}

	lg.Info("sweeper worker is running. Press Ctrl+C to stop.")
	return sweeper.Run(ctx)
}

func init() {
	sweepWorkerCmd.Flags().StringVar(&sweepSchedule, "schedule", "", "cron schedule (overrides ledger.sweep_schedule)")

	workerCmd.AddCommand(sweepWorkerCmd)
	permissionsCmd.AddCommand(permissionsSweepCmd)

	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(permissionsCmd)
}
