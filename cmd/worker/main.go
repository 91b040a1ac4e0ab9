package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/expanders360/vendor-match-backend/config"
	"github.com/expanders360/vendor-match-backend/internal/bootstrap"
	"github.com/expanders360/vendor-match-backend/internal/logger"
	cronjob "github.com/expanders360/vendor-match-backend/internal/scheduler/cron"
)

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "vendor-match batch worker: scheduled and on-demand match jobs",
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "run the cron scheduler in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *bootstrap.App, cfg *config.Config, zlog *zap.Logger) error {
			sched := cronjob.NewScheduler(app.Scheduler, cfg.Scheduler, zlog)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop
			zlog.Info("shutting down")
			return nil
		})
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "rebuild matches for all active projects once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *bootstrap.App, _ *config.Config, zlog *zap.Logger) error {
			processed, failed, err := app.Scheduler.RefreshActiveProjectMatches(ctx)
			if err != nil {
				return err
			}
			zlog.Info("refresh finished", zap.Int("processed", processed), zap.Int("failed", failed))
			return nil
		})
	},
}

var slaCheckCmd = &cobra.Command{
	Use:   "sla-check",
	Short: "scan vendors for SLA violations once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *bootstrap.App, _ *config.Config, zlog *zap.Logger) error {
			violations, err := app.Scheduler.CheckSlaViolations(ctx)
			if err != nil {
				return err
			}
			zlog.Info("sla check finished", zap.Int("violations", violations))
			return nil
		})
	},
}

func withApp(fn func(context.Context, *bootstrap.App, *config.Config, *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zlog, err := logger.New(cfg.App.LogJSON, cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()
	app, err := bootstrap.BuildApp(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app, cfg, zlog)
}

func main() {
	rootCmd.AddCommand(scheduleCmd, refreshCmd, slaCheckCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
