package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/expanders360/vendor-match-backend/config"
	"github.com/expanders360/vendor-match-backend/internal/bootstrap"
	"github.com/expanders360/vendor-match-backend/internal/logger"
	cronjob "github.com/expanders360/vendor-match-backend/internal/scheduler/cron"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.App.LogJSON, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()
	app, err := bootstrap.BuildApp(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("build app", zap.Error(err))
	}
	defer app.Close()

	sched := cronjob.NewScheduler(app.Scheduler, cfg.Scheduler, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "vendor-match-backend",
		Version:     cfg.App.Version,
		App:         app,
		Logger:      zlog,
	})

	zlog.Info("listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
