// Package cronjob wires the timer-agnostic batch entry points to wall
// clock triggers. Cadence lives in config; the services themselves
// never see a cron expression.
package cronjob

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/expanders360/vendor-match-backend/config"
	"github.com/expanders360/vendor-match-backend/internal/scheduler/service"
)

type Scheduler struct {
	cron *cron.Cron
	svc  *service.SchedulerService
	cfg  config.SchedulerConfig
	log  *zap.Logger
}

func NewScheduler(svc *service.SchedulerService, cfg config.SchedulerConfig, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		svc:  svc,
		cfg:  cfg,
		log:  log,
	}
}

// Start registers the cron entries and starts the scheduler in the
// background. Jobs run without timeout; a batch is expected to finish
// before its next trigger, and the per-project advisory lock is the
// backstop when it does not.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.MatchRefreshSpec, func() {
		_, _, err := s.svc.RefreshActiveProjectMatches(context.Background())
		if err != nil {
			s.log.Error("scheduled match refresh failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.cfg.SlaCheckSpec, func() {
		if _, err := s.svc.CheckSlaViolations(context.Background()); err != nil {
			s.log.Error("scheduled sla check failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.cfg.HealthSweepSpec, func() {
		if err := s.svc.HealthSweep(context.Background()); err != nil {
			s.log.Error("scheduled health sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.log.Info("cron scheduler started",
		zap.String("match_refresh", s.cfg.MatchRefreshSpec),
		zap.String("sla_check", s.cfg.SlaCheckSpec),
		zap.String("health_sweep", s.cfg.HealthSweepSpec),
	)
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("cron scheduler stopped")
}
