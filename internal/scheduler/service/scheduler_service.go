package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	matchdomain "github.com/expanders360/vendor-match-backend/internal/matching/domain"
	"github.com/expanders360/vendor-match-backend/internal/metrics"
	"github.com/expanders360/vendor-match-backend/internal/notification"
	"github.com/expanders360/vendor-match-backend/internal/scheduler/domain"
)

// slaWindowDays bounds the SLA scan: only matches from the trailing
// week are considered. Older matches age out of the heuristic.
const slaWindowDays = 7

// ProjectStore is the project read surface the batch jobs need.
type ProjectStore interface {
	GetActiveProjects(ctx context.Context) ([]matchdomain.Project, error)
	CountProjects(ctx context.Context) (int, error)
}

// VendorStore is the vendor read surface the batch jobs need.
type VendorStore interface {
	FindAll(ctx context.Context) ([]matchdomain.Vendor, error)
	CountVendors(ctx context.Context) (int, error)
}

// Rebuilder rebuilds one project's matches.
type Rebuilder interface {
	RebuildMatches(ctx context.Context, projectID int64) (*matchdomain.RebuildResult, error)
}

// RecentMatchFinder reads a vendor's recent matches on active projects.
type RecentMatchFinder interface {
	FindRecentByVendor(ctx context.Context, vendorID int64, since time.Time) ([]matchdomain.Match, error)
}

// RunTracker records batch job runs for observability.
type RunTracker interface {
	Create(ctx context.Context, run *domain.JobRun) error
	Update(ctx context.Context, run *domain.JobRun) error
}

// SchedulerService holds the timer-agnostic entry points the cron
// driver fires. Both batch paths isolate per-item failures: one failing
// project or notification never aborts the rest of the batch.
type SchedulerService struct {
	projects ProjectStore
	vendors  VendorStore
	matching Rebuilder
	ledger   RecentMatchFinder
	notifier notification.Gateway
	runs     RunTracker
	log      *zap.Logger

	now func() time.Time
}

func NewSchedulerService(
	projects ProjectStore,
	vendors VendorStore,
	matching Rebuilder,
	ledger RecentMatchFinder,
	notifier notification.Gateway,
	runs RunTracker,
	log *zap.Logger,
) *SchedulerService {
	return &SchedulerService{
		projects: projects,
		vendors:  vendors,
		matching: matching,
		ledger:   ledger,
		notifier: notifier,
		runs:     runs,
		log:      log,
		now:      time.Now,
	}
}

// RefreshActiveProjectMatches rebuilds matches for every active
// project. Per-project errors are logged and counted, never propagated;
// the returned counts report the aggregate outcome. Only a failure to
// list the projects themselves is returned as an error.
func (s *SchedulerService) RefreshActiveProjectMatches(ctx context.Context) (processed, failed int, err error) {
	s.log.Info("starting daily match refresh for active projects")
	run := s.startRun(ctx, domain.JobMatchRefresh)

	projects, err := s.projects.GetActiveProjects(ctx)
	if err != nil {
		err = fmt.Errorf("list active projects: %w", err)
		s.finishRun(ctx, run, domain.RunStatusFailed, 0, 0, 0, err)
		metrics.JobRunsTotal.WithLabelValues(domain.JobMatchRefresh, "failed").Inc()
		return 0, 0, err
	}
	s.log.Info("found active projects to refresh", zap.Int("count", len(projects)))

	for _, project := range projects {
		if _, rerr := s.matching.RebuildMatches(ctx, project.ID); rerr != nil {
			failed++
			s.log.Error("failed to refresh matches for project",
				zap.Int64("project_id", project.ID),
				zap.Error(rerr),
			)
			continue
		}
		processed++
		s.log.Debug("refreshed matches for project", zap.Int64("project_id", project.ID))
	}

	s.finishRun(ctx, run, domain.RunStatusCompleted, processed, failed, 0, nil)
	metrics.JobRunsTotal.WithLabelValues(domain.JobMatchRefresh, "completed").Inc()
	s.log.Info("daily match refresh completed",
		zap.Int("processed", processed),
		zap.Int("failed", failed),
	)
	return processed, failed, nil
}

// CheckSlaViolations scans every vendor's recent matches on active
// projects and flags those older than the vendor's committed response
// hours. A match exactly at the SLA boundary is not a violation.
//
// There is no explicit "vendor responded" signal in the data model;
// age-of-match is the only available proxy, so an unresolved vendor is
// re-flagged on every run until its matches leave the 7-day window or
// are rebuilt away. Notification failures are logged and do not stop
// the remaining sends. Returns the number of violations found.
func (s *SchedulerService) CheckSlaViolations(ctx context.Context) (int, error) {
	s.log.Info("starting sla violation check")
	run := s.startRun(ctx, domain.JobSlaCheck)

	vendors, err := s.vendors.FindAll(ctx)
	if err != nil {
		err = fmt.Errorf("list vendors: %w", err)
		s.finishRun(ctx, run, domain.RunStatusFailed, 0, 0, 0, err)
		metrics.JobRunsTotal.WithLabelValues(domain.JobSlaCheck, "failed").Inc()
		return 0, err
	}

	now := s.now()
	since := now.AddDate(0, 0, -slaWindowDays)

	var violations []matchdomain.SlaViolation
	scanFailed := 0
	for _, vendor := range vendors {
		matches, merr := s.ledger.FindRecentByVendor(ctx, vendor.ID, since)
		if merr != nil {
			scanFailed++
			s.log.Error("failed to load recent matches for vendor",
				zap.Int64("vendor_id", vendor.ID),
				zap.Error(merr),
			)
			continue
		}

		for _, match := range matches {
			elapsedHours := now.Sub(match.CreatedAt).Hours()
			if elapsedHours > float64(vendor.ResponseSlaHours) {
				violations = append(violations, matchdomain.SlaViolation{
					Vendor:       vendor,
					Match:        match,
					ElapsedHours: int(math.Round(elapsedHours)),
				})
			}
		}
	}

	s.log.Info("sla violations found", zap.Int("count", len(violations)))
	metrics.SlaViolationsTotal.Add(float64(len(violations)))

	for _, v := range violations {
		if nerr := s.notifier.SendSlaViolation(ctx, v.Vendor); nerr != nil {
			metrics.NotificationFailuresTotal.WithLabelValues("sla_violation").Inc()
			s.log.Error("failed to send sla violation notification",
				zap.Int64("vendor_id", v.Vendor.ID),
				zap.String("vendor_name", v.Vendor.Name),
				zap.Error(nerr),
			)
			continue
		}
		s.log.Debug("sent sla violation notification",
			zap.String("vendor_name", v.Vendor.Name),
			zap.Int("elapsed_hours", v.ElapsedHours),
		)
	}

	s.finishRun(ctx, run, domain.RunStatusCompleted, len(vendors)-scanFailed, scanFailed, len(violations), nil)
	metrics.JobRunsTotal.WithLabelValues(domain.JobSlaCheck, "completed").Inc()
	s.log.Info("sla violation check completed", zap.Int("violations", len(violations)))
	return len(violations), nil
}

// HealthSweep logs store counts so a stuck database surfaces in the
// logs between batch runs.
func (s *SchedulerService) HealthSweep(ctx context.Context) error {
	run := s.startRun(ctx, domain.JobHealthSweep)

	projectCount, err := s.projects.CountProjects(ctx)
	if err != nil {
		s.log.Error("health sweep: project count failed", zap.Error(err))
		s.finishRun(ctx, run, domain.RunStatusFailed, 0, 0, 0, err)
		metrics.JobRunsTotal.WithLabelValues(domain.JobHealthSweep, "failed").Inc()
		return err
	}
	vendorCount, err := s.vendors.CountVendors(ctx)
	if err != nil {
		s.log.Error("health sweep: vendor count failed", zap.Error(err))
		s.finishRun(ctx, run, domain.RunStatusFailed, 0, 0, 0, err)
		metrics.JobRunsTotal.WithLabelValues(domain.JobHealthSweep, "failed").Inc()
		return err
	}

	s.log.Info("system health",
		zap.Int("projects", projectCount),
		zap.Int("vendors", vendorCount),
	)
	s.finishRun(ctx, run, domain.RunStatusCompleted, projectCount+vendorCount, 0, 0, nil)
	metrics.JobRunsTotal.WithLabelValues(domain.JobHealthSweep, "completed").Inc()
	return nil
}

func (s *SchedulerService) startRun(ctx context.Context, job string) *domain.JobRun {
	if s.runs == nil {
		return nil
	}
	run := &domain.JobRun{Job: job, Status: domain.RunStatusRunning, StartedAt: s.now()}
	if err := s.runs.Create(ctx, run); err != nil {
		s.log.Warn("failed to record job run start", zap.String("job", job), zap.Error(err))
		return nil
	}
	return run
}

func (s *SchedulerService) finishRun(ctx context.Context, run *domain.JobRun, status string, processed, failed, violations int, runErr error) {
	if s.runs == nil || run == nil {
		return
	}
	finished := s.now()
	run.Status = status
	run.FinishedAt = &finished
	run.Processed = processed
	run.Failed = failed
	run.Violations = violations
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := s.runs.Update(ctx, run); err != nil {
		s.log.Warn("failed to record job run finish", zap.String("job", run.Job), zap.Error(err))
	}
}
