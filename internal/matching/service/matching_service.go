package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/expanders360/vendor-match-backend/internal/matching/domain"
	"github.com/expanders360/vendor-match-backend/internal/matching/scoring"
	"github.com/expanders360/vendor-match-backend/internal/metrics"
	"github.com/expanders360/vendor-match-backend/internal/notification"
)

// ProjectStore is the read contract the orchestrator needs from the
// project module.
type ProjectStore interface {
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
}

// VendorStore resolves the vendors eligible for a project: country
// supported and at least one needed service offered.
type VendorStore interface {
	FindEligibleVendors(ctx context.Context, countryID int64, neededServices []domain.ServiceType) ([]domain.Vendor, error)
}

// MatchLedger is the persistence contract for match records.
type MatchLedger interface {
	Upsert(ctx context.Context, projectID, vendorID int64, score float64) (*domain.Match, error)
	DeleteByProject(ctx context.Context, projectID int64) error
	GetByID(ctx context.Context, id int64) (*domain.Match, error)
	FindByProject(ctx context.Context, projectID int64) ([]domain.Match, error)
	FindByVendor(ctx context.Context, vendorID int64) ([]domain.Match, error)
	AcquireRebuildLock(ctx context.Context, projectID int64) (release func(), err error)
}

// MatchingService rebuilds the match set for a project: wholesale
// replace, not incremental diff. Prior matches are deleted and one
// fresh match is created per currently-eligible vendor, so match ids
// and created_at reset on every rebuild even when scores are unchanged.
type MatchingService struct {
	projects ProjectStore
	vendors  VendorStore
	ledger   MatchLedger
	notifier notification.Gateway
	log      *zap.Logger
}

func NewMatchingService(
	projects ProjectStore,
	vendors VendorStore,
	ledger MatchLedger,
	notifier notification.Gateway,
	log *zap.Logger,
) *MatchingService {
	return &MatchingService{
		projects: projects,
		vendors:  vendors,
		ledger:   ledger,
		notifier: notifier,
		log:      log,
	}
}

// RebuildMatches discards and recomputes all matches for one project.
//
// The project must exist (domain.ErrProjectNotFound otherwise) and a
// per-project advisory lock serializes overlapping rebuilds. Ledger
// errors abort this project's rebuild and propagate; notification
// errors are logged and never abort the loop. The returned matches are
// sorted by score descending.
func (s *MatchingService) RebuildMatches(ctx context.Context, projectID int64) (*domain.RebuildResult, error) {
	start := time.Now()

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		if err == domain.ErrProjectNotFound {
			metrics.RebuildsTotal.WithLabelValues("not_found").Inc()
			return nil, err
		}
		metrics.RebuildsTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("resolve project %d: %w", projectID, err)
	}

	release, err := s.ledger.AcquireRebuildLock(ctx, projectID)
	if err != nil {
		metrics.RebuildsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	defer release()

	vendors, err := s.vendors.FindEligibleVendors(ctx, project.CountryID, project.NeededServices)
	if err != nil {
		metrics.RebuildsTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("find eligible vendors: %w", err)
	}

	if err := s.ledger.DeleteByProject(ctx, projectID); err != nil {
		metrics.RebuildsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	matches := make([]domain.Match, 0, len(vendors))
	for _, vendor := range vendors {
		score := scoring.Score(*project, vendor)

		created, err := s.ledger.Upsert(ctx, projectID, vendor.ID, score)
		if err != nil {
			metrics.RebuildsTotal.WithLabelValues("failure").Inc()
			return nil, err
		}
		metrics.MatchesCreatedTotal.Inc()

		match := created
		if full, err := s.ledger.GetByID(ctx, created.ID); err == nil {
			match = full
		} else {
			s.log.Warn("failed to load match context, notifying without it",
				zap.Int64("match_id", created.ID), zap.Error(err))
		}

		if err := s.notifier.SendMatchFound(ctx, match); err != nil {
			metrics.NotificationFailuresTotal.WithLabelValues("match_found").Inc()
			s.log.Error("failed to send match notification",
				zap.Int64("project_id", projectID),
				zap.Int64("vendor_id", vendor.ID),
				zap.Error(err),
			)
		}

		matches = append(matches, *match)
	}

	sortMatchesByScore(matches)

	metrics.RebuildsTotal.WithLabelValues("success").Inc()
	metrics.RebuildDuration.Observe(time.Since(start).Seconds())
	s.log.Info("rebuilt matches",
		zap.Int64("project_id", projectID),
		zap.Int("total_matches", len(matches)),
	)

	return &domain.RebuildResult{
		Message:      fmt.Sprintf("Matches rebuilt for project %d", projectID),
		Matches:      matches,
		TotalMatches: len(matches),
	}, nil
}

// GetProjectMatches returns a project's matches, score-descending. The
// project must exist.
func (s *MatchingService) GetProjectMatches(ctx context.Context, projectID int64) ([]domain.Match, error) {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.ledger.FindByProject(ctx, projectID)
}

// GetVendorMatches returns a vendor's matches, score-descending.
func (s *MatchingService) GetVendorMatches(ctx context.Context, vendorID int64) ([]domain.Match, error) {
	return s.ledger.FindByVendor(ctx, vendorID)
}

// sortMatchesByScore orders by score descending, vendor id ascending on
// ties, so rebuilds with identical inputs return identical orderings
// regardless of vendor iteration order.
func sortMatchesByScore(matches []domain.Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].VendorID < matches[j].VendorID
	})
}
