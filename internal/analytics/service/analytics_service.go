package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/expanders360/vendor-match-backend/internal/matching/domain"
)

const (
	// Trailing window for the average-score rollup.
	analyticsWindowDays = 30
	topVendorLimit      = 3
)

// CountryStore lists the countries referenced by active projects.
type CountryStore interface {
	ListActiveProjectCountries(ctx context.Context) ([]domain.Country, error)
}

// VendorStore lists vendors with a footprint in a country.
type VendorStore interface {
	FindByCountry(ctx context.Context, countryID int64) ([]domain.Vendor, error)
}

// ScoreAverager is the ledger's aggregation surface.
type ScoreAverager interface {
	AverageScore(ctx context.Context, vendorID, countryID int64, windowDays int) (float64, error)
}

// TopVendor pairs a vendor with its average match score in a country.
type TopVendor struct {
	Vendor       domain.Vendor `json:"vendor"`
	AverageScore float64       `json:"average_score"`
}

// CountryAnalytics is the per-country rollup.
type CountryAnalytics struct {
	Country    domain.Country `json:"country"`
	TopVendors []TopVendor    `json:"top_vendors"`
}

// AnalyticsService computes read-only rollups over the match ledger.
type AnalyticsService struct {
	countries CountryStore
	vendors   VendorStore
	ledger    ScoreAverager
	log       *zap.Logger
}

func NewAnalyticsService(countries CountryStore, vendors VendorStore, ledger ScoreAverager, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		countries: countries,
		vendors:   vendors,
		ledger:    ledger,
		log:       log,
	}
}

// TopVendorsByCountry returns, for every country with an active
// project, the top vendors by 30-day average match score. Vendors with
// no qualifying matches (average 0) are omitted.
func (s *AnalyticsService) TopVendorsByCountry(ctx context.Context) ([]CountryAnalytics, error) {
	countries, err := s.countries.ListActiveProjectCountries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}

	out := make([]CountryAnalytics, 0, len(countries))
	for _, country := range countries {
		vendors, err := s.vendors.FindByCountry(ctx, country.ID)
		if err != nil {
			return nil, fmt.Errorf("list vendors for country %d: %w", country.ID, err)
		}

		scored := make([]TopVendor, 0, len(vendors))
		for _, vendor := range vendors {
			avg, err := s.ledger.AverageScore(ctx, vendor.ID, country.ID, analyticsWindowDays)
			if err != nil {
				return nil, fmt.Errorf("average score for vendor %d: %w", vendor.ID, err)
			}
			if avg > 0 {
				scored = append(scored, TopVendor{Vendor: vendor, AverageScore: avg})
			}
		}

		sort.Slice(scored, func(i, j int) bool {
			if scored[i].AverageScore != scored[j].AverageScore {
				return scored[i].AverageScore > scored[j].AverageScore
			}
			return scored[i].Vendor.ID < scored[j].Vendor.ID
		})
		if len(scored) > topVendorLimit {
			scored = scored[:topVendorLimit]
		}

		out = append(out, CountryAnalytics{Country: country, TopVendors: scored})
	}

	s.log.Debug("computed top vendors rollup", zap.Int("countries", len(out)))
	return out, nil
}
