package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/expanders360/vendor-match-backend/internal/matching/domain"
)

// VendorRepository provides read access to vendors for the matching
// core. Eligibility is intersection-based: a vendor qualifies when it
// supports the project's country and offers at least one needed
// service, even if it cannot cover every need.
type VendorRepository struct {
	db *sql.DB
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(db *sql.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// GetVendor returns one vendor with its supported countries, or
// domain.ErrVendorNotFound.
func (r *VendorRepository) GetVendor(ctx context.Context, id int64) (*domain.Vendor, error) {
	const q = `
SELECT v.id, v.name, v.offered_services, v.rating, v.response_sla_hours,
       COALESCE(array_agg(vsc.country_id) FILTER (WHERE vsc.country_id IS NOT NULL), '{}')
FROM vendors v
LEFT JOIN vendor_supported_countries vsc ON vsc.vendor_id = v.id
WHERE v.id = $1
GROUP BY v.id;
`
	v, err := scanVendor(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVendorNotFound
		}
		return nil, fmt.Errorf("get vendor %d: %w", id, err)
	}
	return v, nil
}

// FindEligibleVendors returns vendors that support the country and
// whose offered services overlap the needed set (`&&` array overlap).
func (r *VendorRepository) FindEligibleVendors(ctx context.Context, countryID int64, neededServices []domain.ServiceType) ([]domain.Vendor, error) {
	needed := make([]string, 0, len(neededServices))
	for _, s := range neededServices {
		needed = append(needed, string(s))
	}

	const q = `
SELECT v.id, v.name, v.offered_services, v.rating, v.response_sla_hours,
       COALESCE(array_agg(vsc2.country_id) FILTER (WHERE vsc2.country_id IS NOT NULL), '{}')
FROM vendors v
JOIN vendor_supported_countries vsc ON vsc.vendor_id = v.id AND vsc.country_id = $1
LEFT JOIN vendor_supported_countries vsc2 ON vsc2.vendor_id = v.id
WHERE v.offered_services && $2
GROUP BY v.id
ORDER BY v.id ASC;
`
	rows, err := r.db.QueryContext(ctx, q, countryID, pq.Array(needed))
	if err != nil {
		return nil, fmt.Errorf("find eligible vendors for country %d: %w", countryID, err)
	}
	defer rows.Close()

	return collectVendors(rows)
}

// FindAll returns every vendor with supported countries attached. The
// SLA monitor walks this list.
func (r *VendorRepository) FindAll(ctx context.Context) ([]domain.Vendor, error) {
	const q = `
SELECT v.id, v.name, v.offered_services, v.rating, v.response_sla_hours,
       COALESCE(array_agg(vsc.country_id) FILTER (WHERE vsc.country_id IS NOT NULL), '{}')
FROM vendors v
LEFT JOIN vendor_supported_countries vsc ON vsc.vendor_id = v.id
GROUP BY v.id
ORDER BY v.id ASC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	return collectVendors(rows)
}

// FindByCountry returns vendors supporting the given country.
func (r *VendorRepository) FindByCountry(ctx context.Context, countryID int64) ([]domain.Vendor, error) {
	const q = `
SELECT v.id, v.name, v.offered_services, v.rating, v.response_sla_hours,
       COALESCE(array_agg(vsc2.country_id) FILTER (WHERE vsc2.country_id IS NOT NULL), '{}')
FROM vendors v
JOIN vendor_supported_countries vsc ON vsc.vendor_id = v.id AND vsc.country_id = $1
LEFT JOIN vendor_supported_countries vsc2 ON vsc2.vendor_id = v.id
GROUP BY v.id
ORDER BY v.id ASC;
`
	rows, err := r.db.QueryContext(ctx, q, countryID)
	if err != nil {
		return nil, fmt.Errorf("find vendors for country %d: %w", countryID, err)
	}
	defer rows.Close()

	return collectVendors(rows)
}

// CountVendors returns the total number of vendors. Used by the hourly
// health sweep.
func (r *VendorRepository) CountVendors(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vendors;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vendors: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVendor(row rowScanner) (*domain.Vendor, error) {
	var (
		v         domain.Vendor
		services  []string
		countries []int64
	)
	err := row.Scan(&v.ID, &v.Name, pq.Array(&services), &v.Rating, &v.ResponseSlaHours, pq.Array(&countries))
	if err != nil {
		return nil, err
	}
	v.OfferedServices = make([]domain.ServiceType, 0, len(services))
	for _, s := range services {
		v.OfferedServices = append(v.OfferedServices, domain.ServiceType(s))
	}
	v.SupportedCountries = countries
	return &v, nil
}

func collectVendors(rows *sql.Rows) ([]domain.Vendor, error) {
	out := make([]domain.Vendor, 0, 16)
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
