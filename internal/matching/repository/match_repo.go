package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expanders360/vendor-match-backend/internal/matching/domain"
)

// advisoryLockClass namespaces the per-project rebuild locks so they
// cannot collide with other advisory-lock users of the same database.
const advisoryLockClass = 4201

// MatchRepository is the persistence ledger for matches. A unique index
// on (project_id, vendor_id) backs the upsert, so at most one match
// exists per pair.
type MatchRepository struct {
	pool *pgxpool.Pool
}

func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

// Upsert inserts or replaces the score for (projectID, vendorID). An
// existing row keeps its id and created_at; only the score changes.
func (r *MatchRepository) Upsert(ctx context.Context, projectID, vendorID int64, score float64) (*domain.Match, error) {
	const q = `
INSERT INTO matches (project_id, vendor_id, score)
VALUES ($1, $2, $3)
ON CONFLICT (project_id, vendor_id) DO UPDATE SET score = EXCLUDED.score
RETURNING id, project_id, vendor_id, score, created_at;
`
	var m domain.Match
	err := r.pool.QueryRow(ctx, q, projectID, vendorID, score).
		Scan(&m.ID, &m.ProjectID, &m.VendorID, &m.Score, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert match: %w", err)
	}
	return &m, nil
}

// DeleteByProject removes all matches for the project. Deleting zero
// rows is not an error.
func (r *MatchRepository) DeleteByProject(ctx context.Context, projectID int64) error {
	const q = `DELETE FROM matches WHERE project_id = $1;`
	if _, err := r.pool.Exec(ctx, q, projectID); err != nil {
		return fmt.Errorf("delete matches for project %d: %w", projectID, err)
	}
	return nil
}

// GetByID returns one match with its vendor context attached.
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*domain.Match, error) {
	const q = `
SELECT m.id, m.project_id, m.vendor_id, m.score, m.created_at,
       v.id, v.name, v.offered_services, v.rating, v.response_sla_hours
FROM matches m
JOIN vendors v ON v.id = m.vendor_id
WHERE m.id = $1;
`
	m, err := scanMatchWithVendor(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrMatchNotFound
		}
		return nil, fmt.Errorf("get match %d: %w", id, err)
	}
	return m, nil
}

// FindByProject returns the project's matches ordered by score
// descending, vendor context attached. Vendor id breaks score ties so
// the order is stable.
func (r *MatchRepository) FindByProject(ctx context.Context, projectID int64) ([]domain.Match, error) {
	const q = `
SELECT m.id, m.project_id, m.vendor_id, m.score, m.created_at,
       v.id, v.name, v.offered_services, v.rating, v.response_sla_hours
FROM matches m
JOIN vendors v ON v.id = m.vendor_id
WHERE m.project_id = $1
ORDER BY m.score DESC, m.vendor_id ASC;
`
	rows, err := r.pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("find matches for project %d: %w", projectID, err)
	}
	defer rows.Close()

	return collectMatchesWithVendor(rows)
}

// FindByVendor returns the vendor's matches ordered by score
// descending, project context attached.
func (r *MatchRepository) FindByVendor(ctx context.Context, vendorID int64) ([]domain.Match, error) {
	const q = `
SELECT m.id, m.project_id, m.vendor_id, m.score, m.created_at,
       p.id, p.client_id, p.country_id, p.needed_services, p.budget, p.status, p.created_at
FROM matches m
JOIN projects p ON p.id = m.project_id
WHERE m.vendor_id = $1
ORDER BY m.score DESC, m.project_id ASC;
`
	rows, err := r.pool.Query(ctx, q, vendorID)
	if err != nil {
		return nil, fmt.Errorf("find matches for vendor %d: %w", vendorID, err)
	}
	defer rows.Close()

	return collectMatchesWithProject(rows)
}

// FindRecentByVendor returns the vendor's matches created since the
// given time whose owning project is active. This is the SLA monitor's
// read path.
func (r *MatchRepository) FindRecentByVendor(ctx context.Context, vendorID int64, since time.Time) ([]domain.Match, error) {
	const q = `
SELECT m.id, m.project_id, m.vendor_id, m.score, m.created_at,
       p.id, p.client_id, p.country_id, p.needed_services, p.budget, p.status, p.created_at
FROM matches m
JOIN projects p ON p.id = m.project_id
WHERE m.vendor_id = $1 AND m.created_at > $2 AND p.status = 'active'
ORDER BY m.created_at ASC;
`
	rows, err := r.pool.Query(ctx, q, vendorID, since)
	if err != nil {
		return nil, fmt.Errorf("find recent matches for vendor %d: %w", vendorID, err)
	}
	defer rows.Close()

	return collectMatchesWithProject(rows)
}

// AverageScore averages the vendor's match scores for projects in the
// given country over the trailing window. Zero when no match qualifies.
func (r *MatchRepository) AverageScore(ctx context.Context, vendorID, countryID int64, windowDays int) (float64, error) {
	const q = `
SELECT COALESCE(AVG(m.score), 0)
FROM matches m
JOIN projects p ON p.id = m.project_id
WHERE m.vendor_id = $1
  AND p.country_id = $2
  AND m.created_at > now() - make_interval(days => $3);
`
	var avg float64
	err := r.pool.QueryRow(ctx, q, vendorID, countryID, windowDays).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average score for vendor %d in country %d: %w", vendorID, countryID, err)
	}
	return avg, nil
}

// AcquireRebuildLock takes a session advisory lock for the project and
// returns a release func. It serializes concurrent rebuilds of the same
// project; rebuilds of different projects proceed in parallel.
func (r *MatchRepository) AcquireRebuildLock(ctx context.Context, projectID int64) (release func(), err error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn for rebuild lock: %w", err)
	}

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1, $2);`, advisoryLockClass, projectID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire rebuild lock for project %d: %w", projectID, err)
	}

	release = func() {
		// Unlock on a background context: the rebuild's context may
		// already be done, but the lock must still be dropped.
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1, $2);`, advisoryLockClass, projectID)
		conn.Release()
	}
	return release, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatchWithVendor(row rowScanner) (*domain.Match, error) {
	var (
		m        domain.Match
		v        domain.Vendor
		services []string
	)
	err := row.Scan(
		&m.ID, &m.ProjectID, &m.VendorID, &m.Score, &m.CreatedAt,
		&v.ID, &v.Name, &services, &v.Rating, &v.ResponseSlaHours,
	)
	if err != nil {
		return nil, err
	}
	v.OfferedServices = toServiceTypes(services)
	m.Vendor = &v
	return &m, nil
}

func collectMatchesWithVendor(rows pgx.Rows) ([]domain.Match, error) {
	out := make([]domain.Match, 0, 16)
	for rows.Next() {
		m, err := scanMatchWithVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func collectMatchesWithProject(rows pgx.Rows) ([]domain.Match, error) {
	out := make([]domain.Match, 0, 16)
	for rows.Next() {
		var (
			m        domain.Match
			p        domain.Project
			services []string
		)
		err := rows.Scan(
			&m.ID, &m.ProjectID, &m.VendorID, &m.Score, &m.CreatedAt,
			&p.ID, &p.ClientID, &p.CountryID, &services, &p.Budget, &p.Status, &p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		p.NeededServices = toServiceTypes(services)
		m.Project = &p
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func toServiceTypes(ss []string) []domain.ServiceType {
	out := make([]domain.ServiceType, 0, len(ss))
	for _, s := range ss {
		out = append(out, domain.ServiceType(s))
	}
	return out
}
