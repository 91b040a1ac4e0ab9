package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/expanders360/vendor-match-backend/internal/matching/domain"
)

// ProjectRepository provides read access to projects for the matching
// core. Project CRUD lives in the management API, not here.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// GetProject returns one project or domain.ErrProjectNotFound.
func (r *ProjectRepository) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	const q = `
SELECT id, client_id, country_id, needed_services, budget, status, created_at
FROM projects
WHERE id = $1;
`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return p, nil
}

// GetActiveProjects returns all projects with status active, oldest
// first so a batch refresh touches long-lived projects before new ones.
func (r *ProjectRepository) GetActiveProjects(ctx context.Context) ([]domain.Project, error) {
	const q = `
SELECT id, client_id, country_id, needed_services, budget, status, created_at
FROM projects
WHERE status = 'active'
ORDER BY created_at ASC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list active projects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountProjects returns the total number of projects. Used by the
// hourly health sweep.
func (r *ProjectRepository) CountProjects(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		p        domain.Project
		services []string
	)
	err := row.Scan(&p.ID, &p.ClientID, &p.CountryID, pq.Array(&services), &p.Budget, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.NeededServices = make([]domain.ServiceType, 0, len(services))
	for _, s := range services {
		p.NeededServices = append(p.NeededServices, domain.ServiceType(s))
	}
	return &p, nil
}
