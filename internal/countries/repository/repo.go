package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/expanders360/vendor-match-backend/internal/matching/domain"
)

// CountryRepository resolves country identifiers referenced by projects
// and vendors.
type CountryRepository struct {
	db *sql.DB
}

func NewCountryRepository(db *sql.DB) *CountryRepository {
	return &CountryRepository{db: db}
}

// GetName returns the country's display name or
// domain.ErrCountryNotFound.
func (r *CountryRepository) GetName(ctx context.Context, id int64) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM countries WHERE id = $1;`, id).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrCountryNotFound
		}
		return "", fmt.Errorf("get country %d: %w", id, err)
	}
	return name, nil
}

// ListActiveProjectCountries returns the distinct countries referenced
// by active projects, for the analytics rollup.
func (r *CountryRepository) ListActiveProjectCountries(ctx context.Context) ([]domain.Country, error) {
	const q = `
SELECT DISTINCT c.id, c.name
FROM countries c
JOIN projects p ON p.country_id = c.id
WHERE p.status = 'active'
ORDER BY c.name ASC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list active project countries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Country, 0, 8)
	for rows.Next() {
		var c domain.Country
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
