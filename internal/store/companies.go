package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CompanyStatus is the flat status label for one tracked company.
type CompanyStatus struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetCompanyStatus overwrites the status label for a company, creating
// the row on first use. Last write wins.
func (s *Store) SetCompanyStatus(ctx context.Context, name, status string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (name, status, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		name, status, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set status for %s: %w", name, err)
	}
	return nil
}

// GetCompanyStatus returns the status for one company, ErrNotFound when
// the company has never been tracked.
func (s *Store) GetCompanyStatus(ctx context.Context, name string) (CompanyStatus, error) {
	var cs CompanyStatus
	err := s.db.QueryRowContext(ctx,
		`SELECT name, status, updated_at FROM companies WHERE name = $1`,
		name,
	).Scan(&cs.Name, &cs.Status, &cs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CompanyStatus{}, ErrNotFound
	}
	if err != nil {
		return CompanyStatus{}, fmt.Errorf("status query failed: %w", err)
	}
	return cs, nil
}

// ListCompanies returns every tracked company with its current status.
func (s *Store) ListCompanies(ctx context.Context) ([]CompanyStatus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, status, updated_at FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("companies query failed: %w", err)
	}
	defer rows.Close()

	var companies []CompanyStatus
	for rows.Next() {
		var cs CompanyStatus
		if err := rows.Scan(&cs.Name, &cs.Status, &cs.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, cs)
	}
	return companies, rows.Err()
}
