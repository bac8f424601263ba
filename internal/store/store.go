package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by lookups for rows that do not exist.
var ErrNotFound = errors.New("not found")

// Store is the durable relational store for mentions, conversation turns
// and company status. It runs on postgres (pgx) or sqlite.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and provisions the schema. driver is
// "postgres" (dsn is a postgres URL) or "sqlite" (dsn is a file path).
func Open(driver, dsn string) (*Store, error) {
	var db *sql.DB
	var err error

	switch driver {
	case "postgres":
		db, err = sql.Open("pgx", dsn)
	case "sqlite":
		db, err = sql.Open("sqlite", dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to provision schema: %w", err)
	}

	logrus.Infof("Database initialized (%s)", driver)
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
