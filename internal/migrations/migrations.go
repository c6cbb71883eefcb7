// Package migrations embeds the record store schema for each supported
// dialect and applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/JaimeStill/qagate/pkg/database"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// New builds a migrator bound to db. The migrator does not own db; callers
// must not call Close on it when db is still in use, because the database
// drivers close the underlying handle.
func New(db *sql.DB, dialect database.Dialect) (*migrate.Migrate, error) {
	source, err := iofs.New(files, string(dialect))
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}

	var driver migratedb.Driver
	switch dialect {
	case database.Postgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case database.SQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("%w: %s", database.ErrUnknownDriver, dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(dialect), driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func Up(db *sql.DB, dialect database.Dialect) error {
	m, err := New(db, dialect)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
