package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	versionCreateExpenses = 1
	versionAddExpenseDate = 2
)

// RunMigrations brings the schema at dbPath up to the latest version.
//
// Databases created before schema_migrations existed are baselined from
// their column set first, so an expenses table that already has a date
// column is never altered twice.
func RunMigrations(dbPath string) error {
	// Separate connection so the migrator can close it without touching the main pool
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if _, _, err := m.Version(); errors.Is(err, migrate.ErrNilVersion) {
		baseline, err := legacyVersion(migrateDB)
		if err != nil {
			return fmt.Errorf("inspect legacy schema: %w", err)
		}
		if baseline > 0 {
			if err := m.Force(baseline); err != nil {
				return fmt.Errorf("baseline legacy schema at version %d: %w", baseline, err)
			}
		}
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// legacyVersion maps an unversioned expenses table to the migration version
// its columns correspond to. Zero means there is nothing to baseline.
func legacyVersion(db *sql.DB) (int, error) {
	var tables int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='expenses'
	`).Scan(&tables)
	if err != nil {
		return 0, err
	}
	if tables == 0 {
		return 0, nil
	}

	var hasDate bool
	err = db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('expenses')
		WHERE name='date'
	`).Scan(&hasDate)
	if err != nil {
		return 0, err
	}

	if hasDate {
		return versionAddExpenseDate, nil
	}
	return versionCreateExpenses, nil
}
