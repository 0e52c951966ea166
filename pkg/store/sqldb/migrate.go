package sqldb

import (
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/factgraph/pkg/logger"
	"github.com/OFFIS-RIT/factgraph/pkg/store/sqldb/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate applies the embedded migrations. The tables it creates are the
// same ones the lazy write paths create, so running it is optional.
func (s *ClaimDBStorage) Migrate() error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	var drv database.Driver
	switch s.driver {
	case DriverPostgres:
		drv, err = migratepgx.WithInstance(s.db, &migratepgx.Config{})
	case DriverSQLite:
		drv, err = migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("unsupported driver %q", s.driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(s.driver), drv)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("[Store][Migrate] Schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, table := range []string{tableClaims, tableSources, tableAnswers} {
		s.ensured.Store(table, struct{}{})
	}
	logger.Info("[Store][Migrate] Migrations applied")
	return nil
}
