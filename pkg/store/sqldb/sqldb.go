package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"
)

// Driver selects the SQL dialect and database/sql driver.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// ParseDriver maps a configuration value onto a Driver. Empty selects SQLite.
func ParseDriver(value string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unknown database driver %q", value)
	}
}

// ClaimDBStorage implements store.ClaimStorage on database/sql. Postgres is
// reached through the pgx stdlib driver, SQLite through modernc.org/sqlite.
type ClaimDBStorage struct {
	db     *sql.DB
	driver Driver

	ensured sync.Map
	group   singleflight.Group
}

// Open connects to the database. For SQLite dsn is a file path, optionally
// followed by query parameters; its parent directory is created when missing.
func Open(ctx context.Context, driver Driver, dsn string) (*ClaimDBStorage, error) {
	var (
		db  *sql.DB
		err error
	)

	switch driver {
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
	case DriverSQLite:
		path, query, hasQuery := strings.Cut(dsn, "?")
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		sep := "?"
		if hasQuery && query != "" {
			sep = "&"
		} else if hasQuery {
			sep = ""
		}
		db, err = sql.Open("sqlite", dsn+sep+"_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
		if err == nil {
			db.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewClaimDBStorageWithConnection(db, driver), nil
}

// NewClaimDBStorageWithConnection wraps an already opened database handle.
func NewClaimDBStorageWithConnection(db *sql.DB, driver Driver) *ClaimDBStorage {
	return &ClaimDBStorage{
		db:     db,
		driver: driver,
	}
}

// DB exposes the underlying handle.
func (s *ClaimDBStorage) DB() *sql.DB {
	return s.db
}

func (s *ClaimDBStorage) Driver() Driver {
	return s.driver
}

func (s *ClaimDBStorage) Close() error {
	return s.db.Close()
}

// logError records a failed store operation. Postgres errors carry their
// SQLSTATE code.
func logError(op string, err error, keyvals ...any) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		keyvals = append(keyvals, "code", pgErr.Code)
	}
	keyvals = append(keyvals, "err", err)
	logger.Error("[Store]["+op+"] Operation failed", keyvals...)
}
