package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Store is a ReservationStore that owns a connection.
type Store interface {
	ReservationStore
	Ping(ctx context.Context) error
	Close() error
}

// Open connects the store selected by driver. dsn is a Postgres URL or a SQLite file path
// and is ignored for the memory driver. SQL stores are migrated before being returned.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryReservationRepository(), nil
	case DriverPostgres:
		sqlDB, err := openSQL(ctx, driver, dsn)
		if err != nil {
			return nil, err
		}
		return NewReservationRepository(sqlDB), nil
	case DriverSQLite:
		sqlDB, err := openSQL(ctx, driver, dsn)
		if err != nil {
			return nil, err
		}
		return NewSQLiteReservationRepository(sqlDB), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// OpenDB opens and pings a raw SQL connection for driver without migrating it.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: connection string is required", driver)
	}
	if driver == DriverSQLite {
		dsn = filepath.Clean(dsn) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	return sqlDB, nil
}

func openSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	sqlDB, err := OpenDB(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := Migrate(ctx, sqlDB, driver); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}
