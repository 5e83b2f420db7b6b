package repository

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"reservationsystem/internal/repository/migrations"
)

const migrationTable = "schema_migrations"

// Migrate applies the embedded schema migrations for driver at most once per file.
// It returns the names of the migrations applied by this call.
func Migrate(ctx context.Context, sqlDB *sql.DB, driver string) ([]string, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	var (
		migrationFS fs.FS
		root        string
		d           dialect
	)
	switch driver {
	case DriverPostgres:
		migrationFS, root, d = migrations.Postgres, "postgres", dialectPostgres
	case DriverSQLite:
		migrationFS, root, d = migrations.SQLite, "sqlite", dialectSQLite
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
	repo := &ReservationRepository{DB: sqlDB, dialect: d}

	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	createSQL := `CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
    name TEXT PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	if _, err := sqlDB.ExecContext(ctx, createSQL); err != nil {
		return nil, fmt.Errorf("ensure migration table: %w", err)
	}

	var applied []string
	for _, file := range files {
		var exists bool
		err := sqlDB.QueryRowContext(ctx,
			repo.rebind(`SELECT EXISTS (SELECT 1 FROM `+migrationTable+` WHERE name = ?)`), file,
		).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("check migration %s: %w", file, err)
		}
		if exists {
			continue
		}

		content, err := fs.ReadFile(migrationFS, path.Join(root, file))
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", file, err)
		}
		upSQL := extractUpMigration(string(content))
		if strings.TrimSpace(upSQL) == "" {
			continue
		}

		tx, err := sqlDB.BeginTx(ctx, nil)
		if err != nil {
			return applied, fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, upSQL); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, repo.rebind(`INSERT INTO `+migrationTable+` (name) VALUES (?)`), file); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return applied, fmt.Errorf("commit migration %s: %w", file, err)
		}
		applied = append(applied, file)
	}
	return applied, nil
}

// extractUpMigration returns the statements between "-- +migrate Up" and "-- +migrate Down".
// Files without markers are treated as up-only.
func extractUpMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	body := content[upIdx+len("-- +migrate Up"):]
	if downIdx := strings.Index(body, "-- +migrate Down"); downIdx != -1 {
		body = body[:downIdx]
	}
	return body
}
