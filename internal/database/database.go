package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open opens a connection to the SQLite database and applies pending migrations.
func Open(dbPath string) (*sql.DB, error) {
	// Open database connection
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA timezone = 'UTC'",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}

	if err := Migrate(context.Background(), db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	provider, err := newProvider(db)
	if err != nil {
		return err
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied migration version and whether migrations are pending.
func SchemaVersion(ctx context.Context, db *sql.DB) (int64, bool, error) {
	provider, err := newProvider(db)
	if err != nil {
		return 0, false, err
	}
	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	pending, err := provider.HasPending(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to check pending migrations: %w", err)
	}
	return current, pending, nil
}

func newProvider(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// HealthCheck performs a simple health check on the database
func HealthCheck(ctx context.Context, db *sql.DB) error {
	return db.PingContext(ctx)
}
