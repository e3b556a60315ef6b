package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationDir = "migrations"

// ErrNilDatabase is returned by migration commands that need a pool.
var ErrNilDatabase = errors.New("database is nil")

var gooseOnce sync.Once
var gooseErr error

func setupGoose() error {
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrationFiles)
		goose.SetLogger(gooseLogger{})
		gooseErr = goose.SetDialect("postgres")
	})
	return gooseErr
}

// RunMigrations applies pending embedded migrations. A nil database is a no-op
// so callers without Postgres can share the startup path.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	if err := setupGoose(); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, migrationDir)
}

// RollbackMigration reverts the most recent migration.
func RollbackMigration(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return ErrNilDatabase
	}
	if err := setupGoose(); err != nil {
		return err
	}
	return goose.DownContext(ctx, database, migrationDir)
}

// MigrationVersion reports the schema version recorded by goose.
func MigrationVersion(ctx context.Context, database *sql.DB) (int64, error) {
	if database == nil {
		return 0, ErrNilDatabase
	}
	if err := setupGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, database)
}

// MigrationStatus logs applied and pending migrations.
func MigrationStatus(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return ErrNilDatabase
	}
	if err := setupGoose(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, database, migrationDir)
}
