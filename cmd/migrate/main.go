package main

// Apply, roll back or inspect database migrations:
//   go run ./cmd/migrate            # up
//   go run ./cmd/migrate -c config.yaml status

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"letterhead-backend/internal/shared/config"
	"letterhead-backend/internal/shared/storage/db"
	"letterhead-backend/internal/shared/telemetry"
)

func main() {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "YAML config file (overrides CONFIG_FILE)")
	timeout := fs.Duration("timeout", 2*time.Minute, "deadline for the whole command")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [flags] [up|down|status|version]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	command := "up"
	if fs.NArg() > 0 {
		command = fs.Arg(0)
	}

	if *configFile != "" {
		_ = os.Setenv("CONFIG_FILE", *configFile)
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFor(db.ProfileMigrate))
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"err": err})
		os.Exit(1)
	}
	err = run(ctx, command, sqlDB)
	sqlDB.Close()
	if err != nil {
		telemetry.Error("migrate.failed", map[string]any{"command": command, "err": err})
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, sqlDB *sql.DB) error {
	switch command {
	case "up":
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return err
		}
	case "down":
		if err := db.RollbackMigration(ctx, sqlDB); err != nil {
			return err
		}
	case "status":
		return db.MigrationStatus(ctx, sqlDB)
	case "version":
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	version, err := db.MigrationVersion(ctx, sqlDB)
	if err != nil {
		return err
	}
	telemetry.Info("migrate.done", map[string]any{"command": command, "version": version})
	return nil
}
