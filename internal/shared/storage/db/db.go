package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx as the database/sql driver

	"letterhead-backend/internal/shared/telemetry"
)

// ErrNoDatabaseURL is returned when no connection string is configured.
var ErrNoDatabaseURL = errors.New("DATABASE_URL is empty")

// Profile selects pool defaults for the kind of process opening the pool.
type Profile string

const (
	ProfileServer  Profile = "server"
	ProfileLambda  Profile = "lambda"
	ProfileMigrate Profile = "migrate"
)

// Options controls pool sizing and the connectivity check.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

var profileDefaults = map[Profile]Options{
	// One request per Lambda instance at a time.
	ProfileLambda: {
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: 15 * time.Minute,
		ConnMaxIdleTime: 30 * time.Second,
		PingTimeout:     3 * time.Second,
	},
	ProfileServer: {
		MaxOpenConns:    8,
		MaxIdleConns:    4,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 2 * time.Minute,
		PingTimeout:     5 * time.Second,
	},
	ProfileMigrate: {
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  10 * time.Second,
	},
}

// DefaultOptions returns the pool defaults for p, falling back to the server
// profile for unknown values.
func DefaultOptions(p Profile) Options {
	if opts, ok := profileDefaults[p]; ok {
		return opts
	}
	return profileDefaults[ProfileServer]
}

// OptionsFor is DefaultOptions(p) with DB_* environment overrides applied.
func OptionsFor(p Profile) Options {
	return OptionsFromEnv(DefaultOptions(p))
}

// IsLambdaRuntime reports whether the process runs inside AWS Lambda.
func IsLambdaRuntime() bool {
	return strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != ""
}

// OptionsFromEnv overrides fields of base with DB_* variables that parse.
func OptionsFromEnv(base Options) Options {
	opts := base
	ints := []struct {
		key string
		dst *int
	}{
		{"DB_MAX_OPEN_CONNS", &opts.MaxOpenConns},
		{"DB_MAX_IDLE_CONNS", &opts.MaxIdleConns},
	}
	for _, o := range ints {
		if raw, ok := lookupEnv(o.key); ok {
			v, err := strconv.Atoi(raw)
			if err != nil {
				telemetry.Warn("db.env.invalid", map[string]any{"key": o.key, "err": err})
				continue
			}
			*o.dst = v
		}
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"DB_CONN_MAX_LIFETIME", &opts.ConnMaxLifetime},
		{"DB_CONN_MAX_IDLE_TIME", &opts.ConnMaxIdleTime},
		{"DB_PING_TIMEOUT", &opts.PingTimeout},
	}
	for _, o := range durations {
		if raw, ok := lookupEnv(o.key); ok {
			v, err := time.ParseDuration(raw)
			if err != nil {
				telemetry.Warn("db.env.invalid", map[string]any{"key": o.key, "err": err})
				continue
			}
			*o.dst = v
		}
	}
	return opts
}

func lookupEnv(key string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	return raw, raw != ""
}

var openDB = sql.Open

// Connect opens a pgx-backed pool and pings it before returning.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, ErrNoDatabaseURL
	}
	pool, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	configurePool(pool, opts)

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	stats := pool.Stats()
	telemetry.Info("db.pool.ready", map[string]any{
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
		"idle":     stats.Idle,
	})
	return pool, nil
}

func configurePool(pool *sql.DB, opts Options) {
	fallback := profileDefaults[ProfileServer]
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = fallback.MaxOpenConns
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = fallback.MaxIdleConns
	}
	if opts.MaxIdleConns > opts.MaxOpenConns {
		opts.MaxIdleConns = opts.MaxOpenConns
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = fallback.ConnMaxLifetime
	}
	pool.SetMaxOpenConns(opts.MaxOpenConns)
	pool.SetMaxIdleConns(opts.MaxIdleConns)
	pool.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		pool.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

var (
	singletonMu sync.Mutex
	singletonDB *sql.DB
)

// GetSingleton returns the process-wide pool, connecting on first use.
// Concurrent callers wait for the connecting one; a failed attempt is
// retried by the next caller.
func GetSingleton(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	if singletonDB != nil {
		return singletonDB, nil
	}
	pool, err := Connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, err
	}
	singletonDB = pool
	telemetry.Info("db.singleton.init", nil)
	return singletonDB, nil
}
