package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"letterhead-backend/internal/bootstrap"
	"letterhead-backend/internal/shared/config"
	"letterhead-backend/internal/shared/server"
	"letterhead-backend/internal/shared/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "YAML config file (overrides CONFIG_FILE)")
	port := fs.StringP("port", "p", "", "listen port (overrides PORT)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		telemetry.Info("maxprocs", map[string]any{"detail": fmt.Sprintf(format, args...)})
	}))

	if *configFile != "" {
		_ = os.Setenv("CONFIG_FILE", *configFile)
	}
	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}

	if err := run(cfg); err != nil {
		telemetry.Error("api.exit", map[string]any{"err": err})
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	app, err := bootstrap.Build(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("api.listening", map[string]any{"addr": srv.Addr, "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		telemetry.Info("api.shutdown", map[string]any{"signal": sig.String()})
	case err := <-errCh:
		if err != nil {
			_ = app.Close(context.Background())
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(ctx)
	return errors.Join(shutdownErr, app.Close(ctx))
}
