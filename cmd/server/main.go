// Package main implements the entry point for the Taskboard API server,
// which manages users, projects and the tasks inside them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/platform/tracing"
)

func main() {
	configPath := flag.String("config", "", "Path to a config.yaml file (defaults to ./config.yaml if present)")
	migrateCmd := flag.String("migrate", "", "Run a migration command and exit: up, down, status, version, reset")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *migrateCmd); err != nil {
		log.Printf("taskboard-api: %v", err)
		stop()
		os.Exit(1)
	}
}

// run loads configuration, connects to the database and either executes a
// migration command or serves HTTP until ctx is cancelled.
func run(ctx context.Context, configPath, migrateCmd string) error {
	if migrateCmd != "" && !isMigrateCommand(migrateCmd) {
		return fmt.Errorf("unknown migration command %q", migrateCmd)
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("cache_enabled", cfg.Cache.Enabled()),
		slog.Bool("tracing_enabled", cfg.Tracing.Endpoint != ""))

	db, err := setupAppDatabase(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return postgres.Migrate(db, migrateCmd, l)
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			l.Error("failed to flush traces", slog.Any("error", err))
		}
	}()

	app, err := newApplication(ctx, cfg, l, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

func isMigrateCommand(cmd string) bool {
	switch cmd {
	case postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus,
		postgres.MigrateVersion, postgres.MigrateReset:
		return true
	}
	return false
}
