// Package main implements the entry point for the marketplace API server,
// which authenticates users and gates every route behind a session check.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phrazzld/marketplace-api/internal/config"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/platform/postgres"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file (default: ./config.yaml when present)")
	migrateOnly := flag.Bool("migrate", false, "apply pending database migrations and exit")
	migrateStatus := flag.Bool("migrate-status", false, "print the migration status and exit")
	flag.Parse()

	if err := loadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env file: %v", err)
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, logCloser, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	defer func() { _ = logCloser.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger, *migrateOnly, *migrateStatus); err != nil {
		appLogger.Error("Server exited with error", "error", err)
		_ = logCloser.Close()
		stop()
		os.Exit(1)
	}
}

// loadDotEnv reads .env from the working directory when one exists.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return err
		}
	}
	return nil
}

// run connects to the database and either runs a migration command or
// serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrateOnly, migrateStatus bool) error {
	logger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"metrics_port", cfg.Server.MetricsPort,
		"environment", cfg.Server.Environment,
		"api_mode", cfg.Auth.APIMode,
		"rate_limit_enabled", cfg.RateLimit.Enabled())

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	switch {
	case migrateStatus:
		defer func() { _ = db.Close() }()
		return postgres.MigrationStatus(ctx, db, logger)
	case migrateOnly:
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, logger)
	}

	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.Run(ctx)
}
