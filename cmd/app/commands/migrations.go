package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/allisson/secrets/internal/app"
	"github.com/allisson/secrets/internal/config"
)

// RunMigrationsFromConfig loads configuration and applies all pending
// migrations for the configured database driver.
func RunMigrationsFromConfig() error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()

	return RunMigrations(logger, cfg.DBDriver, cfg.DBConnectionString)
}

// RunMigrations executes database migrations for the given driver and
// connection string. Applies all pending migrations from migrations/postgresql.
// Returns nil if no migrations to apply. Logs migration progress and success.
func RunMigrations(logger *slog.Logger, driver, connectionString string) error {
	logger.Info("running database migrations", slog.String("driver", driver))

	m, err := migrate.New("file://migrations/postgresql", connectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("migrations completed successfully")
	return nil
}
