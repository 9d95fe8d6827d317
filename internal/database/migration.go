// internal/database/migration.go
package database

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"printer-service/internal/config"
)

// Migrator handles database migrations. It opens its own connection so
// closing the migrate instance leaves the application pool untouched.
type Migrator struct {
	logger *zap.Logger
	config *config.DatabaseConfig
}

// NewMigrator creates a new migrator instance
func NewMigrator(logger *zap.Logger, config *config.DatabaseConfig) *Migrator {
	return &Migrator{
		logger: logger,
		config: config,
	}
}

// Up runs all up migrations
func (m *Migrator) Up() error {
	migrator, err := m.createMigrator()
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	m.logger.Info("Database migrations completed successfully")
	return nil
}

// Down runs all down migrations
func (m *Migrator) Down() error {
	migrator, err := m.createMigrator()
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}

	m.logger.Info("Database migrations rolled back successfully")
	return nil
}

// Version returns the current migration version
func (m *Migrator) Version() (uint, bool, error) {
	migrator, err := m.createMigrator()
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}

	return version, dirty, nil
}

// createMigrator creates a migrate instance
func (m *Migrator) createMigrator() (*migrate.Migrate, error) {
	sourceURL, err := m.sourceURL()
	if err != nil {
		return nil, err
	}

	migrator, err := migrate.New(sourceURL, m.databaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return migrator, nil
}

// sourceURL resolves the configured migrations directory to an absolute file:// URL
func (m *Migrator) sourceURL() (string, error) {
	path := strings.TrimPrefix(m.config.MigrationsPath, "file://")
	if path == "" {
		path = "migrations"
	}

	migrationsPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get migrations path: %w", err)
	}

	return "file://" + filepath.ToSlash(migrationsPath), nil
}

// databaseURL builds the postgres URL golang-migrate expects
func (m *Migrator) databaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(m.config.User, m.config.Password),
		Host:   fmt.Sprintf("%s:%d", m.config.Host, m.config.Port),
		Path:   "/" + m.config.DBName,
	}

	q := u.Query()
	if m.config.SSLMode != "" {
		q.Set("sslmode", m.config.SSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
