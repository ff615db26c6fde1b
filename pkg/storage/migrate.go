package storage

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/evently-app/evently/pkg/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // registers the postgres:// scheme
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NewMigrator returns a migrator using the SQL migrations embedded in the binary. Callers must
// Close it.
func NewMigrator(logger *slog.Logger, c config.Postgresql) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, c.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migrations: %v", err)
	}
	m.Log = &migrateLogger{logger: logger}

	return m, nil
}

// Migrate applies all pending migrations.
func Migrate(logger *slog.Logger, c config.Postgresql) error {
	m, err := NewMigrator(logger, c)
	if err != nil {
		return err
	}
	defer func() {
		sourceErr, databaseErr := m.Close()
		if err := errors.Join(sourceErr, databaseErr); err != nil {
			logger.Error("Failed to close migrator", "error", err)
		}
	}()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %v", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %v", err)
	}
	logger.Info("Database migrated", "version", version, "dirty", dirty)

	return nil
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool { return false }
