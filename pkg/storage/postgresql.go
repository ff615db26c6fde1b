package storage

import (
	"fmt"
	"log/slog"

	"github.com/evently-app/evently/pkg/config"
	slogGorm "github.com/orandin/slog-gorm"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewDatabase applies pending migrations and connects gorm to the database. Gorm logs through
// logger; traceSQL logs every statement instead of only errors and slow queries.
func NewDatabase(logger *slog.Logger, c config.Postgresql, traceSQL bool) (*gorm.DB, error) {
	if err := Migrate(logger, c); err != nil {
		return nil, err
	}

	options := []slogGorm.Option{slogGorm.WithHandler(logger.Handler())}
	if traceSQL {
		options = append(options, slogGorm.WithTraceAll())
	}

	databaseConfig := gorm.Config{
		Logger:         slogGorm.New(options...),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(c.DSN()), &databaseConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		return nil, fmt.Errorf("failed to register tracing plugin: %v", err)
	}

	return db, nil
}
