package db

import (
	"fmt"
	"time"

	"propertyetl/config"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the gorm dialector for the configured driver.
func Dialector(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(cfg.URL()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.Name), nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}

// Open connects with gorm, routing gorm's own log output through zap.
func Open(dialector gorm.Dialector, log *zap.SugaredLogger) (*gorm.DB, error) {
	newLogger := logger.New(
		zap.NewStdLog(log.Desugar()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true, // Don't include params in the SQL log
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	return db, nil
}

// Connect opens the configured database and wraps it in a SQLStore.
func Connect(cfg config.Database, batchSize int, log *zap.SugaredLogger) (*SQLStore, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == config.DriverPostgres {
		log.Infow("connecting to database", "url", cfg.Redacted())
	} else {
		log.Infow("connecting to database", "driver", cfg.Driver, "path", cfg.Name)
	}
	db, err := Open(dialector, log)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db, batchSize, log), nil
}
