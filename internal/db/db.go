package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/snnyvrz/booklibrary/internal/config"
	"github.com/snnyvrz/booklibrary/internal/model"
)

func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLiteDSN()), nil
	}
	return nil, errors.Errorf("unsupported database driver %q", cfg.DBDriver)
}

// Open opens a connection pool and verifies it with a single ping.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(log, cfg.DBDebug),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := Ping(ctx, db); err != nil {
		_ = Close(db)
		return nil, err
	}

	return db, nil
}

// ConnectWithRetry keeps calling Open until the database answers, the attempt
// budget is spent or ctx is done.
func ConnectWithRetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var err error

	for attempt := 1; attempt <= cfg.DBMaxAttempts; attempt++ {
		var db *gorm.DB
		db, err = Open(ctx, cfg, log)
		if err == nil {
			return db, nil
		}

		log.Warn("db not ready",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.DBMaxAttempts),
			zap.Error(err),
		)

		if attempt == cfg.DBMaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "gave up connecting to db")
		case <-time.After(cfg.DBRetryDelay):
		}
	}

	return nil, errors.Wrapf(err, "could not connect to db after %d attempts", cfg.DBMaxAttempts)
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Book{}); err != nil {
		return errors.Wrap(err, "failed to migrate books table")
	}
	return nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying DB")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrap(err, "failed to ping database")
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying DB")
	}
	return sqlDB.Close()
}
