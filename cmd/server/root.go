package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/snnyvrz/booklibrary/internal/config"
	"github.com/snnyvrz/booklibrary/internal/db"
	"github.com/snnyvrz/booklibrary/internal/logging"
	"github.com/snnyvrz/booklibrary/internal/repository"
)

type app struct {
	cfg  *config.Config
	log  *zap.Logger
	sync func() error
	db   *gorm.DB
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "booklibrary",
		Short:         "Book library service",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", os.Getenv("CONFIG_FILE"), "path to a YAML configuration file")

	root.AddCommand(
		newServeCmd(&configFile),
		newMigrateCmd(&configFile),
		newBooksCmd(&configFile),
	)

	return root
}

// setup loads configuration, builds the logger and connects to the database.
// The caller must call close when done.
func setup(ctx context.Context, configFile string) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	log, sync := logging.New(cfg.LogLevel, cfg.IsProduction(), appVersion)

	gdb, err := db.ConnectWithRetry(ctx, cfg, log)
	if err != nil {
		_ = sync()
		return nil, err
	}

	return &app{cfg: cfg, log: log, sync: sync, db: gdb}, nil
}

func (a *app) books() repository.BookRepository {
	return repository.NewGormBookRepository(a.db,
		repository.WithStrictValidation(a.cfg.StrictValidation),
	)
}

func (a *app) close() {
	if err := db.Close(a.db); err != nil {
		a.log.Warn("failed to close database", zap.Error(err))
	}
	_ = a.sync()
}
