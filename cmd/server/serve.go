package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snnyvrz/booklibrary/internal/db"
	"github.com/snnyvrz/booklibrary/internal/server"
)

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			startTime := time.Now()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *configFile)
			if err != nil {
				return err
			}
			defer a.close()

			if err := db.Migrate(a.db); err != nil {
				return err
			}

			a.log.Info("starting book library",
				zap.String("gin_mode", a.cfg.GinMode),
				zap.String("db_driver", a.cfg.DBDriver),
				zap.Bool("strict_validation", a.cfg.StrictValidation),
			)

			router := server.NewRouter(server.Deps{
				Config:    a.cfg,
				DB:        a.db,
				Books:     a.books(),
				Log:       a.log,
				StartTime: startTime,
				Version:   appVersion,
			})

			return server.Run(ctx, a.cfg, router, a.log)
		},
	}
}

func newMigrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the books table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd.Context(), *configFile)
			if err != nil {
				return err
			}
			defer a.close()

			if err := db.Migrate(a.db); err != nil {
				return err
			}

			a.log.Info("migration complete")
			return nil
		},
	}
}
