package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"medicine_reminder/internal/app"
	"medicine_reminder/internal/infra/config"
	"medicine_reminder/internal/infra/database"
	"medicine_reminder/internal/infra/logger"
	"medicine_reminder/internal/infra/web"

	"github.com/spf13/cobra"
)

func newServerCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the acknowledgement sync server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), cfg)
		},
	}
}

func runServer(ctx context.Context, cfg *config.AppConfig) error {
	log := logger.For("server")
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("could not migrate database: %w", err)
	}
	log.Info("Database migrations applied")

	db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}
	defer db.Close()

	receiver := app.NewSyncReceiverService(database.NewPostgresAckRepository(db), logger.For("sync-receiver"))
	if cfg.SyncToken == "" {
		log.Warn("SYNC_TOKEN is empty, the sync endpoint accepts unauthenticated requests")
	}

	err = serve(ctx, &http.Server{
		Addr:              cfg.ServerListenAddr,
		Handler:           web.NewServerRouter(receiver, cfg.SyncToken, logger.For("http")),
		ReadHeaderTimeout: 10 * time.Second,
	})
	log.Info("Sync server shut down")
	return err
}
