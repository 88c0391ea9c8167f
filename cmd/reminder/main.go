package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medicine_reminder/internal/infra/config"
	"medicine_reminder/internal/infra/logger"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg config.AppConfig

	root := &cobra.Command{
		Use:           "reminder",
		Short:         "Medicine reminder agent and acknowledgement sync server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load configuration: %w", err)
			}
			cfg = *loaded
			logger.Init(&cfg)
			return nil
		},
	}

	root.AddCommand(newAgentCmd(&cfg))
	root.AddCommand(newServerCmd(&cfg))
	root.AddCommand(newSyncCmd(&cfg))
	root.AddCommand(newMatchCmd(&cfg))
	root.AddCommand(newHistoryCmd(&cfg))
	return root
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	log := logger.For("http")
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
