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

	"github.com/Sternrassler/catalog-storefront/internal/config"
	"github.com/Sternrassler/catalog-storefront/internal/storefront"
	"github.com/Sternrassler/catalog-storefront/pkg/catalog"
	"github.com/Sternrassler/catalog-storefront/pkg/logging"
	"github.com/spf13/cobra"
)

// shutdownGrace applies when no shutdown timeout is configured.
const shutdownGrace = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts.cfg)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	return cmd
}

// runServe blocks until ctx is done, then shuts the server down gracefully.
func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewLogger("main")

	c, cleanup, err := newCatalogClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := storefront.NewServer(catalog.NewAPI(c), c)
	if err != nil {
		return fmt.Errorf("create storefront: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.HTTP.Addr).
			Str("api", c.BaseURL()).
			Bool("redis", cfg.Redis.Enabled()).
			Msg("Starting storefront")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.HTTP.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	grace := cfg.HTTP.ShutdownTimeout
	if grace <= 0 {
		grace = shutdownGrace
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	// Surface a listener error that raced with the shutdown signal.
	if err := <-errCh; err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTP.Addr, err)
	}
	logger.Info().Msg("Storefront stopped")
	return nil
}
