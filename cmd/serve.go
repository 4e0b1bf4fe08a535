package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackskhakis/gameyfin/internal/adapters/http/library"
	"github.com/jackskhakis/gameyfin/internal/adapters/http/web"
	app "github.com/jackskhakis/gameyfin/internal/app"
	"github.com/jackskhakis/gameyfin/internal/config"
	"github.com/jackskhakis/gameyfin/pkg/logger"
	"github.com/jackskhakis/gameyfin/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCmd(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Short:   "Run the web front-end",
		Args:    cobra.NoArgs,
		PreRunE: rt.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Root context with cancel on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, rt)
		},
	}
}

func serve(ctx context.Context, rt *cli) error {
	defer func() {
		if err := logger.Sync(); err != nil {
			rt.log.Error(ctx, "log sync failed", logger.Error(err))
		}
	}()

	svc, srv, err := buildServer(rt.cfg, rt.log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	errCh := make(chan error, 1)
	go func() {
		rt.log.Info(ctx, "starting HTTP server",
			logger.String("addr", srv.Addr), logger.String("backend", rt.cfg.BackendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	rt.log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	rt.log.Info(ctx, "server stopped")
	return nil
}

// buildServer sets up metrics and wires the library client, the service and the front-end
// handler from configuration.
func buildServer(cfg *config.Config, log logger.Logger) (*app.Service, *http.Server, error) {
	metrics.Init(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithConstLabels(cfg.MetricsLabels),
	)

	client, err := newClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithClient(client),
		app.WithScanSchedule(cfg.ScanSchedule),
		app.WithImageSchedule(cfg.ImageSchedule),
	)

	front, err := web.NewServer(svc, web.WithLogger(log.Named("web")))
	if err != nil {
		return nil, nil, fmt.Errorf("build front-end: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           front.Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.RequestTimeout() + readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return svc, srv, nil
}

func newClient(cfg *config.Config, log logger.Logger) (*library.Client, error) {
	client, err := library.New(
		library.WithBaseURL(cfg.BackendURL),
		library.WithAPIPath(cfg.APIPath),
		library.WithTimeout(cfg.RequestTimeout()),
		library.WithWireLog(cfg.WireLog),
		library.WithLogger(log.Named("library")),
	)
	if err != nil {
		return nil, fmt.Errorf("build library client: %w", err)
	}
	return client, nil
}
