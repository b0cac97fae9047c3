package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/SteadfastAsArt/paper-ladder/internal/aggregator"
	"github.com/SteadfastAsArt/paper-ladder/internal/observability"
	httpserver "github.com/SteadfastAsArt/paper-ladder/internal/server/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP search API",
	Long: `Serve starts the HTTP REST API. Searches, single-paper lookups, and
the source listing are exposed under /api/v1; liveness at /healthz and
Prometheus metrics at the configured metrics path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		return runServer(a)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(a *app) error {
	logger := a.logger.With().Str("component", "serve").Logger()
	logger.Info().Msg("paper-ladder server starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpCfg := httpserver.Config{
		Address:         a.cfg.Server.HTTPAddress(),
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
		DefaultLimit:    a.cfg.Search.DefaultLimit,
		MaxLimit:        a.cfg.Search.MaxLimit,
		SourceTimeout:   a.cfg.Search.SourceTimeout,
		AutoPaginate:    a.cfg.Search.AutoPaginate,
	}

	agg := a.agg
	if a.cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		metrics := observability.NewMetrics(reg)
		agg = aggregator.New(a.registry, a.logger, metrics)
		httpCfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		httpCfg.MetricsPath = a.cfg.Metrics.Path
	}

	srv := httpserver.NewServer(httpCfg, agg, a.registry, a.logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("address", httpCfg.Address).
		Strs("enabled_sources", a.registry.EnabledNames()).
		Msg("paper-ladder is ready")

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}

	logger.Info().Msg("paper-ladder shutdown complete")
	return nil
}
