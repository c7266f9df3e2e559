package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/driftworks/driftd/internal/config"
	"github.com/driftworks/driftd/internal/events"
	"github.com/driftworks/driftd/internal/history"
	"github.com/driftworks/driftd/internal/httpapi"
	"github.com/driftworks/driftd/internal/logging"
	"github.com/driftworks/driftd/internal/metrics"
	"github.com/driftworks/driftd/internal/runner"
)

func buildServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the agent with its local HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger := logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)

	if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}
	store, err := history.New(ctx, cfg.History.Path, logger)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	eps, err := wireEndpoints(cfg)
	if err != nil {
		return err
	}
	defer eps.close()

	for _, info := range eps.registry.Modules() {
		if !info.Available {
			logger.Warn("module unavailable", "module", info.Name, "reason", info.Reason)
		}
	}

	bus := events.NewBus()
	m := metrics.New(prometheus.DefaultRegisterer)

	var notifier runner.Notifier
	if eps.notifier != nil {
		notifier = eps.notifier
	}
	run := runner.New(eps.registry, store, bus, notifier, m, logger)
	api := httpapi.New(eps.registry, run, store, bus, m, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("agent starting", "addr", httpServer.Addr, "version", version)
	if err := httpapi.RunServer(ctx, httpServer, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("agent terminated with error", "err", err)
		return err
	}
	logger.Info("agent stopped")
	return nil
}
