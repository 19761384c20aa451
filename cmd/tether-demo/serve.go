package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tether-dev/tether/internal/config"
	"github.com/tether-dev/tether/pkg/live"
	"github.com/tether-dev/tether/pkg/state"
	"github.com/tether-dev/tether/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var (
		addr       string
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the demo server",
		Long: `Start the demo server.

Serves the demo page at /, the live WebSocket at /live and,
when enabled, Prometheus metrics at /metrics.

Examples:
  tether-demo serve
  tether-demo serve --addr=0.0.0.0:8080
  tether-demo serve --config=./tether.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, configFile)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to tether.json")

	return cmd
}

func runServe(addr, configFile string) error {
	printBanner()

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	listen := cfg.Address()
	if addr != "" {
		listen = addr
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	// A dedicated registry so /metrics exposes exactly this process's
	// series.
	reg := prometheus.NewRegistry()
	storeMetrics := telemetry.NewStoreMetrics(
		telemetry.WithRegistry(reg),
		telemetry.WithNamespace(cfg.Metrics.Namespace),
	)

	// One process-wide board shared by every session.
	board := state.New(state.State{
		"count":    0,
		"activity": []string{},
	}, state.WithObserver(storeMetrics))

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	srv := live.NewServer(&live.Config{
		Logger:         logger,
		ReadTimeout:    cfg.ReadTimeout(),
		WriteTimeout:   cfg.WriteTimeout(),
		MaxEventQueue:  cfg.Server.MaxEventQueue,
		MetricsHandler: metricsHandler,
	})
	srv.Provide(boardState, board)
	srv.RegisterView("counter", func() live.View { return &counterView{} })
	srv.RegisterView("activity", func() live.View { return &activityView{} })
	srv.Use(
		telemetry.Prometheus(
			telemetry.WithRegistry(reg),
			telemetry.WithNamespace(cfg.Metrics.Namespace),
		),
		telemetry.OpenTelemetry(),
	)

	r := chi.NewRouter()
	r.Get("/", servePage)
	srv.Mount(r)

	httpServer := &http.Server{
		Addr:    listen,
		Handler: r,
	}

	success("Listening on http://%s", listen)
	info("live socket  ws://%s/live", listen)
	if cfg.Metrics.Enabled {
		info("metrics      http://%s/metrics", listen)
	}
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("live shutdown failed", "error", err)
	}
	return httpServer.Shutdown(shutdownCtx)
}

// loadConfig resolves configuration: an explicit path, the nearest
// tether.json, or defaults when none exists.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		success("Loaded %s", cfg.Path())
		return cfg, nil
	}

	cfg, err := config.LoadFromWorkingDir()
	switch {
	case errors.Is(err, config.ErrNotFound):
		warn("No %s found, using defaults", config.ConfigFileName)
		return config.New(), nil
	case err != nil:
		return nil, err
	}

	success("Loaded %s", cfg.Path())
	return cfg, nil
}

// newLogger builds the slog logger for the configured level and format.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
