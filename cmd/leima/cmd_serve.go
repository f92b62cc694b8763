package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yairfalse/leima/config"
	"github.com/yairfalse/leima/exporter"
	"github.com/yairfalse/leima/internal/daemon"
	"github.com/yairfalse/leima/telemetry"
)

var listenAddr string

// serveCmd runs the long-lived exporter
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the compliance exporter service",
	Long: `Run Leima as a long-lived service: scan the account matrix on a
configurable interval and expose the results as Prometheus metrics.

Endpoints:
- /metrics on the listen address for Prometheus to scrape
- /health and /-/ready for liveness and readiness probes
- POST /scan to trigger a scan outside the schedule`,
	Example: `  leima serve
  leima serve --config /etc/leima/config.yaml --listen :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config listen_addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	addr := cfg.ListenAddr
	if listenAddr != "" {
		addr = listenAddr
	}

	// Long-lived mode logs structured JSON with trace correlation instead
	// of the console writer the one-shot commands use.
	log.Logger = telemetry.NewLogger(cfg.OTEL.ServiceName).Logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One registry serves both the compliance collector and the OTEL
	// operational metrics.
	promRegistry := prometheus.NewRegistry()

	otelShutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:        cfg.OTEL.ServiceName,
		ServiceVersion:     version,
		OTELEndpoint:       cfg.OTEL.Endpoint,
		Insecure:           cfg.OTEL.Insecure,
		PrometheusRegistry: promRegistry,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	s, err := buildScanner(ctx, cfg)
	if err != nil {
		return err
	}

	registry := exporter.NewRegistry()
	if err := promRegistry.Register(exporter.NewCollector(registry)); err != nil {
		return fmt.Errorf("register collector: %w", err)
	}

	d := daemon.New(daemon.Config{
		Interval:     cfg.RefreshInterval(),
		RequiredTags: cfg.RequiredTags,
	}, s, registry)

	server := &http.Server{
		Addr:              addr,
		Handler:           d.Handler(promRegistry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("listen", addr).
		Dur("interval", cfg.RefreshInterval()).
		Int("accounts", len(cfg.Accounts)).
		Strs("required_tags", cfg.RequiredTags).
		Msg("leima starting")

	var g run.Group
	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))
	g.Add(func() error {
		return d.Run(ctx)
	}, func(error) {
		cancel()
	})
	g.Add(func() error {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown failed")
		}
	})

	err = g.Run()
	var sigErr run.SignalError
	if err != nil && !errors.As(err, &sigErr) {
		return err
	}
	log.Info().Msg("leima stopped")
	return nil
}
