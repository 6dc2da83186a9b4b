package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/msubham193/iotdashboard/internal/config"
	"github.com/msubham193/iotdashboard/internal/feed"
	"github.com/msubham193/iotdashboard/internal/server"
	"github.com/msubham193/iotdashboard/internal/snapshot"
	"github.com/msubham193/iotdashboard/internal/store"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/dashboard.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load config")
	}

	log.Info().
		Str("telemetry_url", cfg.Telemetry.BaseURL).
		Str("feed_transport", cfg.Feed.Transport).
		Int("http_port", cfg.Server.HTTPPort).
		Msg("Configuration loaded")

	// The store is the session's single state container; both producers and
	// the HTTP server share this one handle.
	st := store.New()

	// Live feed source
	var source feed.Source
	switch cfg.Feed.Transport {
	case config.TransportKafka:
		source = feed.NewKafkaSource(cfg.Feed.Kafka, st)
	default:
		source = feed.NewSSESubscriber(cfg.Telemetry.BaseURL, st)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the feed before the snapshot so nothing delivered during the
	// fetch is lost; the store collapses the overlap by event ID.
	if err := source.Start(ctx); err != nil {
		log.Warn().Err(err).Msg("Live feed unavailable, continuing with snapshot only")
	} else {
		log.Info().Str("transport", cfg.Feed.Transport).Msg("Live feed started")
	}

	// One-time snapshot. A failure is a banner on the dashboard, not a
	// crash; the live feed keeps populating the store.
	go func() {
		snapCtx, snapCancel := context.WithTimeout(ctx, cfg.Telemetry.SnapshotTimeout)
		defer snapCancel()
		loader := snapshot.NewLoader(cfg.Telemetry.BaseURL, cfg.Telemetry.SnapshotTimeout)
		loader.LoadInto(snapCtx, st)
	}()

	// Dashboard HTTP server
	srv := server.New(cfg, st, source)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: srv.Router(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.HTTPPort).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to serve HTTP")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	httpServer.Shutdown(context.Background())
	cancel()
	if err := source.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close live feed")
	}
	srv.Close()
	log.Info().Msg("Shutdown complete")
}
