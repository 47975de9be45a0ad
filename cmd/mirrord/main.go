package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edvin/mirrord/internal/api"
	"github.com/edvin/mirrord/internal/config"
	"github.com/edvin/mirrord/internal/engine"
	"github.com/edvin/mirrord/internal/logging"
	"github.com/edvin/mirrord/internal/notify"
	"github.com/edvin/mirrord/internal/runner"
)

const notifyBuffer = 64

func main() {
	configPath := flag.String("config", getEnv("MIRRORD_CONFIG", "mirrord.yaml"), "Path to the configuration file")
	noDaemon := flag.Bool("no-daemon", false, "Do not arm the scheduler at startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info().
		Str("config", *configPath).
		Int("pairs", len(cfg.Pairs)).
		Msg("starting mirrord")

	r := runner.New(logger, cfg.ToolPath)
	notifier := notify.NewAsync(logger, notify.NewLogNotifier(logger), notifyBuffer)
	defer notifier.Close()

	eng := engine.New(logger, cfg, r, notifier, func() (*config.Config, error) {
		return config.Load(*configPath)
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      api.NewServer(logger, eng),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the watch endpoint streams indefinitely
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		eng.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting API server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	if !*noDaemon {
		eng.StartDaemon()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info().Msg("shutting down")
	case <-gctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	eng.Shutdown()
	cancel()

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("shutdown with error")
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
