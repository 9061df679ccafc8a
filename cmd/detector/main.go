package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/cognisight/internal/cache"
	"github.com/tensorplex-labs/cognisight/internal/config"
	"github.com/tensorplex-labs/cognisight/internal/detector"
	"github.com/tensorplex-labs/cognisight/internal/logprob"
	"github.com/tensorplex-labs/cognisight/internal/server"
	"github.com/tensorplex-labs/cognisight/internal/store"
	"github.com/tensorplex-labs/cognisight/internal/utils/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		logger.Init("prod", "")
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}

	logger.Init(cfg.Detector.Environment, cfg.Detector.LogLevel)
	log.Info().Msg("Starting detector...")

	provider, err := logprob.NewProvider(&cfg.Provider)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init log-prob provider")
	}

	provider, closeCache := cache.Wrap(ctx, provider, &cfg.Redis)
	defer closeCache()

	d, err := detector.NewFromConfig(provider, cfg.Detector)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init detector")
	}

	opts := []server.Option{
		server.WithDetector(d),
		server.WithTargetFPR(cfg.Detector.TargetFPR),
	}

	runs, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		log.Error().Err(err).Msg("failed to open run store, continuing without persistence")
	} else {
		defer runs.Close()
		opts = append(opts, server.WithStore(runs))
	}

	srv := server.NewServer(&cfg.Server, opts...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}

	log.Info().Msg("detector stopped")
}
