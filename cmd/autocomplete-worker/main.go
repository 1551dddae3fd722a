package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/slotwise/booking-engine/internal/booking"
	"github.com/slotwise/booking-engine/internal/config"
	"github.com/slotwise/booking-engine/internal/db"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().
		Timestamp().Str("service", "autocomplete-worker").Logger()
	logger.Info().Msg("starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}
	logger.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.ReconcilerInterval).
		Int("batch_size", cfg.ReconcilerBatchSize).
		Msg("configured")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	repo := booking.NewPgRepository(pgPool)
	reconciler := booking.NewReconciler(repo, cfg.ReconcilerBatchSize, logger)

	// Run once at startup, then on the configured cadence. Concurrent
	// replicas are safe: batches are claimed with row locks.
	runOnce(rootCtx, reconciler, logger)

	ticker := time.NewTicker(cfg.ReconcilerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping autocomplete worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, reconciler, logger)
		}
	}
}

func runOnce(ctx context.Context, reconciler *booking.Reconciler, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	start := time.Now()
	count, err := reconciler.RunSweep(runCtx)
	if err != nil {
		logger.Error().Err(err).Int("completed", count).Msg("sweep error")
		return
	}
	logger.Info().Int("completed", count).Dur("took", time.Since(start)).Msg("sweep complete")
}
