package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edvin/dbvault/internal/backup"
	"github.com/edvin/dbvault/internal/config"
	"github.com/edvin/dbvault/internal/crypto"
	"github.com/edvin/dbvault/internal/db"
	"github.com/edvin/dbvault/internal/logging"
	"github.com/edvin/dbvault/internal/metrics"
	"github.com/edvin/dbvault/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("scheduler"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	cipher, err := crypto.NewCipher(cfg.EncryptionSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize credential cipher")
	}

	store := storage.New(logger, storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
	})
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure artifact bucket")
	}

	locker := db.NewLocker(pool)
	executor := backup.NewExecutor(pool, store, cipher, locker, logger, cfg.RunTimeout)
	enforcer := backup.NewEnforcer(pool, store, logger)
	scheduler := backup.NewScheduler(pool, executor, enforcer, logger, cfg.SweepConcurrency)

	if cfg.HTTPListenAddr != "" {
		metricsSrv := metrics.NewServer(cfg.HTTPListenAddr)
		go func() {
			logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info().Dur("interval", cfg.SweepInterval).Msg("starting scheduler sweep loop")
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			result, err := scheduler.Sweep(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("sweep failed")
				continue
			}
			if result.Processed > 0 {
				logger.Info().Int("processed", result.Processed).Msg("sweep complete")
			}
		case <-quit:
			logger.Info().Msg("shutting down scheduler")
			cancel()
			return
		}
	}
}
