package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edvin/dbvault/internal/api"
	"github.com/edvin/dbvault/internal/backup"
	"github.com/edvin/dbvault/internal/config"
	"github.com/edvin/dbvault/internal/core"
	"github.com/edvin/dbvault/internal/crypto"
	"github.com/edvin/dbvault/internal/db"
	"github.com/edvin/dbvault/internal/logging"
	"github.com/edvin/dbvault/internal/metrics"
	"github.com/edvin/dbvault/internal/storage"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "create-token" {
		createToken(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("backup-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

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

	services := core.NewServices(pool, cipher, store, logger)
	srv := api.NewServer(logger, pool, services, cipher, executor, scheduler)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting backup API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

func createToken(args []string) {
	fs := flag.NewFlagSet("create-token", flag.ExitOnError)
	userID := fs.String("user", "", "User ID the token belongs to (required)")
	name := fs.String("name", "", "Name for the token (required)")
	fs.Parse(args)

	if *userID == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "error: --user and --name are required")
		fmt.Fprintln(os.Stderr, "usage: backup-api create-token --user <user-id> --name <name>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	svc := core.NewTokenService(pool)
	token, raw, err := svc.Create(ctx, *userID, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API token created successfully.\n\n")
	fmt.Printf("  Name:   %s\n", token.Name)
	fmt.Printf("  ID:     %s\n", token.ID)
	fmt.Printf("  Token:  %s\n\n", raw)
	fmt.Printf("Save this token, it will not be shown again.\n")
}
