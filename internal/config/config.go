package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	ServiceName    string

	// EncryptionSecret is the process-level secret the credential cipher
	// derives its key from. Required by both binaries.
	EncryptionSecret string

	// S3-compatible blob storage for backup artifacts.
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	// SweepInterval is how often the scheduler looks for due schedules.
	SweepInterval time.Duration
	// RunTimeout bounds a single backup execution end-to-end.
	RunTimeout time.Duration
	// SweepConcurrency caps how many due schedules run in parallel.
	SweepConcurrency int
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		HTTPListenAddr:   getEnv("HTTP_LISTEN_ADDR", ":8090"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ServiceName:      getEnv("SERVICE_NAME", ""),
		EncryptionSecret: getEnv("ENCRYPTION_SECRET", ""),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3Region:         getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
		S3Bucket:         getEnv("S3_BUCKET", "backups"),
		SweepConcurrency: getEnvInt("SWEEP_CONCURRENCY", 4),
	}

	var err error
	if cfg.SweepInterval, err = getEnvDuration("SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RunTimeout, err = getEnvDuration("RUN_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the fields required by the given role are set.
func (c *Config) Validate(role string) error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.EncryptionSecret == "" {
		return fmt.Errorf("ENCRYPTION_SECRET is required")
	}
	switch role {
	case "backup-api", "scheduler":
		if c.S3AccessKey == "" || c.S3SecretKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required for %s", role)
		}
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for %s", role)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
