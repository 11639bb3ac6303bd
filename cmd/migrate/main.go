// Command migrate applies the subscription schema with goose.
//
//	migrate [-profiles local,ci] [up|down|status|reset]
//
// Concurrent runs (for example several replicas starting at once) are
// serialized through a distributed lock: Redis when REDIS_URL is set,
// otherwise a PostgreSQL advisory lock.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/pkg/distlock"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/repository/postgres"
	"github.com/redis/go-redis/v9"
)

const lockKey = "newsletter:migrations"

func main() {
	if err := run(); err != nil {
		logger.Error("migration failed", "error", err.Error())
		_ = logger.Default().Sync()
		os.Exit(1)
	}
}

func run() error {
	configDir := flag.String("config", "config", "directory holding base.yaml and profile files")
	profiles := flag.String("profiles", "", "comma-separated configuration profiles, applied in order")
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}
	cmd, err := postgres.ParseMigrationCommand(command)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFromEnv(*configDir, config.ParseProfiles(*profiles))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Log.Environment,
		RedactPII:   !cfg.Log.DisableRedaction,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Database.DSN(), postgres.PoolOptions{
		MaxOpenConns:   2,
		MaxIdleConns:   1,
		ConnectTimeout: cfg.Database.Timeout(),
	})
	if err != nil {
		return err
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	lock := distlock.New(rdb, db, lockKey, 10*time.Minute)
	start := time.Now()
	err = distlock.WithLock(ctx, lock, func(ctx context.Context) error {
		return postgres.Migrate(ctx, db, cmd, log)
	})
	if errors.Is(err, distlock.ErrNotAcquired) {
		log.Warn("another migration is in progress, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	log.Info("migrations complete", "command", string(cmd), "duration_ms", time.Since(start).Milliseconds())
	return nil
}
