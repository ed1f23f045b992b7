package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/agridiary/internal/cron"
	"github.com/angelmondragon/agridiary/internal/pesticides"
	"github.com/angelmondragon/agridiary/internal/users"
	"github.com/angelmondragon/agridiary/pkg/config"
	"github.com/angelmondragon/agridiary/pkg/db"
	"github.com/angelmondragon/agridiary/pkg/instance"
	"github.com/angelmondragon/agridiary/pkg/logger"
	"github.com/angelmondragon/agridiary/pkg/metrics"
	"github.com/angelmondragon/agridiary/pkg/migrate"
	"github.com/angelmondragon/agridiary/pkg/redis"
	"github.com/angelmondragon/agridiary/pkg/storage/s3"
	"github.com/angelmondragon/agridiary/pkg/workerpool"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pool := workerpool.New(cfg.Storage.PoolSize, cfg.Storage.Timeout, metrics.NewStorageMetrics(prometheus.DefaultRegisterer))
	registry := cron.NewRegistry()

	resetJob, err := cron.NewResetTokenExpiryJob(logg, users.NewRepository(dbClient.DB(), pool))
	if err != nil {
		logg.Error(context.Background(), "failed to create reset token job", err)
		os.Exit(1)
	}
	registry.Register(resetJob)

	if cfg.Archive.Enabled() {
		store, err := s3.New(context.Background(), cfg.Archive)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap archive storage", err)
			os.Exit(1)
		}
		registry.Register(cron.NewArchiveRetentionJob(logg, pesticides.NewArchiver(store, cfg.Archive)))
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cron.LockName), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"jobs":     len(registry.Jobs()),
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
