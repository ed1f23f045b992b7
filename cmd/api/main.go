package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/agridiary/api"
	"github.com/angelmondragon/agridiary/api/responses"
	"github.com/angelmondragon/agridiary/api/routes"
	"github.com/angelmondragon/agridiary/api/views"
	"github.com/angelmondragon/agridiary/internal/auth"
	"github.com/angelmondragon/agridiary/internal/companies"
	"github.com/angelmondragon/agridiary/internal/crops"
	"github.com/angelmondragon/agridiary/internal/fields"
	"github.com/angelmondragon/agridiary/internal/notifications"
	"github.com/angelmondragon/agridiary/internal/pesticides"
	"github.com/angelmondragon/agridiary/internal/records"
	"github.com/angelmondragon/agridiary/internal/soildiagnostics"
	"github.com/angelmondragon/agridiary/internal/users"
	"github.com/angelmondragon/agridiary/internal/workhistories"
	"github.com/angelmondragon/agridiary/pkg/auth/session"
	"github.com/angelmondragon/agridiary/pkg/config"
	"github.com/angelmondragon/agridiary/pkg/db"
	"github.com/angelmondragon/agridiary/pkg/env"
	"github.com/angelmondragon/agridiary/pkg/instance"
	"github.com/angelmondragon/agridiary/pkg/logger"
	"github.com/angelmondragon/agridiary/pkg/metrics"
	"github.com/angelmondragon/agridiary/pkg/migrate"
	"github.com/angelmondragon/agridiary/pkg/redis"
	"github.com/angelmondragon/agridiary/pkg/security"
	"github.com/angelmondragon/agridiary/pkg/storage/s3"
	"github.com/angelmondragon/agridiary/pkg/workerpool"
)

const hookTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pool := workerpool.New(cfg.Storage.PoolSize, cfg.Storage.Timeout, metrics.NewStorageMetrics(registry))
	dispatcher := newDispatcher(cfg, logg, registry)
	defer dispatcher.Wait()

	sessionManager, err := session.NewManager(redisClient, cfg.Session)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:         users.NewRepository(dbClient.DB(), pool),
		Sessions:      sessionManager,
		Publisher:     dispatcher,
		Scorer:        security.NewScorer(cfg.Password.MinScore, cfg.Password.MinLength),
		Session:       cfg.Session,
		Password:      cfg.Password,
		TermsRequired: cfg.Legal.TermsURL != "",
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	services, err := newRecordServices(records.Deps{
		DB:        dbClient.DB(),
		Pool:      pool,
		Publisher: dispatcher,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create record services", err)
		os.Exit(1)
	}
	services.Auth = authService

	services.Pesticides, err = newPesticideService(cfg, logg, dbClient, pool, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to create pesticide service", err)
		os.Exit(1)
	}

	tmpl, err := views.New()
	if err != nil {
		logg.Error(context.Background(), "failed to parse templates", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(cfg, logg, routes.Infra{
		DB:        dbClient,
		Redis:     redisClient,
		Responder: responses.New(tmpl, logg),
		Cookies:   session.NewCookies(cfg.Session),
		Gatherer:  registry,
	}, services)

	cfg.App.Port = env.Get("PORT", cfg.App.Port)
	server := api.NewServer(cfg.App, handler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     server.Addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shutting down gracefully")
	}
}

func newDispatcher(cfg *config.Config, logg *logger.Logger, reg prometheus.Registerer) *notifications.Dispatcher {
	var hooks []notifications.Hook
	if hook := notifications.NewSlackHook(cfg.Slack.WebhookURL); hook != nil {
		hooks = append(hooks, hook)
	}
	if hook := notifications.NewEmailHook(cfg.Sendgrid, cfg.App); hook != nil {
		hooks = append(hooks, hook)
	}
	return notifications.NewDispatcher(logg, metrics.NewNotificationMetrics(reg), hookTimeout, hooks...)
}

func newRecordServices(deps records.Deps) (routes.Services, error) {
	var svc routes.Services
	var err error

	if svc.Crops, err = crops.NewService(deps, companies.NewDirectory(deps.DB, deps.Pool)); err != nil {
		return svc, err
	}
	if svc.Fields, err = fields.NewService(deps); err != nil {
		return svc, err
	}
	if svc.SoilDiagnostics, err = soildiagnostics.NewService(deps, svc.Fields); err != nil {
		return svc, err
	}
	if svc.WorkHistories, err = workhistories.NewService(deps, svc.Fields, svc.Crops); err != nil {
		return svc, err
	}
	return svc, nil
}

func newPesticideService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, pool *workerpool.Pool, reg prometheus.Registerer) (*pesticides.Service, error) {
	var archiver *pesticides.Archiver
	if cfg.Archive.Enabled() {
		store, err := s3.New(context.Background(), cfg.Archive)
		if err != nil {
			return nil, err
		}
		archiver = pesticides.NewArchiver(store, cfg.Archive)
	}

	repo := pesticides.NewRepository(dbClient.DB())
	ingestor, err := pesticides.NewIngestor(pesticides.IngestorParams{
		Rows:            repo,
		Archive:         archiver,
		Pool:            pool,
		Metrics:         metrics.NewIngestionMetrics(reg),
		Logger:          logg,
		BatchSize:       cfg.Pesticides.BatchSize,
		InsertTimeout:   cfg.Pesticides.InsertTimeout,
		MaxExtractBytes: cfg.Pesticides.MaxExtractBytes(),
	})
	if err != nil {
		return nil, err
	}
	return pesticides.NewService(repo, ingestor, pool, logg)
}
