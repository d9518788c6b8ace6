package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dlemaitre/sales-analytics-backend/internal/cron"
	"github.com/dlemaitre/sales-analytics-backend/internal/etl"
	sale "github.com/dlemaitre/sales-analytics-backend/internal/sales"
	"github.com/dlemaitre/sales-analytics-backend/pkg/config"
	"github.com/dlemaitre/sales-analytics-backend/pkg/db"
	"github.com/dlemaitre/sales-analytics-backend/pkg/logger"
	"github.com/dlemaitre/sales-analytics-backend/pkg/metrics"
	"github.com/dlemaitre/sales-analytics-backend/pkg/migrate"
	"github.com/dlemaitre/sales-analytics-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "etl-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "etl-worker"

	logg = logger.New(logger.Options{
		ServiceName: "etl-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if cfg.ETL.SourceDSN == "" {
		logg.Error(context.Background(), "missing source dsn", nil)
		os.Exit(1)
	}

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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	source, err := sql.Open("postgres", cfg.ETL.SourceDSN)
	if err != nil {
		logg.Error(context.Background(), "failed to open source database", err)
		os.Exit(1)
	}
	defer source.Close()

	pipeline, err := etl.New(etl.Params{
		Logger:    logg,
		Source:    source,
		DB:        dbClient,
		Repo:      sale.NewRepository(dbClient.DB()),
		IDFloor:   cfg.ETL.APIIDFloor,
		BatchSize: cfg.ETL.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create etl pipeline", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	etlJob, err := cron.NewETLJob(cron.ETLJobParams{
		Logger:   logg,
		Pipeline: pipeline,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create etl job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(etlJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting etl worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "etl worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "etl worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("etl-worker:%s", env)
}
