package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/dlemaitre/sales-analytics-backend/internal/etl"
	sale "github.com/dlemaitre/sales-analytics-backend/internal/sales"
	"github.com/dlemaitre/sales-analytics-backend/pkg/config"
	"github.com/dlemaitre/sales-analytics-backend/pkg/db"
	"github.com/dlemaitre/sales-analytics-backend/pkg/logger"
	"github.com/dlemaitre/sales-analytics-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "etl"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "etl",
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

	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting etl run")

	summary, err := pipeline.Run(ctx)
	if err != nil {
		logg.Error(ctx, "etl run failed", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"extracted":  summary.Extracted,
		"skipped":    summary.Skipped,
		"deleted":    summary.Deleted,
		"loaded":     summary.Loaded,
		"high_value": summary.HighValueSales,
	})
	logg.Info(ctx, "etl run complete")
}
