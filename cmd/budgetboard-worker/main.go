package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budgetboard/internal/amqp"
	"budgetboard/internal/cache"
	"budgetboard/internal/cli"
	blog "budgetboard/internal/log"
	"budgetboard/internal/services"
	gsheet "budgetboard/internal/sheets/google"
	"budgetboard/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(blog.ComponentWorker)

	logger.Info("Starting budgetboard-worker",
		"watch_interval", cfg.WatchInterval,
		"warning_threshold", cfg.WarningThreshold)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// Google Sheets report publishing is optional
	var changeWorker *worker.ChangeWorker
	caches := cache.NewManager()
	reports := services.NewReports(repo, caches, cfg.CacheSize, cfg.CacheTTL)
	watch := services.NewBudgetWatch(repo, cfg.WarningThreshold)

	if cfg.SheetsEnabled() {
		sheetsClient, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		changeWorker = worker.NewChangeWorker(watch, reports, sheetsClient)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
		changeWorker = worker.NewChangeWorker(watch, reports, nil)
	}

	sweeper := services.NewSweeper(watch, services.SweeperConfig{
		Interval:   cfg.WatchInterval,
		AfterSweep: changeWorker.AfterSweep,
	})

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient = amqp.New(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - relying on periodic sweeps only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		logger.Info("Shutting down worker...")
		if err := sweeper.Stop(shutdownCtx); err != nil {
			logger.Warn("Sweeper did not stop cleanly", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", "error", err)
			}
		}
		caches.Stop()
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close SQLite repository", "error", err)
		}
	})

	caches.StartCleanup(cfg.CacheTTL)
	if err := sweeper.Start(ctx); err != nil {
		logger.Error("Failed to start budget sweeper", "error", err)
		os.Exit(1)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeChanges(ctx, changeWorker.HandleChange)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
		logger.Info("Consuming change messages", "queue", cfg.AMQPQueue)
	}

	cli.WaitForShutdown(ctx, done)
}
