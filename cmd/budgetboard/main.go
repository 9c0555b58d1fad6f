package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetboard/internal/amqp"
	"budgetboard/internal/cache"
	"budgetboard/internal/cli"
	apphttp "budgetboard/internal/http"
	blog "budgetboard/internal/log"
	"budgetboard/internal/services"
	"budgetboard/internal/sheets"
	gsheet "budgetboard/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(blog.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// Change messages are optional; without a broker the worker relies on sweeps.
	var publisher services.ChangePublisher
	if cfg.AMQPEnabled() {
		publisher = amqp.New(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	caches := cache.NewManager()
	reports := services.NewReports(repo, caches, cfg.CacheSize, cfg.CacheTTL)
	board := services.NewBoard(repo, publisher, reports)

	var publisherSheets sheets.ReportPublisher
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		publisherSheets = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Board:              board,
		Reports:            reports,
		Sheets:             publisherSheets,
		Logger:             logger,
		PageSize:           cfg.PageSize,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		logger.Info("Shutting down server...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if err := board.Close(); err != nil {
			logger.Warn("Failed to release resources", "error", err)
		}
	})

	caches.StartCleanup(cfg.CacheTTL)

	go func() {
		logger.Info("Starting budgetboard server", "port", cfg.Port, "page_size", cfg.PageSize)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
