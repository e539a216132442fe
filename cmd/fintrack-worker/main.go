package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/summary"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger.Logger)
	if err := cfg.ValidateExport(); err != nil {
		logger.Error("Export configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend does not share records with the API process; exports will only contain worker-side data")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendResult := cli.InitStore(ctx, logger.Logger, cfg)
	defer func() {
		if backendResult.Cleanup != nil {
			if err := backendResult.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	}()
	store := backendResult.Store

	creds, err := cfg.GoogleCredentials()
	if err != nil {
		logger.Error("Failed to read Google credentials", "error", err)
		os.Exit(1)
	}
	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SummarySheet:    cfg.GoogleSummarySheet,
		CredentialsJSON: creds,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	summaries := summary.NewService(summary.NewEngine(store), store, summary.WithTimeout(cfg.RecalcTimeout))
	periodWorker := worker.NewPeriodWorker(summaries, store, sheetsClient, sheetsClient)

	g, gctx := errgroup.WithContext(ctx)

	// Rows missed while the worker was down are exported before new events
	// are handled; a failure here is logged and does not stop consumption.
	g.Go(func() error {
		logger.Info("Performing startup export check...")
		if err := periodWorker.StartupExportCheck(gctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Startup export check failed", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		err := amqpClient.ConsumePeriodTouched(gctx, periodWorker.HandlePeriodTouched)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
