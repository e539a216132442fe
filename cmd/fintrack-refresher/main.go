package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/summary"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentRefresher)
	logger.Info("Starting fintrack-refresher")

	cfg := cli.LoadAndValidateConfig(logger.Logger)
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "error", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	schedule, err := cron.ParseStandard(cfg.RefreshSchedule)
	if err != nil {
		logger.Error("Invalid refresh schedule", "error", err, "schedule", cfg.RefreshSchedule)
		os.Exit(1)
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

	// Refreshed periods are announced so the worker re-exports them.
	var publisher summary.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, refreshed periods will not be announced", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	summaries := summary.NewService(summary.NewEngine(store), store, summary.WithTimeout(cfg.RecalcTimeout))
	processor := services.NewRefreshProcessor(store, summary.NewRecalculator(summaries, publisher, nil))

	run := func() {
		start := time.Now()
		count, err := processor.RefreshAll(ctx)
		if err != nil {
			logger.Error("Summary refresh failed", "error", err, "refreshed", count)
			return
		}
		logger.Info("Summary refresh finished", "refreshed", count, "duration", time.Since(start))
	}

	scheduler := cron.New(cron.WithLocation(loc))
	scheduler.Schedule(schedule, cron.FuncJob(run))

	logger.Info("Running initial summary refresh...")
	run()

	scheduler.Start()
	logger.Info("Refresh scheduler started", "schedule", cfg.RefreshSchedule, "timezone", loc.String())

	<-ctx.Done()
	logger.Info("Shutdown signal received, waiting for running refresh")

	select {
	case <-scheduler.Stop().Done():
		logger.Info("Refresher shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
