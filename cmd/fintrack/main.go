package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/services"
	"fintrack/internal/summary"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger.Logger)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "error", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	backendResult := cli.InitStore(context.Background(), logger.Logger, cfg)
	store := backendResult.Store

	m := metrics.New()
	summaries := summary.NewService(summary.NewEngine(store), store,
		summary.WithMetrics(m),
		summary.WithTimeout(cfg.RecalcTimeout))

	// Events are optional; without AMQP the worker simply never hears about
	// touched periods and the refresher keeps exports eventually consistent.
	var publisher summary.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, period events disabled", "error", err)
			amqpClient = nil
		} else {
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - period events will not be published")
	}

	recalc := summary.NewRecalculator(summaries, publisher, m)
	ledger := services.NewLedgerService(store, recalc, services.WithResolver(core.NewResolver(loc)))

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Ledger:             ledger,
		Summaries:          summaries,
		Store:              store,
		Metrics:            m,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Location:           loc,
	})

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if amqpClient != nil {
			errs = append(errs, amqpClient.Close())
		}
		if backendResult.Cleanup != nil {
			errs = append(errs, backendResult.Cleanup())
		}
		if err := errors.Join(errs...); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	})

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", loc.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
