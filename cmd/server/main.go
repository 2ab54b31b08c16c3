package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jimdaga/postpilot/internal/app"
	"github.com/jimdaga/postpilot/internal/config"
	"github.com/jimdaga/postpilot/internal/database"
	"github.com/jimdaga/postpilot/internal/health"
	"github.com/jimdaga/postpilot/internal/streams"
	"github.com/jimdaga/postpilot/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := worker.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		return err
	}

	if cfg.IsDevelopment() {
		if err := database.SeedDevData(db); err != nil {
			logger.Warn("Failed to seed dev data", "error", err)
		}
	}

	publisher, err := streams.NewPublisher(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer publisher.Close()

	svc, err := app.Build(ctx, cfg, db, publisher, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	stopWorker, err := worker.Start(cfg, svc.Orchestrator, logger)
	if err != nil {
		return err
	}
	defer stopWorker()

	stopScheduler, err := worker.StartScheduler(cfg, logger)
	if err != nil {
		return err
	}
	defer stopScheduler()

	stopConsumer, err := streams.StartMetricsConsumer(cfg.RedisURL, cfg.MetricsConsumerName, svc.Store)
	if err != nil {
		return err
	}
	defer stopConsumer()

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Handler)
	mux.HandleFunc("GET /ready", health.ReadyHandler(map[string]health.Check{
		"database": sqlDB.PingContext,
		"redis":    publisher.Ping,
	}))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
