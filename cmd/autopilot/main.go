// Command autopilot runs the daily autopilot once and prints the per-chat
// results as JSON. It is meant for an external cron caller; the server
// binary schedules the same run itself. With -enqueue the run is handed to
// the server's worker queue instead of executing in this process.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jimdaga/postpilot/internal/app"
	"github.com/jimdaga/postpilot/internal/autopilot"
	"github.com/jimdaga/postpilot/internal/config"
	"github.com/jimdaga/postpilot/internal/database"
	"github.com/jimdaga/postpilot/internal/streams"
	"github.com/jimdaga/postpilot/internal/worker"
)

func main() {
	configID := flag.Uint("config", 0, "run a single autopilot config by ID instead of every active one")
	publish := flag.Bool("publish-events", true, "publish run events to Redis")
	enqueue := flag.Bool("enqueue", false, "enqueue the run on the worker queue and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Results go to stdout; logs go to stderr
	logger := worker.NewLoggerTo(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if *enqueue {
		if err := enqueueRun(cfg.RedisURL, *configID); err != nil {
			logger.Error("Failed to enqueue autopilot run", "config_id", *configID, "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	var events autopilot.EventPublisher
	if *publish {
		publisher, err := streams.NewPublisher(cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to create publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		events = publisher
	}

	svc, err := app.Build(ctx, cfg, db, events, logger)
	if err != nil {
		logger.Error("Failed to build autopilot", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	var out interface{}
	if *configID != 0 {
		result, err := svc.Orchestrator.RunChatByID(ctx, *configID)
		if err != nil {
			logger.Error("Autopilot run failed", "config_id", *configID, "error", err)
			os.Exit(1)
		}
		out = result
	} else {
		results, err := svc.Orchestrator.RunDailyAutopilot(ctx)
		if err != nil {
			logger.Error("Autopilot run failed", "error", err)
			os.Exit(1)
		}
		out = results
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("Failed to write results", "error", err)
		os.Exit(1)
	}
}

func enqueueRun(redisURL string, configID uint) error {
	if err := worker.InitClient(redisURL); err != nil {
		return err
	}
	defer worker.CloseClient()

	taskID, err := worker.EnqueueRun(configID)
	if err != nil {
		return err
	}

	return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
		"task_id":   taskID,
		"config_id": configID,
	})
}
