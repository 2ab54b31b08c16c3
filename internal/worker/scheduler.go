package worker

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/postpilot/internal/config"
)

// StartScheduler creates and starts an Asynq Scheduler that enqueues the
// daily autopilot task on cfg.AutopilotSchedule in cfg.AutopilotTimezone.
// Returns a stop function for graceful shutdown.
func StartScheduler(cfg *config.Config, logger *slog.Logger) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: cfg.Location(),
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	entryID, err := scheduler.Register(cfg.AutopilotSchedule, NewDailyAutopilotTask())
	if err != nil {
		return nil, fmt.Errorf("failed to register autopilot schedule: %w", err)
	}

	// Start scheduler (non-blocking)
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info(
		"Scheduler started",
		"schedule", cfg.AutopilotSchedule,
		"timezone", cfg.AutopilotTimezone,
		"entry_id", entryID,
	)

	return func() { scheduler.Shutdown() }, nil
}
