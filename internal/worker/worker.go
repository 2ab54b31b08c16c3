package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/postpilot/internal/autopilot"
	"github.com/jimdaga/postpilot/internal/config"
	"gorm.io/gorm"
)

// concurrency stays at 1 so daily runs never overlap
const concurrency = 1

// Runner is the autopilot surface the task handlers drive
type Runner interface {
	RunDailyAutopilot(ctx context.Context) ([]autopilot.ChatResult, error)
	RunChatByID(ctx context.Context, configID uint) (autopilot.ChatResult, error)
}

// Run starts the Asynq worker server and blocks until shutdown signal.
func Run(cfg *config.Config, runner Runner, logger *slog.Logger) error {
	srv, mux, err := newServer(cfg, runner, logger)
	if err != nil {
		return err
	}
	return srv.Run(mux)
}

// Start starts the Asynq worker in non-blocking mode and returns a stop function.
func Start(cfg *config.Config, runner Runner, logger *slog.Logger) (stop func(), err error) {
	srv, mux, err := newServer(cfg, runner, logger)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, runner Runner, logger *slog.Logger) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     concurrency,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	mux := NewServeMux(runner, logger)

	logger.Info("Worker starting", "concurrency", concurrency)
	return srv, mux, nil
}

// NewServeMux registers the autopilot task handlers
func NewServeMux(runner Runner, logger *slog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskDailyAutopilot, handleDailyAutopilot(logger, runner))
	mux.HandleFunc(TaskRunChat, handleRunChat(logger, runner))
	return mux
}

// handleDailyAutopilot runs every active config. Per-chat failures are
// already recorded on their configs, so only a listing failure is retried.
func handleDailyAutopilot(logger *slog.Logger, runner Runner) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		logger.Info("Processing autopilot:daily task")

		results, err := runner.RunDailyAutopilot(ctx)
		if err != nil {
			return fmt.Errorf("daily autopilot: %w", err)
		}

		var succeeded, skipped, failed int
		for _, r := range results {
			switch {
			case !r.Success:
				failed++
			case r.Skipped:
				skipped++
			default:
				succeeded++
			}
		}

		logger.Info(
			"Autopilot daily run finished",
			"chats", len(results),
			"succeeded", succeeded,
			"skipped", skipped,
			"failed", failed,
		)
		return nil
	}
}

// handleRunChat runs a single config by ID.
func handleRunChat(logger *slog.Logger, runner Runner) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload runChatPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// Invalid payload - don't retry
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}
		if payload.ConfigID == 0 {
			return fmt.Errorf("missing config_id: %w", asynq.SkipRetry)
		}

		logger.Info("Processing autopilot:run-chat task", "config_id", payload.ConfigID)

		result, err := runner.RunChatByID(ctx, payload.ConfigID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Error("Autopilot config not found", "config_id", payload.ConfigID)
				return fmt.Errorf("config %d not found: %w", payload.ConfigID, asynq.SkipRetry)
			}
			// Database error - retryable
			return err
		}

		// The failure is already recorded on the config; retrying would
		// create duplicate posts for the items that succeeded.
		if !result.Success {
			logger.Warn(
				"Autopilot chat run failed",
				"config_id", payload.ConfigID,
				"chat_id", result.ChatID,
				"error", result.Error,
			)
			return nil
		}

		logger.Info(
			"Autopilot chat run finished",
			"config_id", payload.ConfigID,
			"chat_id", result.ChatID,
			"skipped", result.Skipped,
		)
		return nil
	}
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		if retried >= maxRetry || errors.Is(err, asynq.SkipRetry) {
			logger.Error(
				"Task moved to archive",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}
