package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskDailyAutopilot = "autopilot:daily"
	TaskRunChat        = "autopilot:run-chat"
)

// taskEnqueuer is the part of *asynq.Client the enqueue helpers use
type taskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Package-level Asynq client (singleton)
var client taskEnqueuer

// InitClient initializes the global Asynq client for task enqueueing.
// Must be called before any EnqueueX functions.
func InitClient(redisURL string) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return err
	}

	client = asynq.NewClient(opt)
	return nil
}

// CloseClient closes the Asynq client connection gracefully.
func CloseClient() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

type runChatPayload struct {
	ConfigID uint `json:"config_id"`
}

// NewDailyAutopilotTask builds the periodic run task. The payload is empty;
// the handler queries every active config.
func NewDailyAutopilotTask() *asynq.Task {
	return asynq.NewTask(
		TaskDailyAutopilot,
		nil,
		asynq.MaxRetry(1),
		asynq.Timeout(2*time.Hour),
		asynq.Retention(24*time.Hour),
		asynq.Unique(12*time.Hour), // Prevent duplicate if scheduler runs twice
	)
}

// NewRunChatTask builds a single-chat run task for configID
func NewRunChatTask(configID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(runChatPayload{ConfigID: configID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskRunChat,
		payload,
		asynq.MaxRetry(2),
		asynq.Timeout(30*time.Minute),
		asynq.Retention(24*time.Hour),
	), nil
}

// EnqueueRunForChat enqueues an on-demand autopilot run for one config.
// Returns the asynq task ID.
func EnqueueRunForChat(configID uint) (string, error) {
	if client == nil {
		return "", fmt.Errorf("asynq client not initialized")
	}

	task, err := NewRunChatTask(configID)
	if err != nil {
		return "", err
	}

	info, err := client.Enqueue(task)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue run for config %d: %w", configID, err)
	}
	return info.ID, nil
}

// EnqueueDailyAutopilot triggers a full run outside the schedule
func EnqueueDailyAutopilot() (string, error) {
	if client == nil {
		return "", fmt.Errorf("asynq client not initialized")
	}

	info, err := client.Enqueue(NewDailyAutopilotTask())
	if err != nil {
		return "", fmt.Errorf("failed to enqueue daily autopilot: %w", err)
	}
	return info.ID, nil
}

// EnqueueRun enqueues a single-chat run when configID is set and a full
// daily run otherwise.
func EnqueueRun(configID uint) (string, error) {
	if configID != 0 {
		return EnqueueRunForChat(configID)
	}
	return EnqueueDailyAutopilot()
}
