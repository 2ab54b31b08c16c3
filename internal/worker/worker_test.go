package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/postpilot/internal/autopilot"
	"gorm.io/gorm"
)

type fakeRunner struct {
	daily     []autopilot.ChatResult
	dailyErr  error
	chat      autopilot.ChatResult
	chatErr   error
	dailyRuns int
	chatIDs   []uint
}

func (f *fakeRunner) RunDailyAutopilot(context.Context) ([]autopilot.ChatResult, error) {
	f.dailyRuns++
	return f.daily, f.dailyErr
}

func (f *fakeRunner) RunChatByID(_ context.Context, configID uint) (autopilot.ChatResult, error) {
	f.chatIDs = append(f.chatIDs, configID)
	return f.chat, f.chatErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDailyTaskDispatch(t *testing.T) {
	runner := &fakeRunner{daily: []autopilot.ChatResult{
		{ChatID: "a", Success: true},
		{ChatID: "b", Success: false, Error: "boom"},
		{ChatID: "c", Success: true, Skipped: true},
	}}
	mux := NewServeMux(runner, discardLogger())

	if err := mux.ProcessTask(context.Background(), NewDailyAutopilotTask()); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if runner.dailyRuns != 1 {
		t.Errorf("daily runs = %d, want 1", runner.dailyRuns)
	}
}

func TestDailyTaskRetriesListingFailure(t *testing.T) {
	runner := &fakeRunner{dailyErr: errors.New("db down")}
	err := handleDailyAutopilot(discardLogger(), runner)(context.Background(), NewDailyAutopilotTask())
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Errorf("error = %v, want retryable error", err)
	}
}

func TestRunChatTask(t *testing.T) {
	task, err := NewRunChatTask(42)
	if err != nil {
		t.Fatalf("NewRunChatTask() error = %v", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["config_id"] != float64(42) {
		t.Errorf("payload = %v", payload)
	}

	tests := []struct {
		name      string
		runner    *fakeRunner
		task      *asynq.Task
		wantErr   bool
		wantSkip  bool
		wantCalls int
	}{
		{
			name:      "success",
			runner:    &fakeRunner{chat: autopilot.ChatResult{ChatID: "c1", Success: true}},
			task:      task,
			wantCalls: 1,
		},
		{
			name:      "failed chat is not retried",
			runner:    &fakeRunner{chat: autopilot.ChatResult{ChatID: "c1", Error: "agent down"}},
			task:      task,
			wantCalls: 1,
		},
		{
			name:      "missing config",
			runner:    &fakeRunner{chatErr: fmt.Errorf("load: %w", gorm.ErrRecordNotFound)},
			task:      task,
			wantErr:   true,
			wantSkip:  true,
			wantCalls: 1,
		},
		{
			name:      "database error",
			runner:    &fakeRunner{chatErr: errors.New("connection refused")},
			task:      task,
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name:     "invalid payload",
			runner:   &fakeRunner{},
			task:     asynq.NewTask(TaskRunChat, []byte("not json")),
			wantErr:  true,
			wantSkip: true,
		},
		{
			name:     "zero config id",
			runner:   &fakeRunner{},
			task:     asynq.NewTask(TaskRunChat, []byte(`{}`)),
			wantErr:  true,
			wantSkip: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewServeMux(tt.runner, discardLogger()).ProcessTask(context.Background(), tt.task)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, asynq.SkipRetry) != tt.wantSkip {
				t.Errorf("SkipRetry = %v, want %v (err %v)", !tt.wantSkip, tt.wantSkip, err)
			}
			if len(tt.runner.chatIDs) != tt.wantCalls {
				t.Errorf("RunChatByID calls = %d, want %d", len(tt.runner.chatIDs), tt.wantCalls)
			}
			if tt.wantCalls > 0 && tt.runner.chatIDs[0] != 42 {
				t.Errorf("config id = %d, want 42", tt.runner.chatIDs[0])
			}
		})
	}
}

func TestEnqueueWithoutClient(t *testing.T) {
	client = nil
	if _, err := EnqueueRunForChat(1); err == nil {
		t.Error("EnqueueRunForChat() without InitClient should fail")
	}
	if _, err := EnqueueDailyAutopilot(); err == nil {
		t.Error("EnqueueDailyAutopilot() without InitClient should fail")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("shown", "chat_id", "c1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message logged at warn level")
	}
	var line map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &line); err != nil {
		t.Fatalf("output is not JSON: %q", out)
	}
	if line["chat_id"] != "c1" {
		t.Errorf("chat_id = %v", line["chat_id"])
	}

	if parseLevel("bogus") != slog.LevelInfo {
		t.Error("unknown level should default to info")
	}
}

type fakeEnqueuer struct {
	tasks  []*asynq.Task
	closed bool
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(f.tasks))}, nil
}

func (f *fakeEnqueuer) Close() error {
	f.closed = true
	return nil
}

func TestEnqueueRun(t *testing.T) {
	fake := &fakeEnqueuer{}
	client = fake
	defer func() { client = nil }()

	id, err := EnqueueRun(42)
	if err != nil || id != "task-1" {
		t.Fatalf("EnqueueRun(42) = %q, %v", id, err)
	}
	if _, err := EnqueueRun(0); err != nil {
		t.Fatalf("EnqueueRun(0) error = %v", err)
	}

	if len(fake.tasks) != 2 {
		t.Fatalf("enqueued %d tasks, want 2", len(fake.tasks))
	}
	if fake.tasks[0].Type() != TaskRunChat {
		t.Errorf("first task = %s, want %s", fake.tasks[0].Type(), TaskRunChat)
	}
	var payload runChatPayload
	if err := json.Unmarshal(fake.tasks[0].Payload(), &payload); err != nil || payload.ConfigID != 42 {
		t.Errorf("run-chat payload = %s", fake.tasks[0].Payload())
	}
	if fake.tasks[1].Type() != TaskDailyAutopilot {
		t.Errorf("second task = %s, want %s", fake.tasks[1].Type(), TaskDailyAutopilot)
	}

	// The enqueued run-chat task is handled by the worker mux
	runner := &fakeRunner{chat: autopilot.ChatResult{ChatID: "c1", Success: true}}
	if err := NewServeMux(runner, discardLogger()).ProcessTask(context.Background(), fake.tasks[0]); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if len(runner.chatIDs) != 1 || runner.chatIDs[0] != 42 {
		t.Errorf("RunChatByID calls = %v, want [42]", runner.chatIDs)
	}

	if err := CloseClient(); err != nil || !fake.closed {
		t.Errorf("CloseClient() = %v, closed %v", err, fake.closed)
	}
}
