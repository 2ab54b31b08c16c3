package autopilot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jimdaga/postpilot/internal/models"
)

// Deps are the collaborators an Orchestrator needs. Events, Clock, IDs and
// Logger are optional.
type Deps struct {
	Configs   ConfigStore
	Memories  MemoryStore
	Posts     PostStore
	Jobs      JobStore
	Analytics Analytics
	Content   ContentEngine
	Images    ImageOrchestrator
	Agent     GrowthAgent
	Events    EventPublisher
	Clock     Clock
	IDs       IDGenerator
	Logger    *slog.Logger

	// ChatTimeout bounds a single chat run; zero means no deadline.
	ChatTimeout time.Duration
}

// Orchestrator runs the autopilot over every active config.
type Orchestrator struct {
	configs     ConfigStore
	memories    MemoryStore
	posts       PostStore
	jobs        JobStore
	analytics   Analytics
	content     ContentEngine
	images      ImageOrchestrator
	agent       GrowthAgent
	events      EventPublisher
	clock       Clock
	ids         IDGenerator
	logger      *slog.Logger
	chatTimeout time.Duration
}

// New validates deps and builds an Orchestrator.
func New(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Configs == nil:
		return nil, fmt.Errorf("autopilot: config store is required")
	case deps.Memories == nil:
		return nil, fmt.Errorf("autopilot: memory store is required")
	case deps.Posts == nil:
		return nil, fmt.Errorf("autopilot: post store is required")
	case deps.Jobs == nil:
		return nil, fmt.Errorf("autopilot: job store is required")
	case deps.Analytics == nil:
		return nil, fmt.Errorf("autopilot: analytics is required")
	case deps.Content == nil:
		return nil, fmt.Errorf("autopilot: content engine is required")
	case deps.Images == nil:
		return nil, fmt.Errorf("autopilot: image orchestrator is required")
	case deps.Agent == nil:
		return nil, fmt.Errorf("autopilot: growth agent is required")
	}

	o := &Orchestrator{
		configs:     deps.Configs,
		memories:    deps.Memories,
		posts:       deps.Posts,
		jobs:        deps.Jobs,
		analytics:   deps.Analytics,
		content:     deps.Content,
		images:      deps.Images,
		agent:       deps.Agent,
		events:      deps.Events,
		clock:       deps.Clock,
		ids:         deps.IDs,
		logger:      deps.Logger,
		chatTimeout: deps.ChatTimeout,
	}
	if o.clock == nil {
		o.clock = SystemClock
	}
	if o.ids == nil {
		o.ids = UUIDGenerator{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o, nil
}

// RunDailyAutopilot runs every enabled, unpaused config in query order.
// A failing chat is recorded on its config and in the results and does not
// stop the others. The error is non-nil only when the configs cannot be listed.
func (o *Orchestrator) RunDailyAutopilot(ctx context.Context) ([]ChatResult, error) {
	configs, err := o.configs.ListActive(ctx, o.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list active autopilot configs: %w", err)
	}

	o.logger.Info("Autopilot run starting", "configs", len(configs))

	results := make([]ChatResult, 0, len(configs))
	for i := range configs {
		results = append(results, o.RunChat(ctx, &configs[i]))
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	o.logger.Info("Autopilot run completed", "configs", len(results), "failed", failed)

	return results, nil
}

// RunChatByID loads a config and runs it through RunChat.
func (o *Orchestrator) RunChatByID(ctx context.Context, configID uint) (ChatResult, error) {
	config, err := o.configs.GetConfig(ctx, configID)
	if err != nil {
		return ChatResult{}, fmt.Errorf("failed to load autopilot config %d: %w", configID, err)
	}
	return o.RunChat(ctx, config), nil
}

// RunChat runs one config with failure isolation. On failure the config's
// last run fields are updated and saved here.
func (o *Orchestrator) RunChat(ctx context.Context, config *models.AutopilotConfig) ChatResult {
	run, err := o.runIsolated(ctx, config)
	if err != nil {
		re := asRunError(err, KindExecution, "run chat")
		re.ChatID = config.ChatID

		o.logger.Error("Autopilot chat run failed",
			"chat_id", config.ChatID,
			"user_id", config.UserID,
			"kind", re.Kind,
			"error", re.Message(),
		)

		now := o.clock.Now()
		config.LastRunAt = &now
		config.LastRunResult = models.RunResultFailed
		config.LastRunSummary = re.Message()
		if saveErr := o.configs.SaveConfig(ctx, config); saveErr != nil {
			o.logger.Error("Failed to record failed run on config",
				"chat_id", config.ChatID,
				"error", saveErr.Error(),
			)
		}

		o.publish(ctx, config, EventStatusFailed, re.Message(), 0)
		return ChatResult{ChatID: config.ChatID, Success: false, Error: re.Message(), Err: re}
	}

	switch {
	case run.Skipped:
		o.publish(ctx, config, EventStatusSkipped, run.Reason, 0)
	case run.Execution != nil && run.Execution.Success:
		o.publish(ctx, config, EventStatusSuccess, run.Plan.Reasoning, run.Execution.PostsCreated())
	default:
		o.publish(ctx, config, EventStatusPartial, run.Plan.Reasoning, run.Execution.PostsCreated())
	}

	return ChatResult{
		ChatID:    config.ChatID,
		Success:   true,
		Skipped:   run.Skipped,
		Reason:    run.Reason,
		Plan:      run.Plan,
		Execution: run.Execution,
	}
}

// runIsolated applies the per-chat deadline and turns a panic into an error.
func (o *Orchestrator) runIsolated(ctx context.Context, config *models.AutopilotConfig) (run *ChatRunResult, err error) {
	if o.chatTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.chatTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			run = nil
			err = newRunError(KindExecution, "run chat", fmt.Errorf("panic: %v", r))
		}
	}()
	return o.RunForChat(ctx, config)
}

// RunForChat performs one observe, decide, execute cycle for a config.
// During quiet hours it returns a skipped result without touching any store.
func (o *Orchestrator) RunForChat(ctx context.Context, config *models.AutopilotConfig) (*ChatRunResult, error) {
	if config.InQuietHours(o.clock.Now()) {
		o.logger.Info("Skipping autopilot run during quiet hours", "chat_id", config.ChatID)
		return &ChatRunResult{Skipped: true, Reason: SkipReasonQuietHours}, nil
	}

	memory, err := o.loadOrCreateMemory(ctx, config)
	if err != nil {
		return nil, err
	}

	obs := o.ObserveAccount(ctx, config.UserID, memory)

	plan, err := o.agent.DecideDailyPlan(ctx, obs, memory, config)
	if err != nil {
		return nil, newRunError(KindDecision, "decide daily plan", err)
	}
	if plan == nil {
		plan = &Plan{}
	}

	execution, err := o.ExecutePlan(ctx, plan, config, memory)
	if err != nil {
		return nil, err
	}

	now := o.clock.Now()
	memory.LastDecisionSummary = plan.Reasoning
	memory.LastDecisionAt = &now
	if err := o.memories.SaveMemory(ctx, memory); err != nil {
		return nil, newRunError(KindPersistence, "save memory", err)
	}

	config.LastRunAt = &now
	config.LastRunResult = models.RunResultPartial
	if execution.Success {
		config.LastRunResult = models.RunResultSuccess
	}
	config.LastRunSummary = plan.Reasoning
	if err := o.configs.SaveConfig(ctx, config); err != nil {
		return nil, newRunError(KindPersistence, "save config", err)
	}

	o.logger.Info("Autopilot chat run completed",
		"chat_id", config.ChatID,
		"user_id", config.UserID,
		"result", config.LastRunResult,
		"feed_posts", len(execution.FeedPosts),
		"stories", len(execution.Stories),
	)

	return &ChatRunResult{Plan: plan, Execution: execution}, nil
}

func (o *Orchestrator) loadOrCreateMemory(ctx context.Context, config *models.AutopilotConfig) (*models.AutopilotMemory, error) {
	memory, err := o.memories.FindMemory(ctx, config.UserID, config.ChatID)
	if err != nil {
		return nil, newRunError(KindPersistence, "load memory", err)
	}
	if memory != nil {
		return memory, nil
	}

	memory = &models.AutopilotMemory{UserID: config.UserID, ChatID: config.ChatID}
	if err := o.memories.CreateMemory(ctx, memory); err != nil {
		return nil, newRunError(KindPersistence, "create memory", err)
	}
	o.logger.Info("Created autopilot memory", "chat_id", config.ChatID, "user_id", config.UserID)
	return memory, nil
}

func (o *Orchestrator) publish(ctx context.Context, config *models.AutopilotConfig, status, summary string, postsCreated int) {
	if o.events == nil {
		return
	}
	event := RunEvent{
		ConfigID:     config.ID,
		ChatID:       config.ChatID,
		UserID:       config.UserID,
		Status:       status,
		Summary:      summary,
		PostsCreated: postsCreated,
		At:           o.clock.Now(),
	}
	if err := o.events.PublishRunEvent(ctx, event); err != nil {
		o.logger.Warn("Failed to publish run event", "chat_id", config.ChatID, "error", err.Error())
	}
}
