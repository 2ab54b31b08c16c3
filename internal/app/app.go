// Package app wires configuration, storage and external services into an
// autopilot Orchestrator.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jimdaga/postpilot/internal/agent"
	"github.com/jimdaga/postpilot/internal/autopilot"
	"github.com/jimdaga/postpilot/internal/config"
	"github.com/jimdaga/postpilot/internal/store"
	"github.com/jimdaga/postpilot/internal/webhook"
	"gorm.io/gorm"
)

// Services holds the wired orchestrator and the resources behind it
type Services struct {
	Orchestrator *autopilot.Orchestrator
	Store        *store.Store
	closers      []func() error
}

// Build selects the collaborator implementations cfg asks for. events may be nil.
func Build(ctx context.Context, cfg *config.Config, db *gorm.DB, events autopilot.EventPublisher, logger *slog.Logger) (*Services, error) {
	if err := validateEndpoints(cfg); err != nil {
		return nil, err
	}

	s := store.New(db)
	svc := &Services{Store: s}

	var analytics autopilot.Analytics
	if cfg.UseDBAnalytics() {
		analytics = store.NewAnalytics(s)
		logger.Info("Using database analytics")
	} else {
		analytics = webhook.NewAnalyticsClient(webhook.NewClient(cfg.AnalyticsURL, cfg.WebhookSecret, cfg.WebhookStubMode))
	}

	var growth autopilot.GrowthAgent
	if cfg.UseGeminiAgent() {
		gen, err := agent.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, gen.Close)

		a, err := agent.New(gen, logger)
		if err != nil {
			svc.Close()
			return nil, err
		}
		growth = a
		logger.Info("Using Gemini growth agent", "model", cfg.GeminiModel)
	} else {
		growth = webhook.NewAgentClient(webhook.NewClient(cfg.GrowthAgentURL, cfg.WebhookSecret, cfg.WebhookStubMode))
	}

	orch, err := autopilot.New(autopilot.Deps{
		Configs:     s,
		Memories:    s,
		Posts:       s,
		Jobs:        s,
		Analytics:   analytics,
		Content:     webhook.NewContentClient(webhook.NewClient(cfg.ContentEngineURL, cfg.WebhookSecret, cfg.WebhookStubMode)),
		Images:      webhook.NewImageClient(webhook.NewClient(cfg.ImageOrchestratorURL, cfg.WebhookSecret, cfg.WebhookStubMode)),
		Agent:       growth,
		Events:      events,
		Clock:       ClockFor(cfg),
		Logger:      logger,
		ChatTimeout: cfg.AutopilotChatTimeout,
	})
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.Orchestrator = orch

	if cfg.WebhookStubMode {
		logger.Warn("Webhook stub mode enabled; external services return canned data")
	}

	return svc, nil
}

// ClockFor reads the wall clock in the configured autopilot timezone, so
// plan times and quiet hours agree with the cron schedule.
func ClockFor(cfg *config.Config) autopilot.Clock {
	loc := cfg.Location()
	return autopilot.ClockFunc(func() time.Time { return time.Now().In(loc) })
}

// Close releases resources opened by Build
func (s *Services) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			slog.Error("Failed to close service", "error", err)
		}
	}
	s.closers = nil
}

// validateEndpoints requires a URL for every webhook service in use
func validateEndpoints(cfg *config.Config) error {
	if cfg.WebhookStubMode {
		return nil
	}

	required := map[string]string{
		"CONTENT_ENGINE_URL":     cfg.ContentEngineURL,
		"IMAGE_ORCHESTRATOR_URL": cfg.ImageOrchestratorURL,
	}
	if !cfg.UseGeminiAgent() {
		required["GROWTH_AGENT_URL"] = cfg.GrowthAgentURL
	}

	for _, key := range []string{"CONTENT_ENGINE_URL", "IMAGE_ORCHESTRATOR_URL", "GROWTH_AGENT_URL"} {
		if v, ok := required[key]; ok && v == "" {
			return fmt.Errorf("%s is required unless WEBHOOK_STUB_MODE is set", key)
		}
	}
	return nil
}
