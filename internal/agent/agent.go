// Package agent implements the growth agent on top of a text generation
// model. The model is asked for a JSON plan which is schema-checked before
// it reaches the executor.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jimdaga/postpilot/internal/autopilot"
	"github.com/jimdaga/postpilot/internal/models"
)

// recentHistoryLimit caps how much history is shown to the model
const recentHistoryLimit = 10

const systemInstruction = "You are a social media growth strategist planning one day of content for a single account. " +
	"Use the observations and recent history to decide what to post. " +
	"Respond with a single JSON object with the keys feedPosts, stories and reasoning. " +
	"Each feed post has time (HH:MM, 24h), format, theme, hookStyle, promptSuggestion and goal. " +
	"Each story has time (HH:MM, 24h) and type. " +
	"Plan at most 2 feed posts and 4 stories. Leave a list empty when that kind of content is not permitted."

// Generator produces text for a system instruction and a prompt
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GrowthAgent implements autopilot.GrowthAgent with a Generator
type GrowthAgent struct {
	gen       Generator
	validator *PlanValidator
	logger    *slog.Logger
}

// New creates a GrowthAgent. logger may be nil.
func New(gen Generator, logger *slog.Logger) (*GrowthAgent, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	validator, err := NewPlanValidator()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GrowthAgent{gen: gen, validator: validator, logger: logger}, nil
}

// DecideDailyPlan asks the model for today's plan. Content kinds the config
// does not permit are removed from the returned plan.
func (a *GrowthAgent) DecideDailyPlan(ctx context.Context, obs autopilot.Observations, memory *models.AutopilotMemory, config *models.AutopilotConfig) (*autopilot.Plan, error) {
	prompt, err := BuildPrompt(obs, memory, config)
	if err != nil {
		return nil, err
	}

	raw, err := a.gen.Generate(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}

	plan, err := a.validator.ParsePlan(raw)
	if err != nil {
		a.logger.Warn("Agent returned unusable plan", "error", err)
		return nil, err
	}

	if config != nil {
		if !config.Permissions.AutoPost {
			plan.FeedPosts = nil
		}
		if !config.Permissions.AutoStory {
			plan.Stories = nil
		}
	}

	return plan, nil
}

// BuildPrompt renders the agent's user prompt
func BuildPrompt(obs autopilot.Observations, memory *models.AutopilotMemory, config *models.AutopilotConfig) (string, error) {
	obsJSON, err := json.MarshalIndent(obs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal observations: %w", err)
	}

	var b strings.Builder
	b.WriteString("Observations for the last 7 days:\n")
	b.Write(obsJSON)
	b.WriteString("\n\n")

	if config != nil {
		fmt.Fprintf(&b, "Platform: %s\n", config.PlatformOrDefault())
		fmt.Fprintf(&b, "Feed posts permitted: %t\n", config.Permissions.AutoPost)
		fmt.Fprintf(&b, "Stories permitted: %t\n", config.Permissions.AutoStory)
		if config.Preferences.Tone != "" {
			fmt.Fprintf(&b, "Preferred tone: %s\n", config.Preferences.Tone)
		}
	}

	if memory != nil {
		brand := memory.Brand
		if brand.VisualStyle != "" || brand.Tone != "" || brand.TargetAudience != "" {
			b.WriteString("\nBrand:\n")
			if brand.VisualStyle != "" {
				fmt.Fprintf(&b, "- visual style: %s\n", brand.VisualStyle)
			}
			if brand.Tone != "" {
				fmt.Fprintf(&b, "- tone: %s\n", brand.Tone)
			}
			if brand.TargetAudience != "" {
				fmt.Fprintf(&b, "- audience: %s\n", brand.TargetAudience)
			}
		}

		history := memory.ContentHistory
		if len(history) > recentHistoryLimit {
			history = history[len(history)-recentHistoryLimit:]
		}
		if len(history) > 0 {
			b.WriteString("\nRecent content (oldest first):\n")
			for _, h := range history {
				fmt.Fprintf(&b, "- %s %s %s/%s hook=%s", h.Date.Format("2006-01-02"), h.Type, h.Format, h.Theme, h.HookStyle)
				if h.Performance.EngagementRate != nil {
					fmt.Fprintf(&b, " engagement=%.2f", *h.Performance.EngagementRate)
				}
				b.WriteString("\n")
			}
		}

		if memory.LastDecisionSummary != "" {
			fmt.Fprintf(&b, "\nYesterday's reasoning: %s\n", memory.LastDecisionSummary)
		}
	}

	return b.String(), nil
}
