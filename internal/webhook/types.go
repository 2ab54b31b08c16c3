// Package webhook provides HTTP clients for the external analytics,
// caption, image and growth-decision services the autopilot calls.
package webhook

import (
	"github.com/jimdaga/postpilot/internal/autopilot"
	"github.com/jimdaga/postpilot/internal/models"
)

// Webhook paths, relative to each service's base URL
const (
	PathDashboard     = "/dashboard"
	PathPostContent   = "/generate-post-content"
	PathExecuteJob    = "/jobs/execute"
	PathDecideDayPlan = "/decide-daily-plan"
)

type dashboardRequest struct {
	UserID     string `json:"user_id"`
	WindowDays int    `json:"window_days"`
}

type postContentRequest struct {
	Brief   models.JobBrief             `json:"brief"`
	Prompts []string                    `json:"prompts"`
	Options autopilot.GenerationOptions `json:"options"`
}

type executeJobRequest struct {
	JobID  string `json:"job_id"`
	UserID string `json:"user_id"`
}

// PlanRequest is the body sent to the growth decision webhook
type PlanRequest struct {
	Observations autopilot.Observations `json:"observations"`
	Memory       MemorySnapshot         `json:"memory"`
	Config       ConfigSnapshot         `json:"config"`
}

// MemorySnapshot is the subset of memory the decision service sees
type MemorySnapshot struct {
	Brand                 models.BrandContext   `json:"brand"`
	ContentHistory        []models.HistoryEntry `json:"contentHistory"`
	TotalPostsGenerated   int                   `json:"totalPostsGenerated"`
	TotalStoriesGenerated int                   `json:"totalStoriesGenerated"`
	LastDecisionSummary   string                `json:"lastDecisionSummary,omitempty"`
}

// ConfigSnapshot is the subset of config the decision service sees
type ConfigSnapshot struct {
	ChatID    string `json:"chatId"`
	Platform  string `json:"platform"`
	AutoPost  bool   `json:"autoPost"`
	AutoStory bool   `json:"autoStory"`
	Tone      string `json:"tone,omitempty"`
}

// NewPlanRequest flattens the agent inputs into a wire request
func NewPlanRequest(obs autopilot.Observations, memory *models.AutopilotMemory, config *models.AutopilotConfig) PlanRequest {
	req := PlanRequest{Observations: obs}
	if memory != nil {
		req.Memory = MemorySnapshot{
			Brand:                 memory.Brand,
			ContentHistory:        []models.HistoryEntry(memory.ContentHistory),
			TotalPostsGenerated:   memory.TotalPostsGenerated,
			TotalStoriesGenerated: memory.TotalStoriesGenerated,
			LastDecisionSummary:   memory.LastDecisionSummary,
		}
	}
	if req.Memory.ContentHistory == nil {
		req.Memory.ContentHistory = []models.HistoryEntry{}
	}
	if config != nil {
		req.Config = ConfigSnapshot{
			ChatID:    config.ChatID,
			Platform:  config.PlatformOrDefault(),
			AutoPost:  config.Permissions.AutoPost,
			AutoStory: config.Permissions.AutoStory,
			Tone:      config.Preferences.Tone,
		}
	}
	return req
}
