package webhook

import (
	"context"
	"fmt"

	"github.com/jimdaga/postpilot/internal/autopilot"
	"github.com/jimdaga/postpilot/internal/models"
)

// AnalyticsClient implements autopilot.Analytics over the dashboard webhook
type AnalyticsClient struct{ *Client }

// NewAnalyticsClient wraps c as an analytics service
func NewAnalyticsClient(c *Client) *AnalyticsClient { return &AnalyticsClient{c} }

// GetDashboard fetches the aggregated overview for userID over windowDays
func (a *AnalyticsClient) GetDashboard(ctx context.Context, userID string, windowDays int) (*autopilot.Dashboard, error) {
	if a.stubMode {
		return &autopilot.Dashboard{Overview: autopilot.DashboardOverview{
			AvgEngagementRate: 4.2,
			TotalComments:     36,
			TotalSaves:        12,
			TotalPosts:        6,
			TotalReach:        9800,
		}}, nil
	}

	var dash autopilot.Dashboard
	if err := a.postJSON(ctx, PathDashboard, dashboardRequest{UserID: userID, WindowDays: windowDays}, &dash); err != nil {
		return nil, fmt.Errorf("get dashboard for %s: %w", userID, err)
	}
	return &dash, nil
}

// ContentClient implements autopilot.ContentEngine
type ContentClient struct{ *Client }

// NewContentClient wraps c as a caption service
func NewContentClient(c *Client) *ContentClient { return &ContentClient{c} }

// GenerateViralPostContent asks the caption service for a description and hashtags
func (cc *ContentClient) GenerateViralPostContent(ctx context.Context, brief models.JobBrief, prompts []string, opts autopilot.GenerationOptions) (*autopilot.PostContent, error) {
	if cc.stubMode {
		return &autopilot.PostContent{
			Description:   fmt.Sprintf("%s, made simple. Save this for later!", brief.Concept),
			ShortCaption:  brief.Concept,
			HashtagString: "#autopilot #" + opts.Platform,
		}, nil
	}

	if prompts == nil {
		prompts = []string{}
	}
	var content autopilot.PostContent
	req := postContentRequest{Brief: brief, Prompts: prompts, Options: opts}
	if err := cc.postJSON(ctx, PathPostContent, req, &content); err != nil {
		return nil, fmt.Errorf("generate post content: %w", err)
	}
	return &content, nil
}

// ImageClient implements autopilot.ImageOrchestrator
type ImageClient struct{ *Client }

// NewImageClient wraps c as an image orchestrator
func NewImageClient(c *Client) *ImageClient { return &ImageClient{c} }

// ExecuteJob runs the content job and returns the generated image URLs
func (ic *ImageClient) ExecuteJob(ctx context.Context, jobID string, opts autopilot.ExecuteOptions) (*autopilot.JobResult, error) {
	if ic.stubMode {
		return &autopilot.JobResult{Results: []autopilot.ImageResult{{
			URL: fmt.Sprintf("https://picsum.photos/seed/%s/1080/1080", jobID),
		}}}, nil
	}

	var result autopilot.JobResult
	if err := ic.postJSON(ctx, PathExecuteJob, executeJobRequest{JobID: jobID, UserID: opts.UserID}, &result); err != nil {
		return nil, fmt.Errorf("execute job %s: %w", jobID, err)
	}
	return &result, nil
}

// AgentClient implements autopilot.GrowthAgent by delegating the decision
// to an external planning webhook
type AgentClient struct{ *Client }

// NewAgentClient wraps c as a growth agent
func NewAgentClient(c *Client) *AgentClient { return &AgentClient{c} }

// DecideDailyPlan posts the observations and context and returns the plan
func (ac *AgentClient) DecideDailyPlan(ctx context.Context, obs autopilot.Observations, memory *models.AutopilotMemory, config *models.AutopilotConfig) (*autopilot.Plan, error) {
	if ac.stubMode {
		return stubPlan(obs), nil
	}

	var plan autopilot.Plan
	if err := ac.postJSON(ctx, PathDecideDayPlan, NewPlanRequest(obs, memory, config), &plan); err != nil {
		return nil, fmt.Errorf("decide daily plan: %w", err)
	}
	return &plan, nil
}

func stubPlan(obs autopilot.Observations) *autopilot.Plan {
	return &autopilot.Plan{
		FeedPosts: []autopilot.FeedPostPlan{{
			Time:             "18:00",
			Format:           obs.BestFormat,
			Theme:            obs.BestTheme,
			HookStyle:        "question",
			PromptSuggestion: "A bright flat-lay showing the day's best tip",
			Goal:             "engagement",
		}},
		Stories: []autopilot.StoryPlan{
			{Time: "12:00", Type: "poll"},
		},
		Reasoning: fmt.Sprintf("Stub plan: lean into %s %s content", obs.BestFormat, obs.BestTheme),
	}
}
