// Package autopilot runs the daily observe, decide, execute loop that turns
// an account's recent performance into generated and scheduled content.
package autopilot

import (
	"time"

	"github.com/jimdaga/postpilot/internal/models"
)

// Trend directions
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendFlat    Trend = "flat"
	TrendUnknown Trend = "unknown"
)

// Rate is a coarse per-post frequency bucket
type Rate string

const (
	RateLow    Rate = "low"
	RateNormal Rate = "normal"
	RateHigh   Rate = "high"
)

// Skip reasons
const (
	SkipReasonQuietHours = "quiet_hours"
)

// Story status returned for stories the autopilot plans but does not publish
const StoryStatusPlanned = "planned"

// Observations is the flat feature snapshot handed to the growth agent.
// The optional fields are nil on the fallback snapshot and are omitted
// from its JSON form.
type Observations struct {
	EngagementTrend   Trend   `json:"engagementTrend"`
	ReachTrend        Trend   `json:"reachTrend"`
	AvgEngagementRate float64 `json:"avgEngagementRate"`
	BestFormat        string  `json:"bestFormat"`
	BestTheme         string  `json:"bestTheme"`
	CommentRate       *Rate   `json:"commentRate,omitempty"`
	SaveRate          *Rate   `json:"saveRate,omitempty"`
	TotalPosts        *int    `json:"totalPosts,omitempty"`
	TotalReach        *int    `json:"totalReach,omitempty"`
}

// DashboardOverview holds analytics totals; absent values decode as zero.
type DashboardOverview struct {
	AvgEngagementRate float64 `json:"avgEngagementRate"`
	TotalComments     int     `json:"totalComments"`
	TotalSaves        int     `json:"totalSaves"`
	TotalPosts        int     `json:"totalPosts"`
	TotalReach        int     `json:"totalReach"`
}

// Dashboard is the analytics service response for a time window
type Dashboard struct {
	Overview DashboardOverview `json:"overview"`
}

// FeedPostPlan describes one feed post the agent wants created
type FeedPostPlan struct {
	Time             string `json:"time"`
	Format           string `json:"format,omitempty"`
	Theme            string `json:"theme,omitempty"`
	HookStyle        string `json:"hookStyle,omitempty"`
	PromptSuggestion string `json:"promptSuggestion,omitempty"`
	Goal             string `json:"goal,omitempty"`
}

// StoryPlan describes one story the agent wants created
type StoryPlan struct {
	Time string `json:"time"`
	Type string `json:"type"`
}

// Plan is the growth agent's decision for a run
type Plan struct {
	FeedPosts []FeedPostPlan `json:"feedPosts,omitempty"`
	Stories   []StoryPlan    `json:"stories,omitempty"`
	Reasoning string         `json:"reasoning"`
}

// GenerationOptions are passed to the content engine alongside the brief
type GenerationOptions struct {
	Platform string   `json:"platform"`
	Tone     string   `json:"tone"`
	Goals    []string `json:"goals"`
}

// PostContent is the content engine's caption output
type PostContent struct {
	Description   string `json:"description,omitempty"`
	ShortCaption  string `json:"shortCaption,omitempty"`
	HashtagString string `json:"hashtagString,omitempty"`
}

// ExecuteOptions carries extra arguments for an image job run
type ExecuteOptions struct {
	UserID string `json:"userId"`
}

// ImageResult is one generated image
type ImageResult struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt,omitempty"`
}

// JobResult is the image orchestrator's output for a job
type JobResult struct {
	Results []ImageResult `json:"results"`
}

// FeedPostResult describes a created and scheduled feed post
type FeedPostResult struct {
	PostID      string       `json:"postId"`
	ScheduledAt time.Time    `json:"scheduledAt"`
	ImageURL    string       `json:"imageUrl"`
	Caption     string       `json:"caption"`
	Plan        FeedPostPlan `json:"plan"`
}

// FeedPostOutcome is one slot of the feed post results; exactly one of
// the result and the error is set.
type FeedPostOutcome struct {
	*FeedPostResult
	Err   *RunError `json:"-"`
	Error string    `json:"error,omitempty"`
}

// Failed reports whether this slot holds an error.
func (o FeedPostOutcome) Failed() bool { return o.Err != nil }

// StoryResult describes a planned story
type StoryResult struct {
	Type        string    `json:"type"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Status      string    `json:"status"`
}

// StoryOutcome is one slot of the story results
type StoryOutcome struct {
	*StoryResult
	Err   *RunError `json:"-"`
	Error string    `json:"error,omitempty"`
}

// Failed reports whether this slot holds an error.
func (o StoryOutcome) Failed() bool { return o.Err != nil }

// ExecutionResult collects per-item outcomes. Success is false when any
// feed post failed; story failures do not affect it.
type ExecutionResult struct {
	FeedPosts []FeedPostOutcome `json:"feedPosts"`
	Stories   []StoryOutcome    `json:"stories"`
	Success   bool              `json:"success"`
}

// PostsCreated counts the feed posts that were scheduled.
func (r *ExecutionResult) PostsCreated() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, o := range r.FeedPosts {
		if !o.Failed() {
			n++
		}
	}
	return n
}

// ChatRunResult is what a single chat run produced
type ChatRunResult struct {
	Skipped   bool             `json:"skipped,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Plan      *Plan            `json:"plan,omitempty"`
	Execution *ExecutionResult `json:"execution,omitempty"`
}

// ChatResult is one entry of the daily run summary
type ChatResult struct {
	ChatID    string           `json:"chatId"`
	Success   bool             `json:"success"`
	Skipped   bool             `json:"skipped,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Error     string           `json:"error,omitempty"`
	Err       *RunError        `json:"-"`
	Plan      *Plan            `json:"plan,omitempty"`
	Execution *ExecutionResult `json:"execution,omitempty"`
}

// Run event statuses
const (
	EventStatusSuccess = models.RunResultSuccess
	EventStatusPartial = models.RunResultPartial
	EventStatusFailed  = models.RunResultFailed
	EventStatusSkipped = "skipped"
)

// RunEvent is published after every chat attempt
type RunEvent struct {
	ConfigID     uint      `json:"config_id"`
	ChatID       string    `json:"chat_id"`
	UserID       string    `json:"user_id"`
	Status       string    `json:"status"`
	Summary      string    `json:"summary"`
	PostsCreated int       `json:"posts_created"`
	At           time.Time `json:"at"`
}
