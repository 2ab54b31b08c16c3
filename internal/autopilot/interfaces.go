package autopilot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jimdaga/postpilot/internal/models"
)

// Analytics returns aggregated performance for a user over a window.
type Analytics interface {
	GetDashboard(ctx context.Context, userID string, windowDays int) (*Dashboard, error)
}

// ContentEngine writes captions and hashtags for a brief.
type ContentEngine interface {
	GenerateViralPostContent(ctx context.Context, brief models.JobBrief, prompts []string, opts GenerationOptions) (*PostContent, error)
}

// ImageOrchestrator runs a content job and returns the generated images.
type ImageOrchestrator interface {
	ExecuteJob(ctx context.Context, jobID string, opts ExecuteOptions) (*JobResult, error)
}

// GrowthAgent decides the day's content plan.
type GrowthAgent interface {
	DecideDailyPlan(ctx context.Context, obs Observations, memory *models.AutopilotMemory, config *models.AutopilotConfig) (*Plan, error)
}

// ConfigStore persists autopilot configs.
type ConfigStore interface {
	ListActive(ctx context.Context, now time.Time) ([]models.AutopilotConfig, error)
	GetConfig(ctx context.Context, id uint) (*models.AutopilotConfig, error)
	SaveConfig(ctx context.Context, config *models.AutopilotConfig) error
}

// MemoryStore persists autopilot memories. FindMemory returns nil, nil
// when no record exists.
type MemoryStore interface {
	FindMemory(ctx context.Context, userID, chatID string) (*models.AutopilotMemory, error)
	CreateMemory(ctx context.Context, memory *models.AutopilotMemory) error
	SaveMemory(ctx context.Context, memory *models.AutopilotMemory) error
}

// PostStore reads published posts and creates scheduled ones.
type PostStore interface {
	RecentPublished(ctx context.Context, userID string, since time.Time, limit int) ([]models.ScheduledPost, error)
	CreatePost(ctx context.Context, post *models.ScheduledPost) error
}

// JobStore creates content job records.
type JobStore interface {
	CreateJob(ctx context.Context, job *models.ContentJob) error
}

// EventPublisher receives a RunEvent after each chat attempt.
type EventPublisher interface {
	PublishRunEvent(ctx context.Context, event RunEvent) error
}

// Clock is the source of "now".
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the local wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// IDGenerator produces unique post identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }
