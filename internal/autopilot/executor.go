package autopilot

import (
	"context"
	"fmt"

	"github.com/jimdaga/postpilot/internal/models"
	"gorm.io/datatypes"
)

const (
	defaultCaptionTone = "friendly"
	defaultGoal        = "engagement"
)

// ExecutePlan creates the plan's feed posts and stories one at a time.
// A failed item is recorded in its slot and the rest still run. Feed post
// failures clear Success; story failures do not. Memory is saved once at
// the end, and an error is returned only if that save fails.
func (o *Orchestrator) ExecutePlan(ctx context.Context, plan *Plan, config *models.AutopilotConfig, memory *models.AutopilotMemory) (*ExecutionResult, error) {
	result := &ExecutionResult{
		FeedPosts: []FeedPostOutcome{},
		Stories:   []StoryOutcome{},
		Success:   true,
	}

	if len(plan.FeedPosts) > 0 && config.Permissions.AutoPost {
		for i, postPlan := range plan.FeedPosts {
			post, err := o.CreateFeedPost(ctx, postPlan, config, memory)
			if err != nil {
				re := asRunError(err, KindExecution, "create feed post")
				o.logger.Error("Feed post creation failed",
					"chat_id", config.ChatID,
					"index", i,
					"kind", re.Kind,
					"error", re.Message(),
				)
				result.FeedPosts = append(result.FeedPosts, FeedPostOutcome{Err: re, Error: re.Message()})
				result.Success = false
				continue
			}

			memory.AppendHistory(models.HistoryEntry{
				Date:      o.clock.Now(),
				PostID:    post.PostID,
				Type:      models.ContentTypeFeed,
				Format:    postPlan.Format,
				Theme:     postPlan.Theme,
				HookStyle: postPlan.HookStyle,
			})
			memory.TotalPostsGenerated++
			result.FeedPosts = append(result.FeedPosts, FeedPostOutcome{FeedPostResult: post})
		}
	}

	if len(plan.Stories) > 0 && config.Permissions.AutoStory {
		for i, storyPlan := range plan.Stories {
			story, err := o.CreateStory(ctx, storyPlan, config)
			if err != nil {
				re := asRunError(err, KindExecution, "create story")
				o.logger.Warn("Story creation failed",
					"chat_id", config.ChatID,
					"index", i,
					"error", re.Message(),
				)
				result.Stories = append(result.Stories, StoryOutcome{Err: re, Error: re.Message()})
				continue
			}
			memory.TotalStoriesGenerated++
			result.Stories = append(result.Stories, StoryOutcome{StoryResult: story})
		}
	}

	if err := o.memories.SaveMemory(ctx, memory); err != nil {
		return result, newRunError(KindPersistence, "save memory", err)
	}
	return result, nil
}

// CreateFeedPost generates the image and caption for one planned post and
// schedules it.
func (o *Orchestrator) CreateFeedPost(ctx context.Context, postPlan FeedPostPlan, config *models.AutopilotConfig, memory *models.AutopilotMemory) (*FeedPostResult, error) {
	scheduledAt, err := ParseTime(o.clock.Now(), postPlan.Time)
	if err != nil {
		return nil, newRunError(KindSchedule, "resolve post time", err)
	}

	prompt := GenerateImagePrompt(postPlan, memory)
	tone := orDefault(config.Preferences.Tone, defaultCaptionTone)

	job := &models.ContentJob{
		JobID:  o.ids.NewID(),
		UserID: config.UserID,
		Type:   models.JobTypeAutopilotPost,
		Status: models.JobStatusPending,
		Brief: datatypes.NewJSONType(models.JobBrief{
			Concept: orDefault(postPlan.PromptSuggestion, postPlan.Theme),
			Style:   postPlan.Format,
			Tone:    tone,
		}),
		Prompts:  []string{prompt},
		Progress: models.JobProgress{Total: 1},
	}
	if err := o.jobs.CreateJob(ctx, job); err != nil {
		return nil, newRunError(KindPersistence, "create content job", err)
	}

	jobResult, err := o.images.ExecuteJob(ctx, job.JobID, ExecuteOptions{UserID: config.UserID})
	if err != nil {
		return nil, newRunError(KindGeneration, "execute image job", err)
	}
	if jobResult == nil || len(jobResult.Results) == 0 {
		return nil, newRunError(KindGeneration, "execute image job", fmt.Errorf("job %s: %w", job.JobID, ErrNoResults))
	}
	imageURL := jobResult.Results[0].URL

	brief := job.Brief.Data()
	content, err := o.content.GenerateViralPostContent(ctx, brief, job.Prompts, GenerationOptions{
		Platform: config.PlatformOrDefault(),
		Tone:     tone,
		Goals:    []string{orDefault(postPlan.Goal, defaultGoal)},
	})
	if err != nil {
		return nil, newRunError(KindGeneration, "generate caption", err)
	}
	if content == nil {
		content = &PostContent{}
	}

	post := &models.ScheduledPost{
		PostID:       o.ids.NewID(),
		UserID:       config.UserID,
		Platform:     config.PlatformOrDefault(),
		ImageURL:     imageURL,
		Caption:      orDefault(content.Description, content.ShortCaption),
		Hashtags:     content.HashtagString,
		PostType:     models.ContentTypeFeed,
		Format:       orDefault(postPlan.Format, defaultFormat),
		Theme:        postPlan.Theme,
		ScheduledAt:  scheduledAt,
		Status:       models.PostStatusScheduled,
		ContentJobID: job.JobID,
	}
	if err := o.posts.CreatePost(ctx, post); err != nil {
		return nil, newRunError(KindPersistence, "create scheduled post", err)
	}

	o.logger.Info("Scheduled feed post",
		"chat_id", config.ChatID,
		"user_id", config.UserID,
		"post_id", post.PostID,
		"job_id", job.JobID,
		"scheduled_at", scheduledAt,
	)

	return &FeedPostResult{
		PostID:      post.PostID,
		ScheduledAt: scheduledAt,
		ImageURL:    imageURL,
		Caption:     post.Caption,
		Plan:        postPlan,
	}, nil
}

// CreateStory resolves the story's time and reports it as planned. Stories
// are not generated or published by the autopilot.
func (o *Orchestrator) CreateStory(_ context.Context, storyPlan StoryPlan, _ *models.AutopilotConfig) (*StoryResult, error) {
	scheduledAt, err := ParseTime(o.clock.Now(), storyPlan.Time)
	if err != nil {
		return nil, newRunError(KindSchedule, "resolve story time", err)
	}
	return &StoryResult{
		Type:        storyPlan.Type,
		ScheduledAt: scheduledAt,
		Status:      StoryStatusPlanned,
	}, nil
}
