package autopilot

import (
	"context"
	"fmt"
	"time"

	"github.com/jimdaga/postpilot/internal/models"
)

const (
	observationWindowDays = 7
	recentPostLimit       = 10

	fallbackBestFormat = "image"
	fallbackBestTheme  = "educational"
)

// FallbackObservations is the neutral snapshot used when observation fails.
// Rates and totals are left unset.
func FallbackObservations() Observations {
	return Observations{
		EngagementTrend:   TrendUnknown,
		ReachTrend:        TrendUnknown,
		AvgEngagementRate: 0,
		BestFormat:        fallbackBestFormat,
		BestTheme:         fallbackBestTheme,
	}
}

// ObserveAccount builds the feature snapshot for a user from the last week
// of analytics and published posts. Any failure yields FallbackObservations.
func (o *Orchestrator) ObserveAccount(ctx context.Context, userID string, memory *models.AutopilotMemory) Observations {
	obs, err := o.observe(ctx, userID, memory)
	if err != nil {
		o.logger.Warn("Observation failed, using fallback snapshot",
			"user_id", userID,
			"error", err.Error(),
		)
		return FallbackObservations()
	}
	return obs
}

func (o *Orchestrator) observe(ctx context.Context, userID string, memory *models.AutopilotMemory) (obs Observations, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newRunError(KindObservation, "observe account", fmt.Errorf("panic: %v", r))
		}
	}()

	dashboard, err := o.analytics.GetDashboard(ctx, userID, observationWindowDays)
	if err != nil {
		return Observations{}, newRunError(KindObservation, "get dashboard", err)
	}
	if dashboard == nil {
		dashboard = &Dashboard{}
	}

	since := o.clock.Now().Add(-observationWindowDays * 24 * time.Hour)
	posts, err := o.posts.RecentPublished(ctx, userID, since, recentPostLimit)
	if err != nil {
		return Observations{}, newRunError(KindObservation, "load recent posts", err)
	}

	var history []models.HistoryEntry
	if memory != nil {
		history = memory.ContentHistory
	}

	overview := dashboard.Overview
	commentRate := GetRate(overview.TotalComments, overview.TotalPosts)
	saveRate := GetRate(overview.TotalSaves, overview.TotalPosts)
	totalPosts := overview.TotalPosts
	totalReach := overview.TotalReach

	return Observations{
		EngagementTrend:   CalculateTrend(posts, MetricEngagement),
		ReachTrend:        CalculateTrend(posts, MetricReach),
		AvgEngagementRate: overview.AvgEngagementRate,
		BestFormat:        orDefault(AnalyzeByField(postItems(posts), "format").Best, fallbackBestFormat),
		BestTheme:         orDefault(AnalyzeByField(historyItems(history), "theme").Best, fallbackBestTheme),
		CommentRate:       &commentRate,
		SaveRate:          &saveRate,
		TotalPosts:        &totalPosts,
		TotalReach:        &totalReach,
	}, nil
}
