package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jimdaga/postpilot/internal/autopilot"
	"github.com/jimdaga/postpilot/internal/models"
)

// Analytics computes the autopilot dashboard from stored post metrics. It
// is used when no external analytics service is configured.
type Analytics struct {
	store *Store
	now   func() time.Time
}

// NewAnalytics builds a DB-backed analytics source.
func NewAnalytics(s *Store) *Analytics {
	return &Analytics{store: s, now: time.Now}
}

type overviewRow struct {
	TotalPosts        int
	TotalComments     int
	TotalSaves        int
	TotalReach        int
	AvgEngagementRate *float64
}

// GetDashboard aggregates the user's published posts over the last windowDays.
func (a *Analytics) GetDashboard(ctx context.Context, userID string, windowDays int) (*autopilot.Dashboard, error) {
	since := a.now().AddDate(0, 0, -windowDays)

	var row overviewRow
	err := a.store.db.WithContext(ctx).
		Model(&models.ScheduledPost{}).
		Select("COUNT(*) AS total_posts, "+
			"COALESCE(SUM(comments), 0) AS total_comments, "+
			"COALESCE(SUM(saves), 0) AS total_saves, "+
			"COALESCE(SUM(reach), 0) AS total_reach, "+
			"AVG(engagement_rate) AS avg_engagement_rate").
		Where("user_id = ? AND status = ? AND published_at >= ?", userID, models.PostStatusPublished, since).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate dashboard: %w", err)
	}

	overview := autopilot.DashboardOverview{
		TotalPosts:    row.TotalPosts,
		TotalComments: row.TotalComments,
		TotalSaves:    row.TotalSaves,
		TotalReach:    row.TotalReach,
	}
	if row.AvgEngagementRate != nil {
		overview.AvgEngagementRate = *row.AvgEngagementRate
	}
	return &autopilot.Dashboard{Overview: overview}, nil
}
