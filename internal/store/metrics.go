package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jimdaga/postpilot/internal/models"
	"gorm.io/gorm"
)

// ErrPostNotFound is returned when a metrics update names an unknown post.
var ErrPostNotFound = errors.New("scheduled post not found")

// PostMetrics is an engagement update for a scheduled post
type PostMetrics struct {
	PostID         string
	Status         string
	PublishedAt    *time.Time
	Likes          int
	Comments       int
	Saves          int
	Reach          int
	EngagementRate *float64
}

// UpdatePostMetrics applies an engagement update. A published status also
// moves the post to published, defaulting publishedAt to now. The same
// numbers are copied onto the matching memory history entries so theme
// ranking sees real performance.
func (s *Store) UpdatePostMetrics(ctx context.Context, m PostMetrics) error {
	var post models.ScheduledPost
	if err := s.db.WithContext(ctx).Where("post_id = ?", m.PostID).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrPostNotFound, m.PostID)
		}
		return fmt.Errorf("failed to find scheduled post: %w", err)
	}

	updates := map[string]interface{}{
		"likes":           m.Likes,
		"comments":        m.Comments,
		"saves":           m.Saves,
		"reach":           m.Reach,
		"engagement_rate": m.EngagementRate,
	}

	switch m.Status {
	case "":
	case models.PostStatusPublished:
		updates["status"] = models.PostStatusPublished
		publishedAt := time.Now()
		if m.PublishedAt != nil {
			publishedAt = *m.PublishedAt
		} else if post.PublishedAt != nil {
			publishedAt = *post.PublishedAt
		}
		updates["published_at"] = publishedAt
	case models.PostStatusFailed, models.PostStatusCancelled, models.PostStatusScheduled:
		updates["status"] = m.Status
	default:
		return fmt.Errorf("unknown post status: %s", m.Status)
	}

	perf := models.Performance{
		EngagementRate: m.EngagementRate,
		Likes:          m.Likes,
		Comments:       m.Comments,
		Reach:          m.Reach,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&post).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update post metrics: %w", err)
		}
		_, err := updateHistoryPerformance(tx, post.UserID, post.PostID, perf)
		return err
	})
}

// UpdateHistoryPerformance copies perf onto every memory history entry for
// userID whose PostID matches. Returns the number of entries updated.
func (s *Store) UpdateHistoryPerformance(ctx context.Context, userID, postID string, perf models.Performance) (int, error) {
	return updateHistoryPerformance(s.db.WithContext(ctx), userID, postID, perf)
}

func updateHistoryPerformance(db *gorm.DB, userID, postID string, perf models.Performance) (int, error) {
	var memories []models.AutopilotMemory
	if err := db.Where("user_id = ?", userID).Find(&memories).Error; err != nil {
		return 0, fmt.Errorf("failed to load memories for %s: %w", userID, err)
	}

	updated := 0
	for i := range memories {
		mem := &memories[i]
		changed := false
		for j := range mem.ContentHistory {
			if mem.ContentHistory[j].PostID == postID {
				mem.ContentHistory[j].Performance = perf
				changed = true
				updated++
			}
		}
		if !changed {
			continue
		}
		if err := db.Model(mem).Update("content_history", mem.ContentHistory).Error; err != nil {
			return 0, fmt.Errorf("failed to update history performance: %w", err)
		}
	}
	return updated, nil
}
