package streams

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jimdaga/postpilot/internal/store"
)

// ErrDropMessage marks a handler failure that retrying cannot fix. The
// consumer acknowledges such messages instead of leaving them pending.
var ErrDropMessage = errors.New("drop message")

// MetricsUpdater applies engagement updates to scheduled posts
type MetricsUpdater interface {
	UpdatePostMetrics(ctx context.Context, m store.PostMetrics) error
}

// HandlePostMetrics returns a handler that writes metrics messages through updater
func HandlePostMetrics(updater MetricsUpdater) func(context.Context, PostMetricsMessage) error {
	return func(ctx context.Context, msg PostMetricsMessage) error {
		if msg.PostID == "" {
			return fmt.Errorf("%w: missing post_id", ErrDropMessage)
		}

		err := updater.UpdatePostMetrics(ctx, store.PostMetrics{
			PostID:         msg.PostID,
			Status:         msg.Status,
			PublishedAt:    msg.PublishedAt,
			Likes:          msg.Likes,
			Comments:       msg.Comments,
			Saves:          msg.Saves,
			Reach:          msg.Reach,
			EngagementRate: msg.EngagementRate,
		})
		if errors.Is(err, store.ErrPostNotFound) {
			return fmt.Errorf("%w: %v", ErrDropMessage, err)
		}
		if err != nil {
			return err
		}

		slog.Info("Post metrics updated",
			"post_id", msg.PostID,
			"status", msg.Status,
			"reach", msg.Reach,
		)
		return nil
	}
}
