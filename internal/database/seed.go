package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jimdaga/postpilot/internal/models"
	"gorm.io/gorm"
)

const (
	seedUserID = "dev-user"
	seedChatID = "dev-chat"
)

// SeedDevData creates an enabled autopilot config, its memory and a week
// of published posts for local development. Idempotent: skips if the dev
// config already exists.
func SeedDevData(db *gorm.DB) error {
	var existing models.AutopilotConfig
	result := db.Where("user_id = ? AND chat_id = ?", seedUserID, seedChatID).First(&existing)
	if result.Error == nil {
		slog.Info("Seed data already exists, skipping")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		config := models.AutopilotConfig{
			UserID:          seedUserID,
			ChatID:          seedChatID,
			Enabled:         true,
			Permissions:     models.Permissions{AutoPost: true, AutoStory: true},
			Platform:        models.DefaultPlatform,
			Preferences:     models.ContentPreferences{Tone: "playful"},
			QuietHoursStart: "23:00",
			QuietHoursEnd:   "06:00",
		}
		if err := tx.Create(&config).Error; err != nil {
			return fmt.Errorf("failed to seed config: %w", err)
		}

		now := time.Now().UTC()
		rate := func(v float64) *float64 { return &v }

		memory := models.AutopilotMemory{
			UserID: seedUserID,
			ChatID: seedChatID,
			Brand: models.BrandContext{
				VisualStyle:    "bright flat colors, bold typography",
				Tone:           "playful and encouraging",
				TargetAudience: "home bakers",
			},
		}
		memory.AppendHistory(models.HistoryEntry{
			Date: now.AddDate(0, 0, -5), PostID: "seed-history-1", Type: models.ContentTypeFeed,
			Format: "carousel", Theme: "educational", HookStyle: "question",
			Performance: models.Performance{EngagementRate: rate(5.1)},
		})
		memory.AppendHistory(models.HistoryEntry{
			Date: now.AddDate(0, 0, -3), PostID: "seed-history-2", Type: models.ContentTypeFeed,
			Format: "image", Theme: "behind_the_scenes", HookStyle: "story",
			Performance: models.Performance{EngagementRate: rate(3.4)},
		})
		memory.TotalPostsGenerated = 2
		if err := tx.Create(&memory).Error; err != nil {
			return fmt.Errorf("failed to seed memory: %w", err)
		}

		formats := []string{"carousel", "image", "carousel", "image", "reel", "image"}
		for i, format := range formats {
			publishedAt := now.Add(-time.Duration(i+1) * 20 * time.Hour)
			post := models.ScheduledPost{
				PostID:         uuid.NewString(),
				UserID:         seedUserID,
				Platform:       models.DefaultPlatform,
				ImageURL:       fmt.Sprintf("https://picsum.photos/seed/%d/1080/1080", i),
				Caption:        "Seeded post",
				PostType:       models.ContentTypeFeed,
				Format:         format,
				ScheduledAt:    publishedAt,
				Status:         models.PostStatusPublished,
				PublishedAt:    &publishedAt,
				Likes:          120 - i*12,
				Comments:       14 - i,
				Saves:          6,
				Reach:          2400 - i*150,
				EngagementRate: rate(5.5 - float64(i)*0.4),
			}
			if err := tx.Create(&post).Error; err != nil {
				return fmt.Errorf("failed to seed post: %w", err)
			}
		}

		slog.Info("Seeded dev data", "configs", 1, "memories", 1, "posts", len(formats))
		return nil
	})
}
