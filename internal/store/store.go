// Package store persists autopilot state with GORM.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jimdaga/postpilot/internal/models"
	"gorm.io/gorm"
)

// Store implements the autopilot config, memory, post and job stores.
type Store struct {
	db *gorm.DB
}

// New wraps an open GORM connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the autopilot tables. Production uses the
// SQL migrations in the database package; this is for tests and tooling.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.AutopilotConfig{},
		&models.AutopilotMemory{},
		&models.ScheduledPost{},
		&models.ContentJob{},
	)
}

// ListActive returns enabled configs that are not paused at now, in id order.
func (s *Store) ListActive(ctx context.Context, now time.Time) ([]models.AutopilotConfig, error) {
	var configs []models.AutopilotConfig
	err := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Where("paused_until IS NULL OR paused_until < ?", now).
		Order("id ASC").
		Find(&configs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query active configs: %w", err)
	}
	return configs, nil
}

// GetConfig loads a config by primary key.
func (s *Store) GetConfig(ctx context.Context, id uint) (*models.AutopilotConfig, error) {
	var config models.AutopilotConfig
	if err := s.db.WithContext(ctx).First(&config, id).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig writes every field of the config.
func (s *Store) SaveConfig(ctx context.Context, config *models.AutopilotConfig) error {
	if err := s.db.WithContext(ctx).Save(config).Error; err != nil {
		return fmt.Errorf("failed to save config %d: %w", config.ID, err)
	}
	return nil
}

// FindMemory returns the memory for (userID, chatID), or nil when none exists.
func (s *Store) FindMemory(ctx context.Context, userID, chatID string) (*models.AutopilotMemory, error) {
	var memory models.AutopilotMemory
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND chat_id = ?", userID, chatID).
		First(&memory).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find memory: %w", err)
	}
	return &memory, nil
}

// CreateMemory inserts a new memory record.
func (s *Store) CreateMemory(ctx context.Context, memory *models.AutopilotMemory) error {
	if err := s.db.WithContext(ctx).Create(memory).Error; err != nil {
		return fmt.Errorf("failed to create memory: %w", err)
	}
	return nil
}

// SaveMemory writes every field of the memory, including its history.
func (s *Store) SaveMemory(ctx context.Context, memory *models.AutopilotMemory) error {
	if err := s.db.WithContext(ctx).Save(memory).Error; err != nil {
		return fmt.Errorf("failed to save memory %d: %w", memory.ID, err)
	}
	return nil
}

// RecentPublished returns up to limit published posts for a user since the
// given time, newest first.
func (s *Store) RecentPublished(ctx context.Context, userID string, since time.Time, limit int) ([]models.ScheduledPost, error) {
	var posts []models.ScheduledPost
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND published_at >= ?", userID, models.PostStatusPublished, since).
		Order("published_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query published posts: %w", err)
	}
	return posts, nil
}

// CreatePost inserts a scheduled post.
func (s *Store) CreatePost(ctx context.Context, post *models.ScheduledPost) error {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create scheduled post: %w", err)
	}
	return nil
}

// CreateJob inserts a content job.
func (s *Store) CreateJob(ctx context.Context, job *models.ContentJob) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create content job: %w", err)
	}
	return nil
}
