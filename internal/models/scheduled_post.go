package models

import (
	"time"

	"gorm.io/gorm"
)

// ScheduledPost status constants
const (
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
	PostStatusCancelled = "cancelled"
)

// ScheduledPost is a generated post queued for publication. Engagement
// metrics are written later by the metrics consumer.
type ScheduledPost struct {
	gorm.Model
	PostID         string     `gorm:"uniqueIndex;not null"`
	UserID         string     `gorm:"not null;index"`
	Platform       string     `gorm:"not null"`
	ImageURL       string     `gorm:"type:text"`
	Caption        string     `gorm:"type:text"`
	Hashtags       string     `gorm:"type:text"`
	PostType       string     `gorm:"not null;default:'feed'"`
	Format         string     `gorm:"not null;default:'image'"`
	Theme          string     `gorm:"not null;default:''"`
	ScheduledAt    time.Time  `gorm:"not null;index"`
	Status         string     `gorm:"not null;default:'scheduled';index"`
	ContentJobID   string     `gorm:"column:content_job_id;index"`
	PublishedAt    *time.Time `gorm:"index"`
	Likes          int        `gorm:"not null;default:0"`
	Comments       int        `gorm:"not null;default:0"`
	Saves          int        `gorm:"not null;default:0"`
	Reach          int        `gorm:"not null;default:0"`
	EngagementRate *float64
}
