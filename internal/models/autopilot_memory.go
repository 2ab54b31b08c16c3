package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxContentHistory bounds the number of history entries kept on a memory record
const MaxContentHistory = 100

// History entry types
const (
	ContentTypeFeed  = "feed"
	ContentTypeStory = "story"
)

// BrandContext describes the account's visual and verbal identity
type BrandContext struct {
	VisualStyle    string `gorm:"not null;default:''" json:"visualStyle,omitempty"`
	Tone           string `gorm:"not null;default:''" json:"tone,omitempty"`
	TargetAudience string `gorm:"not null;default:''" json:"targetAudience,omitempty"`
}

// Performance is filled in after publication; an empty value is a placeholder
type Performance struct {
	EngagementRate *float64 `json:"engagementRate,omitempty"`
	Likes          int      `json:"likes,omitempty"`
	Comments       int      `json:"comments,omitempty"`
	Reach          int      `json:"reach,omitempty"`
}

// HistoryEntry records one piece of content the autopilot created
type HistoryEntry struct {
	Date        time.Time   `json:"date"`
	PostID      string      `json:"postId"`
	Type        string      `json:"type"`
	Format      string      `json:"format"`
	Theme       string      `json:"theme"`
	HookStyle   string      `json:"hookStyle"`
	Performance Performance `json:"performance"`
}

// AutopilotMemory is durable per-(user, chat) state carried across runs
type AutopilotMemory struct {
	gorm.Model
	UserID                string                            `gorm:"not null;uniqueIndex:idx_autopilot_memories_user_chat"`
	ChatID                string                            `gorm:"not null;uniqueIndex:idx_autopilot_memories_user_chat"`
	Brand                 BrandContext                      `gorm:"embedded;embeddedPrefix:brand_"`
	ContentHistory        datatypes.JSONSlice[HistoryEntry] `gorm:"column:content_history"`
	TotalPostsGenerated   int                               `gorm:"not null;default:0"`
	TotalStoriesGenerated int                               `gorm:"not null;default:0"`
	LastDecisionSummary   string                            `gorm:"type:text"`
	LastDecisionAt        *time.Time
}

// AppendHistory adds an entry to the end of the content history, dropping
// the oldest entries once MaxContentHistory is exceeded.
func (m *AutopilotMemory) AppendHistory(entry HistoryEntry) {
	m.ContentHistory = append(m.ContentHistory, entry)
	if over := len(m.ContentHistory) - MaxContentHistory; over > 0 {
		m.ContentHistory = append(m.ContentHistory[:0:0], m.ContentHistory[over:]...)
	}
}
