package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Run result values recorded on AutopilotConfig.LastRunResult
const (
	RunResultSuccess = "success"
	RunResultPartial = "partial"
	RunResultFailed  = "failed"
)

// DefaultPlatform is used when a config does not name a platform
const DefaultPlatform = "instagram"

// Permissions gates which kinds of content the autopilot may create
type Permissions struct {
	AutoPost  bool `gorm:"not null;default:false"`
	AutoStory bool `gorm:"not null;default:false"`
}

// ContentPreferences holds per-account content settings
type ContentPreferences struct {
	Tone string `gorm:"not null;default:''"`
}

// AutopilotConfig controls whether, when and how the autopilot runs for one (user, chat) pair
type AutopilotConfig struct {
	gorm.Model
	UserID          string             `gorm:"not null;uniqueIndex:idx_autopilot_configs_user_chat"`
	ChatID          string             `gorm:"not null;uniqueIndex:idx_autopilot_configs_user_chat"`
	Enabled         bool               `gorm:"not null;default:false;index"`
	PausedUntil     *time.Time         `gorm:"index"`
	Permissions     Permissions        `gorm:"embedded;embeddedPrefix:perm_"`
	Platform        string             `gorm:"not null;default:'instagram'"`
	Preferences     ContentPreferences `gorm:"embedded;embeddedPrefix:pref_"`
	QuietHoursStart string             `gorm:"column:quiet_hours_start;not null;default:''"` // "HH:MM"
	QuietHoursEnd   string             `gorm:"column:quiet_hours_end;not null;default:''"`   // "HH:MM"
	LastRunAt       *time.Time
	LastRunResult   string             `gorm:"not null;default:''"`
	LastRunSummary  string             `gorm:"type:text"`
}

// PlatformOrDefault returns the configured platform, falling back to instagram.
func (c *AutopilotConfig) PlatformOrDefault() string {
	if c.Platform == "" {
		return DefaultPlatform
	}
	return c.Platform
}

// InQuietHours reports whether now falls inside the configured quiet window.
// The window is [start, end) and wraps midnight when start is after end.
// An unset or malformed window is never quiet.
func (c *AutopilotConfig) InQuietHours(now time.Time) bool {
	if c.QuietHoursStart == "" || c.QuietHoursEnd == "" {
		return false
	}
	start, err := MinuteOfDay(c.QuietHoursStart)
	if err != nil {
		return false
	}
	end, err := MinuteOfDay(c.QuietHoursEnd)
	if err != nil {
		return false
	}
	if start == end {
		return false
	}

	current := now.Hour()*60 + now.Minute()
	if start < end {
		return current >= start && current < end
	}
	return current >= start || current < end
}

// MinuteOfDay parses a 24-hour "HH:MM" (or "H:MM") string into minutes
// since midnight. The whole string must match.
func MinuteOfDay(hhmm string) (int, error) {
	h, m, ok := strings.Cut(hhmm, ":")
	if !ok || len(h) < 1 || len(h) > 2 || len(m) != 2 || !isDigits(h) || !isDigits(m) {
		return 0, fmt.Errorf("invalid time of day %q", hhmm)
	}
	hour, _ := strconv.Atoi(h)
	minute, _ := strconv.Atoi(m)
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("time of day out of range: %q", hhmm)
	}
	return hour*60 + minute, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
