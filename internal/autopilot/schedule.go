package autopilot

import (
	"fmt"
	"time"

	"github.com/jimdaga/postpilot/internal/models"
)

// ParseTime resolves a 24-hour "HH:MM" plan time to the next instant at or
// after now with that wall-clock time, in now's location. A time at or
// before now moves to the following day.
func ParseTime(now time.Time, timeStr string) (time.Time, error) {
	minutes, err := models.MinuteOfDay(timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTime, err)
	}

	t := time.Date(now.Year(), now.Month(), now.Day(), minutes/60, minutes%60, 0, 0, now.Location())
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}
