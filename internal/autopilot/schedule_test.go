package autopilot

import (
	"errors"
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	day := func(d, h, m int) time.Time { return time.Date(2026, 3, d, h, m, 0, 0, loc) }

	tests := []struct {
		name string
		now  time.Time
		in   string
		want time.Time
	}{
		{"later today", day(10, 8, 0), "09:00", day(10, 9, 0)},
		{"already passed", day(10, 10, 0), "09:00", day(11, 9, 0)},
		{"exactly now moves to tomorrow", day(10, 9, 0), "09:00", day(11, 9, 0)},
		{"seconds past the minute", time.Date(2026, 3, 10, 9, 0, 30, 0, loc), "09:00", day(11, 9, 0)},
		{"month rollover", time.Date(2026, 3, 31, 23, 0, 0, 0, loc), "06:15", time.Date(2026, 4, 1, 6, 15, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.now, tt.in)
			if err != nil {
				t.Fatalf("ParseTime: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTime(%s, %q) = %s, want %s", tt.now, tt.in, got, tt.want)
			}
			if got.Location() != loc {
				t.Errorf("expected location to be preserved, got %s", got.Location())
			}
		})
	}
}

func TestParseTimeRejectsMalformed(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	for _, in := range []string{"", "9", "25:00", "12:75", "noon", "10:00pm", "9:5xyz"} {
		if _, err := ParseTime(now, in); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("ParseTime(%q) error = %v, want ErrInvalidTime", in, err)
		}
	}
}
