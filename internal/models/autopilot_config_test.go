package models

import (
	"testing"
	"time"
)

func TestInQuietHours(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name       string
		start, end string
		now        time.Time
		want       bool
	}{
		{"unset", "", "", at(3, 0), false},
		{"only start set", "22:00", "", at(23, 0), false},
		{"inside same-day window", "12:00", "14:00", at(13, 15), true},
		{"end is exclusive", "12:00", "14:00", at(14, 0), false},
		{"start is inclusive", "12:00", "14:00", at(12, 0), true},
		{"before overnight window", "22:00", "07:00", at(21, 59), false},
		{"late in overnight window", "22:00", "07:00", at(23, 30), true},
		{"early in overnight window", "22:00", "07:00", at(6, 59), true},
		{"after overnight window", "22:00", "07:00", at(7, 0), false},
		{"empty window", "09:00", "09:00", at(9, 0), false},
		{"malformed", "late", "07:00", at(3, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := AutopilotConfig{QuietHoursStart: tt.start, QuietHoursEnd: tt.end}
			if got := c.InQuietHours(tt.now); got != tt.want {
				t.Errorf("InQuietHours(%s) with [%q, %q) = %v, want %v", tt.now.Format("15:04"), tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestPlatformOrDefault(t *testing.T) {
	c := AutopilotConfig{}
	if got := c.PlatformOrDefault(); got != "instagram" {
		t.Errorf("expected instagram default, got %q", got)
	}
	c.Platform = "tiktok"
	if got := c.PlatformOrDefault(); got != "tiktok" {
		t.Errorf("expected tiktok, got %q", got)
	}
}

func TestAppendHistoryIsBounded(t *testing.T) {
	m := AutopilotMemory{}
	for i := 0; i < MaxContentHistory+5; i++ {
		m.AppendHistory(HistoryEntry{PostID: string(rune('a' + i%26)), Theme: "t", Date: time.Unix(int64(i), 0)})
	}

	if len(m.ContentHistory) != MaxContentHistory {
		t.Fatalf("history length = %d, want %d", len(m.ContentHistory), MaxContentHistory)
	}
	if got := m.ContentHistory[0].Date.Unix(); got != 5 {
		t.Errorf("oldest retained entry = %d, want 5", got)
	}
	for i := 1; i < len(m.ContentHistory); i++ {
		if m.ContentHistory[i].Date.Before(m.ContentHistory[i-1].Date) {
			t.Fatalf("history out of order at %d", i)
		}
	}
}

func TestMinuteOfDay(t *testing.T) {
	valid := map[string]int{"00:00": 0, "9:05": 545, "09:05": 545, "23:59": 1439}
	for in, want := range valid {
		got, err := MinuteOfDay(in)
		if err != nil || got != want {
			t.Errorf("MinuteOfDay(%q) = %d, %v; want %d", in, got, err, want)
		}
	}

	for _, in := range []string{"", "9", "10:00pm", "9:5xyz", "9:5", "24:00", "12:60", "+1:00", "-1:30", "1:2:3", " 9:00"} {
		if _, err := MinuteOfDay(in); err == nil {
			t.Errorf("MinuteOfDay(%q) should fail", in)
		}
	}
}
