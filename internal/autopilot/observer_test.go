package autopilot

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/jimdaga/postpilot/internal/models"
)

func TestObserveAccountFallbackOnAnalyticsError(t *testing.T) {
	h := newHarness()
	h.analytics.err = errors.New("analytics unavailable")

	got := h.orch.ObserveAccount(context.Background(), "user-1", &models.AutopilotMemory{})
	if !reflect.DeepEqual(got, FallbackObservations()) {
		t.Fatalf("expected fallback snapshot, got %+v", got)
	}

	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"engagementTrend":"unknown","reachTrend":"unknown","avgEngagementRate":0,"bestFormat":"image","bestTheme":"educational"}`
	if string(raw) != want {
		t.Errorf("fallback JSON = %s, want %s", raw, want)
	}
}

func TestObserveAccountFallbackOnPostStoreError(t *testing.T) {
	h := newHarness()
	h.analytics.dashboard = &Dashboard{Overview: DashboardOverview{TotalPosts: 3}}
	h.store.publishedErr = errors.New("connection reset")

	got := h.orch.ObserveAccount(context.Background(), "user-1", nil)
	if got.TotalPosts != nil || got.CommentRate != nil || got.SaveRate != nil || got.TotalReach != nil {
		t.Errorf("fallback must omit rates and totals, got %+v", got)
	}
	if got.BestTheme != "educational" || got.BestFormat != "image" {
		t.Errorf("unexpected fallback bests: %+v", got)
	}
}

func TestObserveAccountComputesSnapshot(t *testing.T) {
	h := newHarness()
	h.analytics.dashboard = &Dashboard{Overview: DashboardOverview{
		AvgEngagementRate: 4.2,
		TotalComments:     24,
		TotalSaves:        6,
		TotalPosts:        4,
		TotalReach:        5000,
	}}
	h.store.published = []models.ScheduledPost{
		{Format: "carousel", Likes: 40, Reach: 900},
		{Format: "carousel", Likes: 30, Reach: 800},
		{Format: "image", Likes: 5, Reach: 1000},
		{Format: "image", Likes: 5, Reach: 1100},
	}
	memory := &models.AutopilotMemory{ContentHistory: []models.HistoryEntry{
		{Theme: "tips", Performance: models.Performance{Likes: 3}},
		{Theme: "behind-the-scenes", Performance: models.Performance{Likes: 12}},
	}}

	got := h.orch.ObserveAccount(context.Background(), "user-1", memory)

	if got.EngagementTrend != TrendUp {
		t.Errorf("engagementTrend = %s, want up", got.EngagementTrend)
	}
	if got.ReachTrend != TrendDown {
		t.Errorf("reachTrend = %s, want down", got.ReachTrend)
	}
	if got.AvgEngagementRate != 4.2 {
		t.Errorf("avgEngagementRate = %v, want 4.2", got.AvgEngagementRate)
	}
	if got.BestFormat != "carousel" {
		t.Errorf("bestFormat = %s, want carousel", got.BestFormat)
	}
	if got.BestTheme != "behind-the-scenes" {
		t.Errorf("bestTheme = %s, want behind-the-scenes", got.BestTheme)
	}
	if got.CommentRate == nil || *got.CommentRate != RateHigh {
		t.Errorf("commentRate = %v, want high", got.CommentRate)
	}
	if got.SaveRate == nil || *got.SaveRate != RateLow {
		t.Errorf("saveRate = %v, want low", got.SaveRate)
	}
	if got.TotalPosts == nil || *got.TotalPosts != 4 {
		t.Errorf("totalPosts = %v, want 4", got.TotalPosts)
	}
	if got.TotalReach == nil || *got.TotalReach != 5000 {
		t.Errorf("totalReach = %v, want 5000", got.TotalReach)
	}
}

func TestObserveAccountEmptyDataDefaults(t *testing.T) {
	h := newHarness()

	got := h.orch.ObserveAccount(context.Background(), "user-1", &models.AutopilotMemory{})

	if got.EngagementTrend != TrendUnknown || got.ReachTrend != TrendUnknown {
		t.Errorf("expected unknown trends with no posts, got %+v", got)
	}
	if got.TotalPosts == nil || *got.TotalPosts != 0 {
		t.Errorf("totalPosts should be present and zero, got %v", got.TotalPosts)
	}
	if got.CommentRate == nil || *got.CommentRate != RateLow {
		t.Errorf("commentRate should be low for zero posts, got %v", got.CommentRate)
	}
}
