package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jimdaga/postpilot/internal/autopilot"
	"github.com/jimdaga/postpilot/internal/models"
)

type fakeGenerator struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	f.lastSystem = system
	f.lastPrompt = prompt
	return f.response, f.err
}

const validPlan = `{
  "feedPosts": [{"time": "18:30", "format": "carousel", "theme": "tips", "hookStyle": "question", "goal": "saves"}],
  "stories": [{"time": "12:00", "type": "poll"}],
  "reasoning": "carousels drive saves"
}`

func TestParsePlan(t *testing.T) {
	v, err := NewPlanValidator()
	if err != nil {
		t.Fatalf("NewPlanValidator() error = %v", err)
	}

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", validPlan, false},
		{"fenced", "```json\n" + validPlan + "\n```", false},
		{"empty lists", `{"feedPosts": [], "stories": [], "reasoning": "rest day"}`, false},
		{"missing reasoning", `{"feedPosts": []}`, true},
		{"bad time", `{"feedPosts": [{"time": "six pm"}], "reasoning": "x"}`, true},
		{"story without type", `{"stories": [{"time": "10:00"}], "reasoning": "x"}`, true},
		{"not json", "I think you should post a reel", true},
		{"empty", "  ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := v.ParsePlan(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPlan) {
					t.Errorf("ParsePlan() error = %v, want ErrInvalidPlan", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePlan() error = %v", err)
			}
			if plan.Reasoning == "" {
				t.Error("ParsePlan() lost reasoning")
			}
		})
	}
}

func TestDecideDailyPlan(t *testing.T) {
	gen := &fakeGenerator{response: validPlan}
	a, err := New(gen, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	config := &models.AutopilotConfig{
		UserID:      "u1",
		ChatID:      "c1",
		Permissions: models.Permissions{AutoPost: true, AutoStory: true},
	}
	plan, err := a.DecideDailyPlan(context.Background(), autopilot.FallbackObservations(), &models.AutopilotMemory{}, config)
	if err != nil {
		t.Fatalf("DecideDailyPlan() error = %v", err)
	}

	if len(plan.FeedPosts) != 1 || plan.FeedPosts[0].Format != "carousel" {
		t.Errorf("feed posts = %+v", plan.FeedPosts)
	}
	if len(plan.Stories) != 1 || plan.Stories[0].Type != "poll" {
		t.Errorf("stories = %+v", plan.Stories)
	}
	if gen.lastSystem != systemInstruction {
		t.Error("system instruction not passed to generator")
	}
	if !strings.Contains(gen.lastPrompt, `"bestTheme": "educational"`) {
		t.Errorf("prompt missing observations:\n%s", gen.lastPrompt)
	}
}

func TestDecideDailyPlanDropsUnpermittedContent(t *testing.T) {
	a, err := New(&fakeGenerator{response: validPlan}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	config := &models.AutopilotConfig{Permissions: models.Permissions{AutoPost: true}}
	plan, err := a.DecideDailyPlan(context.Background(), autopilot.FallbackObservations(), nil, config)
	if err != nil {
		t.Fatalf("DecideDailyPlan() error = %v", err)
	}
	if len(plan.FeedPosts) != 1 {
		t.Errorf("feed posts = %d, want 1", len(plan.FeedPosts))
	}
	if plan.Stories != nil {
		t.Errorf("stories = %+v, want none without story permission", plan.Stories)
	}
}

func TestDecideDailyPlanErrors(t *testing.T) {
	genErr := errors.New("quota exceeded")
	a, _ := New(&fakeGenerator{err: genErr}, nil)
	if _, err := a.DecideDailyPlan(context.Background(), autopilot.FallbackObservations(), nil, nil); !errors.Is(err, genErr) {
		t.Errorf("error = %v, want wrapped generator error", err)
	}

	a, _ = New(&fakeGenerator{response: `{"feedPosts": "lots"}`}, nil)
	if _, err := a.DecideDailyPlan(context.Background(), autopilot.FallbackObservations(), nil, nil); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("error = %v, want ErrInvalidPlan", err)
	}

	if _, err := New(nil, nil); err == nil {
		t.Error("New(nil) should fail")
	}
}

func TestBuildPromptIncludesRecentHistory(t *testing.T) {
	memory := &models.AutopilotMemory{
		Brand:               models.BrandContext{VisualStyle: "pastel", TargetAudience: "new parents"},
		LastDecisionSummary: "try more reels",
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		memory.AppendHistory(models.HistoryEntry{
			Date:   base.AddDate(0, 0, i),
			Type:   models.ContentTypeFeed,
			Format: "image",
			Theme:  "tips",
		})
	}

	prompt, err := BuildPrompt(autopilot.FallbackObservations(), memory, &models.AutopilotConfig{Preferences: models.ContentPreferences{Tone: "warm"}})
	if err != nil {
		t.Fatalf("BuildPrompt() error = %v", err)
	}

	for _, want := range []string{"visual style: pastel", "audience: new parents", "Preferred tone: warm", "try more reels", "2026-01-15", "Platform: instagram"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "2026-01-05") {
		t.Error("prompt should only include the most recent history entries")
	}
	if got := strings.Count(prompt, "feed image/tips"); got != recentHistoryLimit {
		t.Errorf("history lines = %d, want %d", got, recentHistoryLimit)
	}
}
