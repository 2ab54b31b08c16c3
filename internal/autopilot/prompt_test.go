package autopilot

import (
	"strings"
	"testing"

	"github.com/jimdaga/postpilot/internal/models"
)

func TestGenerateImagePromptDefaults(t *testing.T) {
	got := GenerateImagePrompt(FeedPostPlan{}, nil)

	want := "A lifestyle themed image for social media\n\n" +
		"Style: modern, clean, professional\n" +
		"Tone: friendly and engaging\n" +
		"Target audience: general social media users\n\n" +
		qualityTagline
	if got != want {
		t.Errorf("unexpected prompt:\n%s\nwant:\n%s", got, want)
	}
}

func TestGenerateImagePromptUsesPlanAndBrand(t *testing.T) {
	memory := &models.AutopilotMemory{Brand: models.BrandContext{
		VisualStyle:    "pastel flat illustration",
		TargetAudience: "indie developers",
	}}

	got := GenerateImagePrompt(FeedPostPlan{Theme: "coding", Format: "carousel"}, memory)
	if !strings.HasPrefix(got, "A coding themed carousel for social media\n") {
		t.Errorf("unexpected base sentence: %q", got)
	}
	for _, line := range []string{
		"Style: pastel flat illustration",
		"Tone: friendly and engaging",
		"Target audience: indie developers",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("prompt missing %q:\n%s", line, got)
		}
	}

	got = GenerateImagePrompt(FeedPostPlan{Theme: "coding", PromptSuggestion: "A laptop on a desk at sunrise"}, memory)
	if !strings.HasPrefix(got, "A laptop on a desk at sunrise\n") {
		t.Errorf("expected prompt suggestion as base, got %q", got)
	}
}
