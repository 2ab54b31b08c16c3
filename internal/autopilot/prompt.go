package autopilot

import (
	"fmt"
	"strings"

	"github.com/jimdaga/postpilot/internal/models"
)

const (
	defaultTheme          = "lifestyle"
	defaultFormat         = "image"
	defaultVisualStyle    = "modern, clean, professional"
	defaultBrandTone      = "friendly and engaging"
	defaultTargetAudience = "general social media users"
	qualityTagline        = "High quality, visually striking, optimized for social media engagement."
)

// GenerateImagePrompt builds the image prompt for a feed post from the plan
// and the brand context in memory.
func GenerateImagePrompt(plan FeedPostPlan, memory *models.AutopilotMemory) string {
	base := plan.PromptSuggestion
	if base == "" {
		base = fmt.Sprintf("A %s themed %s for social media",
			orDefault(plan.Theme, defaultTheme), orDefault(plan.Format, defaultFormat))
	}

	var brand models.BrandContext
	if memory != nil {
		brand = memory.Brand
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Style: %s\n", orDefault(brand.VisualStyle, defaultVisualStyle))
	fmt.Fprintf(&b, "Tone: %s\n", orDefault(brand.Tone, defaultBrandTone))
	fmt.Fprintf(&b, "Target audience: %s\n", orDefault(brand.TargetAudience, defaultTargetAudience))
	b.WriteString("\n")
	b.WriteString(qualityTagline)
	return b.String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
