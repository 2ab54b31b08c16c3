package autopilot

import "github.com/jimdaga/postpilot/internal/models"

// Metric names understood by CalculateTrend
const (
	MetricEngagement = "engagement"
	MetricReach      = "reach"
)

const minTrendPosts = 4

// CalculateTrend compares the newer half of posts (ordered newest first)
// against the older half. For odd counts the newer half is the smaller one.
// MetricEngagement sums likes and comments; any other metric uses reach.
func CalculateTrend(posts []models.ScheduledPost, metric string) Trend {
	if len(posts) < minTrendPosts {
		return TrendUnknown
	}

	mid := len(posts) / 2
	recentAvg := averageMetric(posts[:mid], metric)
	olderAvg := averageMetric(posts[mid:], metric)

	switch {
	case recentAvg > olderAvg*1.1:
		return TrendUp
	case recentAvg < olderAvg*0.9:
		return TrendDown
	default:
		return TrendFlat
	}
}

func averageMetric(posts []models.ScheduledPost, metric string) float64 {
	var total float64
	for _, p := range posts {
		if metric == MetricEngagement {
			total += float64(p.Likes + p.Comments)
		} else {
			total += float64(p.Reach)
		}
	}
	return total / float64(len(posts))
}

// Scored is anything that can be grouped by a named field and ranked by
// engagement.
type Scored interface {
	FieldValue(field string) string
	EngagementScore() float64
}

// GroupStats accumulates the score of one group
type GroupStats struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// Average is the mean score of the group.
func (g GroupStats) Average() float64 {
	if g.Count == 0 {
		return 0
	}
	return g.Total / float64(g.Count)
}

// FieldAnalysis is the result of AnalyzeByField
type FieldAnalysis struct {
	Best   string                `json:"best"`
	Groups map[string]GroupStats `json:"groups"`
}

// unknownGroup collects items with no value for the field
const unknownGroup = "unknown"

// AnalyzeByField groups items by field and picks the group with the highest
// mean score. Ties go to the group seen first. Best is empty when there are
// no items.
func AnalyzeByField[T Scored](items []T, field string) FieldAnalysis {
	groups := make(map[string]GroupStats)
	var order []string

	for _, item := range items {
		key := item.FieldValue(field)
		if key == "" {
			key = unknownGroup
		}
		g, seen := groups[key]
		if !seen {
			order = append(order, key)
		}
		g.Total += item.EngagementScore()
		g.Count++
		groups[key] = g
	}

	var best string
	var bestAvg float64
	for _, key := range order {
		avg := groups[key].Average()
		if best == "" || avg > bestAvg {
			best = key
			bestAvg = avg
		}
	}

	return FieldAnalysis{Best: best, Groups: groups}
}

// GetRate buckets value per count: above 5 is high, above 2 normal, else low.
// A zero count is low.
func GetRate(value, count int) Rate {
	if count == 0 {
		return RateLow
	}
	perItem := float64(value) / float64(count)
	switch {
	case perItem > 5:
		return RateHigh
	case perItem > 2:
		return RateNormal
	default:
		return RateLow
	}
}

// postItem adapts a published post to Scored
type postItem models.ScheduledPost

func (p postItem) FieldValue(field string) string {
	switch field {
	case "format":
		return p.Format
	case "theme":
		return p.Theme
	case "type":
		return p.PostType
	case "platform":
		return p.Platform
	}
	return ""
}

func (p postItem) EngagementScore() float64 {
	return preferRate(p.EngagementRate, p.Likes+p.Comments)
}

// historyItem adapts a content history entry to Scored
type historyItem models.HistoryEntry

func (h historyItem) FieldValue(field string) string {
	switch field {
	case "format":
		return h.Format
	case "theme":
		return h.Theme
	case "type":
		return h.Type
	case "hookStyle":
		return h.HookStyle
	}
	return ""
}

func (h historyItem) EngagementScore() float64 {
	return preferRate(h.Performance.EngagementRate, h.Performance.Likes+h.Performance.Comments)
}

// preferRate uses a recorded non-zero engagement rate, otherwise the raw
// interaction count.
func preferRate(rate *float64, interactions int) float64 {
	if rate != nil && *rate != 0 {
		return *rate
	}
	return float64(interactions)
}

func postItems(posts []models.ScheduledPost) []postItem {
	items := make([]postItem, len(posts))
	for i, p := range posts {
		items[i] = postItem(p)
	}
	return items
}

func historyItems(entries []models.HistoryEntry) []historyItem {
	items := make([]historyItem, len(entries))
	for i, e := range entries {
		items[i] = historyItem(e)
	}
	return items
}
