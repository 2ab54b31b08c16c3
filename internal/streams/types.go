// Package streams connects the autopilot to Redis Streams: run events are
// published for downstream consumers and post-metrics updates from the
// publishing process are consumed into the store.
package streams

import "time"

// Stream name constants
const (
	StreamAutopilotRuns = "autopilot:runs"
	StreamPostMetrics   = "autopilot:post-metrics"
)

// Consumer group constants
const (
	GroupAutopilotWorkers = "autopilot-workers"
)

// Schema version constant
const (
	SchemaVersionV1 = "v1"
)

// streamMaxLen caps stream length on publish (approximate trim)
const streamMaxLen = 10000

// PostMetricsMessage is an engagement update emitted after publication
type PostMetricsMessage struct {
	PostID         string     `json:"post_id"`
	Status         string     `json:"status,omitempty"` // published/failed/cancelled, empty for metrics only
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	Likes          int        `json:"likes"`
	Comments       int        `json:"comments"`
	Saves          int        `json:"saves"`
	Reach          int        `json:"reach"`
	EngagementRate *float64   `json:"engagement_rate,omitempty"`
}
