package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jimdaga/postpilot/internal/autopilot"
	"github.com/redis/go-redis/v9"
)

// Publisher publishes autopilot run events to Redis Streams
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a new Publisher instance
func NewPublisher(redisURL string) (*Publisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return NewPublisherWithClient(redis.NewClient(opts)), nil
}

// NewPublisherWithClient wraps an existing client
func NewPublisherWithClient(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// PublishRunEvent implements autopilot.EventPublisher
func (p *Publisher) PublishRunEvent(ctx context.Context, event autopilot.RunEvent) error {
	_, err := p.publish(ctx, StreamAutopilotRuns, event)
	return err
}

// PublishPostMetrics publishes a metrics update; used by tooling and tests
// standing in for the publishing process.
func (p *Publisher) PublishPostMetrics(ctx context.Context, msg PostMetricsMessage) (string, error) {
	return p.publish(ctx, StreamPostMetrics, msg)
}

func (p *Publisher) publish(ctx context.Context, stream string, v interface{}) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload":        string(payload),
			"published_at":   time.Now().Unix(),
			"schema_version": SchemaVersionV1,
		},
	})

	if result.Err() != nil {
		return "", fmt.Errorf("failed to publish to %s: %w", stream, result.Err())
	}

	return result.Val(), nil
}

// Ping checks the Redis connection
func (p *Publisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// Close closes the Redis client connection
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
