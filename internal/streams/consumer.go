package streams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// defaultBlock is how long one XReadGroup call waits for new messages
	defaultBlock = 5 * time.Second
	// defaultClaimIdle is how long another consumer's entry must sit
	// unacknowledged before this consumer takes it over
	defaultClaimIdle = 5 * time.Minute
	batchSize        = 10
)

// DefaultConsumerName is stable across restarts so pending entries are
// found again by the next process.
const DefaultConsumerName = "autopilot-metrics"

// MetricsConsumer consumes post-metrics updates from Redis Streams
type MetricsConsumer struct {
	rdb          *redis.Client
	groupName    string
	consumerName string
	block        time.Duration
	claimIdle    time.Duration
}

// NewMetricsConsumer creates a consumer and its group on the metrics stream
func NewMetricsConsumer(redisURL, consumerName string) (*MetricsConsumer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	// Read timeout must exceed the XReadGroup block duration
	opts.ReadTimeout = 2 * defaultBlock

	return NewMetricsConsumerWithClient(context.Background(), redis.NewClient(opts), consumerName)
}

// NewMetricsConsumerWithClient creates the consumer group on an existing client
func NewMetricsConsumerWithClient(ctx context.Context, rdb *redis.Client, consumerName string) (*MetricsConsumer, error) {
	// Start ID "0" reads the whole stream when the group is new
	err := rdb.XGroupCreateMkStream(ctx, StreamPostMetrics, GroupAutopilotWorkers, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &MetricsConsumer{
		rdb:          rdb,
		groupName:    GroupAutopilotWorkers,
		consumerName: consumerName,
		block:        defaultBlock,
		claimIdle:    defaultClaimIdle,
	}, nil
}

// Consume runs a blocking loop until ctx is cancelled. Entries left
// pending by an earlier run are retried first.
func (c *MetricsConsumer) Consume(ctx context.Context, handler func(context.Context, PostMetricsMessage) error) error {
	if _, err := c.ReplayPending(ctx, handler); err != nil && ctx.Err() == nil {
		slog.Error("Failed to replay pending metrics", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := c.Poll(ctx, ">", handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Failed to read from stream", "error", err)
			time.Sleep(time.Second)
		}
	}
}

// ReplayPending takes over entries other consumers left idle, then walks
// this consumer's whole pending list once. Entries whose handler fails
// again stay pending. Returns how many entries were acknowledged.
func (c *MetricsConsumer) ReplayPending(ctx context.Context, handler func(context.Context, PostMetricsMessage) error) (int, error) {
	if err := c.claimStale(ctx); err != nil {
		return 0, err
	}

	total := 0
	start := "0"
	for {
		acked, lastID, err := c.read(ctx, start, handler)
		total += acked
		if err != nil {
			return total, err
		}
		if lastID == "" {
			return total, nil
		}
		start = lastID
	}
}

// claimStale moves entries idle longer than claimIdle into this consumer's
// pending list
func (c *MetricsConsumer) claimStale(ctx context.Context) error {
	start := "0-0"
	for {
		_, next, err := c.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   StreamPostMetrics,
			Group:    c.groupName,
			Consumer: c.consumerName,
			MinIdle:  c.claimIdle,
			Start:    start,
			Count:    batchSize,
		}).Result()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("failed to claim stale metrics: %w", err)
		}
		if next == "" || next == "0-0" {
			return nil
		}
		start = next
	}
}

// Poll reads one batch starting at id (">" for new messages, an entry ID
// for this consumer's pending ones after it) and returns how many messages
// were acknowledged.
func (c *MetricsConsumer) Poll(ctx context.Context, id string, handler func(context.Context, PostMetricsMessage) error) (int, error) {
	acked, _, err := c.read(ctx, id, handler)
	return acked, err
}

// read returns the acknowledged count and the ID of the last entry read,
// empty when the batch was empty
func (c *MetricsConsumer) read(ctx context.Context, id string, handler func(context.Context, PostMetricsMessage) error) (int, string, error) {
	args := &redis.XReadGroupArgs{
		Group:    c.groupName,
		Consumer: c.consumerName,
		Streams:  []string{StreamPostMetrics, id},
		Count:    batchSize,
		Block:    c.block,
	}
	if id != ">" {
		// Pending reads return immediately
		args.Block = -1
	}

	streams, err := c.rdb.XReadGroup(ctx, args).Result()
	if err == redis.Nil {
		return 0, "", nil
	}
	if err != nil {
		// Blocking reads time out when the stream is idle
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, "", nil
		}
		return 0, "", err
	}

	acked := 0
	lastID := ""
	for _, stream := range streams {
		for _, message := range stream.Messages {
			lastID = message.ID
			if c.handle(ctx, message, handler) {
				if err := c.rdb.XAck(ctx, StreamPostMetrics, c.groupName, message.ID).Err(); err != nil {
					slog.Error("Failed to ACK message", "error", err, "message_id", message.ID)
					continue
				}
				acked++
			}
		}
	}
	return acked, lastID, nil
}

// handle reports whether the message should be acknowledged
func (c *MetricsConsumer) handle(ctx context.Context, message redis.XMessage, handler func(context.Context, PostMetricsMessage) error) bool {
	payloadStr, ok := message.Values["payload"].(string)
	if !ok {
		slog.Error("Invalid message payload", "message_id", message.ID)
		return true
	}

	var msg PostMetricsMessage
	if err := json.Unmarshal([]byte(payloadStr), &msg); err != nil {
		slog.Error("Failed to unmarshal metrics", "error", err, "message_id", message.ID)
		return true
	}

	if err := handler(ctx, msg); err != nil {
		if errors.Is(err, ErrDropMessage) {
			slog.Warn("Dropping metrics message", "error", err, "message_id", message.ID, "post_id", msg.PostID)
			return true
		}
		// Stays in the PEL for retry
		slog.Error("Handler failed", "error", err, "post_id", msg.PostID)
		return false
	}

	return true
}

// Close closes the Redis client connection
func (c *MetricsConsumer) Close() error {
	return c.rdb.Close()
}

// StartMetricsConsumer starts a metrics consumer in a background goroutine
// and returns a stop function
func StartMetricsConsumer(redisURL, consumerName string, updater MetricsUpdater) (stop func(), err error) {
	if consumerName == "" {
		consumerName = DefaultConsumerName
	}
	consumer, err := NewMetricsConsumer(redisURL, consumerName)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics consumer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := consumer.Consume(ctx, HandlePostMetrics(updater)); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Metrics consumer stopped with error", "error", err)
		}
	}()

	slog.Info("Metrics consumer started", "stream", StreamPostMetrics, "consumer", consumerName)

	return func() {
		cancel()
		consumer.Close()
	}, nil
}
