package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/renorris/cs496-todo-app/internal/logging"
)

// StreamPublisher appends MailEvents to a Redis stream.
type StreamPublisher struct {
	client *redis.Client
	stream string
}

func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream}
}

func (p *StreamPublisher) Publish(ctx context.Context, ev MailEvent) error {
	if ev.QueuedAt.IsZero() {
		ev.QueuedAt = time.Now().UTC()
	}
	// Stream entries are flat string fields, not JSON.
	fields := map[string]interface{}{
		"to":        ev.To,
		"subject":   ev.Subject,
		"html":      ev.HTML,
		"queued_at": ev.QueuedAt.Format(time.RFC3339),
	}
	if err := p.client.XAdd(ctx, &redis.XAddArgs{Stream: p.stream, Values: fields}).Err(); err != nil {
		return fmt.Errorf("failed to publish mail event: %w", err)
	}
	return nil
}

// StreamConsumer reads MailEvents from a Redis stream as a member of a
// consumer group. Every entry is acknowledged after one attempt; failures
// are logged and dropped, like the AMQP consumer's reject without requeue.
type StreamConsumer struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	batch    int64
	block    time.Duration
	log      logging.Logger
}

func NewStreamConsumer(client *redis.Client, stream, group, consumer string, log logging.Logger) *StreamConsumer {
	return &StreamConsumer{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		batch:    10,
		block:    5 * time.Second,
		log:      log.With("component", "mail-stream", "stream", stream),
	}
}

// EnsureGroup creates the consumer group (and the stream) if missing.
func (c *StreamConsumer) EnsureGroup(ctx context.Context) error {
	// "0" lets a new group pick up entries queued before the worker started.
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// Run polls until ctx is cancelled.
func (c *StreamConsumer) Run(ctx context.Context, handle Handler) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}
	for {
		// ReadOnce blocks up to c.block, so this loop does not spin.
		if _, err := c.ReadOnce(ctx, handle); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn(ctx, "read stream failed", "error", err)
			if !sleep(ctx, time.Second) {
				return ctx.Err()
			}
		}
	}
}

// ReadOnce reads up to one batch of new entries, handles and acks them, and
// returns how many were processed.
func (c *StreamConsumer) ReadOnce(ctx context.Context, handle Handler) (int, error) {
	// ">" asks only for entries never delivered to this group.
	res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    c.batch,
		Block:    c.block,
	}).Result()
	if err != nil {
		// redis.Nil means the block timed out with nothing new.
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	n := 0
	for _, s := range res {
		for _, msg := range s.Messages {
			if err := handle(ctx, eventFromValues(msg.Values)); err != nil {
				c.log.Error(ctx, "handle message failed", "id", msg.ID, "error", err)
			} else {
				n++
			}
			// Ack regardless of outcome; a failed entry is not retried.
			if err := c.client.XAck(ctx, c.stream, c.group, msg.ID).Err(); err != nil {
				return n, fmt.Errorf("ack %s: %w", msg.ID, err)
			}
		}
	}
	return n, nil
}

func eventFromValues(v map[string]interface{}) MailEvent {
	str := func(k string) string {
		s, _ := v[k].(string)
		return s
	}
	ev := MailEvent{To: str("to"), Subject: str("subject"), HTML: str("html")}
	if t, err := time.Parse(time.RFC3339, str("queued_at")); err == nil {
		ev.QueuedAt = t
	}
	return ev
}
