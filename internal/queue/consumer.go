package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/renorris/cs496-todo-app/internal/logging"
)

// ConsumeAMQP connects to RabbitMQ, declares the durable queue and feeds each
// delivery to handle. It reconnects with exponential backoff and only
// returns once ctx is cancelled. A failed message is rejected without
// requeue so a poison message cannot spin the worker.
func ConsumeAMQP(ctx context.Context, url, queueName string, handle Handler, log logging.Logger) error {
	log = log.With("component", "mail-consumer", "queue", queueName)

	// Start at one second and double up to 30s between failed dials.
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn(ctx, "dial broker failed", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect
		log.Info(ctx, "connected to broker")

		// consumeLoop only returns on cancellation or a broken connection.
		err = consumeLoop(ctx, conn, queueName, handle, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn(ctx, "consume loop ended; reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queueName string, handle Handler, log logging.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// At most 50 unacknowledged deliveries in flight.
	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn(ctx, "set QoS failed", "error", err)
	}
	if _, err := declareQueue(ch, queueName); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	// Manual acks: a message leaves the queue only after handle returns.
	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleBody(ctx, d.Body, handle); err != nil {
				log.Error(ctx, "handle message failed", "error", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleBody(ctx context.Context, body []byte, handle Handler) error {
	// Decode and sanity-check before handing the event to the relay.
	var ev MailEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.To == "" {
		return errors.New("mail event without recipient")
	}
	return handle(ctx, ev)
}

// sleep waits for d or ctx, reporting whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
