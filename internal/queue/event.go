// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"context"
	"time"
)

// MailEvent is a fully rendered email waiting to be relayed. Consumers need
// nothing else to deliver it.
type MailEvent struct {
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	HTML     string    `json:"html"`
	QueuedAt time.Time `json:"queued_at"`
}

// Handler processes one event. A returned error rejects the message.
type Handler func(ctx context.Context, ev MailEvent) error
