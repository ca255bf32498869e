package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/renorris/cs496-todo-app/internal/logging"
	"github.com/renorris/cs496-todo-app/internal/queue"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes the message to the log instead of delivering it.
// Development only.
type LogSender struct {
	Log logging.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	s.Log.Info(ctx, "mail not delivered (log transport)", "to", msg.To, "subject", msg.Subject, "html", msg.HTML)
	return nil
}

// SMTPSender relays through an SMTP server, with PLAIN auth when a user is set.
type SMTPSender struct {
	Addr string
	User string
	Pass string
	From string

	sendMail func(addr string, a sasl.Client, from string, to []string, r io.Reader) error
	now      func() time.Time
}

func NewSMTPSender(addr, user, pass, from string) *SMTPSender {
	return &SMTPSender{Addr: addr, User: user, Pass: pass, From: from, sendMail: smtp.SendMail, now: time.Now}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Build the MIME message first so a bad header never opens a connection.
	raw, err := Compose(s.From, msg, s.now())
	if err != nil {
		return err
	}
	// Anonymous relays (dev catchers like MailHog) take no AUTH.
	var auth sasl.Client
	if s.User != "" {
		auth = sasl.NewPlainClient("", s.User, s.Pass)
	}
	// SendMail upgrades with STARTTLS when the server offers it.
	if err := s.sendMail(s.Addr, auth, s.From, []string{msg.To}, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", s.Addr, err)
	}
	return nil
}

// QueueSender defers delivery to a worker by publishing the rendered message.
type QueueSender struct {
	Publisher queue.Publisher
}

func (s QueueSender) Send(ctx context.Context, msg Message) error {
	return s.Publisher.Publish(ctx, queue.MailEvent{
		To:       msg.To,
		Subject:  msg.Subject,
		HTML:     msg.HTML,
		QueuedAt: time.Now().UTC(),
	})
}

// Relay adapts a Sender into a queue.Handler for the mail worker.
func Relay(s Sender) queue.Handler {
	return func(ctx context.Context, ev queue.MailEvent) error {
		return s.Send(ctx, Message{To: ev.To, Subject: ev.Subject, HTML: ev.HTML})
	}
}
