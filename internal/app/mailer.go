package app

import (
	"context"
	"fmt"
	"os"

	"github.com/renorris/cs496-todo-app/internal/config"
	"github.com/renorris/cs496-todo-app/internal/logging"
	"github.com/renorris/cs496-todo-app/internal/mail"
	"github.com/renorris/cs496-todo-app/internal/queue"
)

const mailerGroup = "mailer"

// NewMailSender picks the Sender for MAIL_TRANSPORT. The returned func
// releases whatever the sender holds open.
func NewMailSender(ctx context.Context, cfg config.Config, log logging.Logger) (mail.Sender, func(), error) {
	noop := func() {}
	switch cfg.Mail.Transport {
	case "log":
		return mail.LogSender{Log: log.With("component", "mail")}, noop, nil
	case "smtp":
		return newSMTPSender(cfg.Mail), noop, nil
	case "amqp":
		return mail.QueueSender{Publisher: queue.NewAMQPPublisher(cfg.Mail.RabbitURL, cfg.Mail.Queue)}, noop, nil
	case "redis":
		client, err := config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		pub := queue.NewStreamPublisher(client, cfg.Mail.Queue)
		return mail.QueueSender{Publisher: pub}, func() { _ = client.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown mail transport %q", cfg.Mail.Transport)
	}
}

// RunMailer relays queued confirmation emails to SMTP until ctx is done.
// Only the amqp and redis transports have a queue to drain.
func RunMailer(ctx context.Context, cfg config.Config, log logging.Logger) error {
	relay := mail.Relay(newSMTPSender(cfg.Mail))

	switch cfg.Mail.Transport {
	case "amqp":
		log.Info(ctx, "mailer consuming", "transport", "amqp", "queue", cfg.Mail.Queue)
		return queue.ConsumeAMQP(ctx, cfg.Mail.RabbitURL, cfg.Mail.Queue, relay, log)
	case "redis":
		client, err := config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()

		consumer := queue.NewStreamConsumer(client, cfg.Mail.Queue, mailerGroup, consumerName(), log)
		log.Info(ctx, "mailer consuming", "transport", "redis", "stream", cfg.Mail.Queue)
		return consumer.Run(ctx, relay)
	default:
		return fmt.Errorf("mailer needs MAIL_TRANSPORT amqp or redis, got %q", cfg.Mail.Transport)
	}
}

func newSMTPSender(mc config.MailConfig) *mail.SMTPSender {
	return mail.NewSMTPSender(mc.SMTPAddr, mc.SMTPUser, mc.SMTPPass, mc.From)
}

func consumerName() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "mailer"
}
