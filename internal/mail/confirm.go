package mail

import (
	"context"
	"net/url"
	"strings"

	"github.com/renorris/cs496-todo-app/internal/logging"
)

const confirmationSubject = "Confirm your email"

// Confirmations renders and sends registration confirmation emails.
type Confirmations struct {
	renderer *Renderer
	sender   Sender
	baseURL  string
	log      logging.Logger
}

func NewConfirmations(r *Renderer, s Sender, publicBaseURL string, log logging.Logger) *Confirmations {
	return &Confirmations{renderer: r, sender: s, baseURL: strings.TrimRight(publicBaseURL, "/"), log: log}
}

// ConfirmURL is the link a user clicks to confirm token.
func (c *Confirmations) ConfirmURL(token string) string {
	return c.baseURL + "/user/confirm/" + url.PathEscape(token)
}

// SendConfirmation renders the email and hands it to the sender. A render
// failure is returned (wrapping ErrTemplate); delivery is best-effort and
// its failure is only logged.
func (c *Confirmations) SendConfirmation(ctx context.Context, to, firstName, token string) error {
	html, err := c.renderer.Render(ConfirmationData{FirstName: firstName, ConfirmURL: c.ConfirmURL(token)})
	if err != nil {
		return err
	}
	if err := c.sender.Send(ctx, Message{To: to, Subject: confirmationSubject, HTML: html}); err != nil {
		c.log.Warn(ctx, "confirmation email not sent", "to", to, "error", err)
	}
	return nil
}
