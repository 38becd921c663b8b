package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun wraps Mailgun client configuration. Sends are synchronous and
// fire-and-forget from the caller's point of view; a failure propagates as
// the request error.
type Mailgun struct {
	Domain  string
	APIKey  string
	Sender  string
	Enabled bool
}

func NewMailgun(domain, apiKey, sender string, enabled bool) *Mailgun {
	return &Mailgun{Domain: domain, APIKey: apiKey, Sender: sender, Enabled: enabled}
}

// Send sends a plain-text email via Mailgun. Disabled senders no-op, which
// keeps local development usable without credentials.
func (m *Mailgun) Send(ctx context.Context, to, subject, text string) error {
	if !m.Enabled {
		return nil
	}
	client := mg.NewMailgun(m.Domain, m.APIKey)
	msg := client.NewMessage(m.Sender, subject, text, to)
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := client.Send(c, msg)
	return err
}
