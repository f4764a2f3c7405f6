// Package mail sends transactional email through Resend.
//
// Bodies are Markdown templates embedded in the binary. They are executed
// with text/template and rendered to HTML with goldmark.
package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// sender is the part of the resend email service used here.
type sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Client wraps the Resend client and a logger.
type Client struct {
	emails   sender
	from     string
	renderer *Renderer
	logger   zerolog.Logger
}

// NewClient creates a Client. Without an API key, messages are logged and
// dropped.
func NewClient(apiKey, from string, logger zerolog.Logger) *Client {
	c := &Client{
		from:     from,
		renderer: NewRenderer(),
		logger:   logger,
	}
	if apiKey != "" {
		c.emails = resend.NewClient(apiKey).Emails
	}
	return c
}

// Enabled reports whether messages are actually delivered.
func (c *Client) Enabled() bool {
	return c.emails != nil
}

// Send renders a template and delivers it to one recipient. It returns the
// provider message id.
func (c *Client) Send(ctx context.Context, to, subject string, tmpl Template, data map[string]string) (string, error) {
	html, err := c.renderer.Render(tmpl, data)
	if err != nil {
		return "", err
	}
	return c.SendHTML(ctx, to, subject, html)
}

// SendHTML delivers a pre-rendered body.
func (c *Client) SendHTML(ctx context.Context, to, subject, html string) (string, error) {
	if c.emails == nil {
		c.logger.Info().
			Str("to", to).
			Str("subject", subject).
			Msg("email delivery disabled, message dropped")
		return "", nil
	}

	resp, err := c.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	c.logger.Debug().Str("to", to).Str("id", resp.Id).Msg("email sent")
	return resp.Id, nil
}
