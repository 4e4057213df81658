package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendGridClient struct {
	client *sendgrid.Client
	config Config
}

// NewSendGridClient creates a SendGrid-backed sender.
func NewSendGridClient(cfg Config) (EmailSender, error) {
	if cfg.SendGridAPIKey == "" {
		return nil, fmt.Errorf("%w: SendGridAPIKey is required", ErrInvalidConfig)
	}
	if err := validateSender(cfg); err != nil {
		return nil, err
	}
	return &sendGridClient{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		config: cfg,
	}, nil
}

func (c *sendGridClient) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	msg := mail.NewSingleEmail(
		mail.NewEmail(c.config.SenderName, c.config.SenderEmail),
		params.Subject,
		mail.NewEmail("", params.SendTo),
		params.BodyText,
		params.BodyHTML,
	)
	replyTo := params.ReplyTo
	if replyTo == "" {
		replyTo = c.config.SupportEmail
	}
	if replyTo != "" {
		msg.SetReplyTo(mail.NewEmail("", replyTo))
	}
	if params.Tag != "" {
		msg.AddCategories(params.Tag)
	}

	resp, err := c.client.SendWithContext(ctx, msg)
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.StatusCode >= 400 {
		return errors.Join(ErrFailedToSendEmail, fmt.Errorf("sendgrid error: %d - %s", resp.StatusCode, resp.Body))
	}
	return nil
}
