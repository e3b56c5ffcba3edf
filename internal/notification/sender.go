package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finelytics/pkg/config"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured  = errors.New("email sender is not configured")
	ErrInvalidMessage = errors.New("message needs a recipient, a subject and a body")
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" || strings.TrimSpace(m.Subject) == "" || (m.HTML == "" && m.Text == "") {
		return ErrInvalidMessage
	}
	return nil
}

// Sender delivers messages. Failures are returned, never retried.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResendSender delivers messages through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

// NewResendSender creates a sender. Without an API key every Send fails with
// ErrNotConfigured.
func NewResendSender(cfg *config.EmailConfig, logger *zap.Logger) *ResendSender {
	s := &ResendSender{
		from:   cfg.From,
		logger: logger,
	}
	if cfg.ResendAPIKey != "" {
		s.client = resend.NewClient(cfg.ResendAPIKey)
	} else {
		logger.Warn("RESEND_API_KEY is not set, emails will not be delivered")
	}
	return s
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if s.client == nil {
		return ErrNotConfigured
	}
	if err := msg.validate(); err != nil {
		return err
	}

	resp, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}

	s.logger.Info("Email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("email_id", resp.Id),
	)
	return nil
}

var _ Sender = (*ResendSender)(nil)
