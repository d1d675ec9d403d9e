package service

import (
	"context"
	"fmt"
	"net/http"

	"medconsult-api/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

type MailMessage struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// NewMailer returns a SendGrid mailer, or a log-only mailer when no API key is set.
func NewMailer(cfg config.MailConfig, log *logrus.Logger) Mailer {
	if cfg.SendGridAPIKey == "" {
		log.Warn("SENDGRID_API_KEY not set, emails will only be logged")
		return &logMailer{log: log}
	}
	return newSendGridMailer(cfg, "", log)
}

type sendGridMailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	log       *logrus.Logger
}

// host overrides the SendGrid API host; empty means the public API.
func newSendGridMailer(cfg config.MailConfig, host string, log *logrus.Logger) *sendGridMailer {
	request := sendgrid.GetRequest(cfg.SendGridAPIKey, "/v3/mail/send", host)
	request.Method = http.MethodPost

	return &sendGridMailer{
		client:    &sendgrid.Client{Request: request},
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		log:       log,
	}
}

func (m *sendGridMailer) Send(ctx context.Context, msg MailMessage) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}

	m.log.Debugf("Sent %q via SendGrid", msg.Subject)
	return nil
}

type logMailer struct {
	log *logrus.Logger
}

func (m *logMailer) Send(ctx context.Context, msg MailMessage) error {
	m.log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info(msg.Body)
	return nil
}
