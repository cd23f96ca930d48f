package notifier

import (
	"context"
	"fmt"
	"net/smtp"

	"fulfillment-service/config"
	"fulfillment-service/internal/util"

	"go.uber.org/zap"
)

// Mailer delivers one message to one recipient.
type Mailer interface {
	Deliver(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers notification messages over SMTP. Incomplete
// configuration downgrades delivery to a logged no-op so a missing mail
// server never breaks the worker.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewSMTPMailer creates a mailer from SMTP settings.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		logger: util.GetLogger(),
	}
}

// Deliver sends one message. Cancellation of ctx propagates before any
// network activity starts.
func (m *SMTPMailer) Deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if m.cfg.Host == "" || m.cfg.FromAddress == "" || to == "" {
		m.logger.Warn("Email not sent, missing configuration or recipient",
			zap.String("recipient", to))
		return nil
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.cfg.FromName, m.cfg.FromAddress, to, subject, body)

	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{to}, []byte(msg)); err != nil {
		util.EmailsFailedTotal.Inc()
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	util.EmailsSentTotal.Inc()
	m.logger.Info("Email sent",
		zap.String("recipient", to),
		zap.String("subject", subject))
	return nil
}
