package notifier

import (
	"context"
	"testing"

	"fulfillment-service/config"

	"github.com/stretchr/testify/assert"
)

func TestSMTPMailerSkipsWithoutConfiguration(t *testing.T) {
	mailer := NewSMTPMailer(config.SMTPConfig{})

	err := mailer.Deliver(context.Background(), "ada@example.com", "subject", "body")
	assert.NoError(t, err)
}

func TestSMTPMailerSkipsWithoutRecipient(t *testing.T) {
	mailer := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 587, FromAddress: "orders@example.com"})

	err := mailer.Deliver(context.Background(), "", "subject", "body")
	assert.NoError(t, err)
}

func TestSMTPMailerHonoursCancelledContext(t *testing.T) {
	mailer := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 587, FromAddress: "orders@example.com"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mailer.Deliver(ctx, "ada@example.com", "subject", "body")
	assert.ErrorIs(t, err, context.Canceled)
}
