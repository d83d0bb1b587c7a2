package mailer

import (
	"github.com/roamtrails/tours-api/pkg/logger"
)

// DevMailer logs outgoing mail instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendWelcome(toEmail, toName, accountURL string) error {
	logger.Info("📧 [DEV MAIL] Welcome Email",
		"to", toEmail,
		"name", toName,
		"account_url", accountURL,
	)
	return nil
}

func (d *DevMailer) SendPasswordReset(toEmail, toName, resetURL string) error {
	logger.Info("📧 [DEV MAIL] Password Reset Email",
		"to", toEmail,
		"name", toName,
		"reset_url", resetURL,
	)
	return nil
}
