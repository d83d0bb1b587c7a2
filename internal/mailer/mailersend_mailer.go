package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendWelcome(toEmail, toName, accountURL string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Welcome to RoamTrails!"
	html := fmt.Sprintf(`
		<h2>Welcome to RoamTrails!</h2>
		<p>Hi %s,</p>
		<p>We're glad to have you on board. Browse our tours and book your next adventure.</p>
		<p><a href="%s" style="background-color: #55c57a; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Go to your account</a></p>
	`, toName, accountURL)

	text := fmt.Sprintf("Welcome to RoamTrails, %s! Visit your account at %s", toName, accountURL)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendPasswordReset(toEmail, toName, resetURL string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Your password reset link (valid for 10 minutes)"
	html := fmt.Sprintf(`
		<h2>Forgot your password?</h2>
		<p>Hi %s,</p>
		<p>Click the link below to set a new password:</p>
		<p><a href="%s" style="background-color: #55c57a; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Reset password</a></p>
		<p>This link expires in 10 minutes. If you didn't request a reset, please ignore this email.</p>
	`, toName, resetURL)

	text := fmt.Sprintf("Reset your password using this link (valid for 10 minutes): %s", resetURL)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, toName, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
