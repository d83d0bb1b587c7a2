package mailer

// Service dispatches the transactional emails the API sends: the welcome
// message after sign-up and the password-reset link.
type Service interface {
	SendWelcome(toEmail, toName, accountURL string) error
	SendPasswordReset(toEmail, toName, resetURL string) error
}
