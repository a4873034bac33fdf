// Package mailer sends transactional mail over SMTP.
package mailer

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/gymboo/gym-backend/internal/config"
)

// Mailer sends account mail through the configured SMTP relay.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// New builds a Mailer from config. Returns nil when SMTP is not configured,
// callers treat a nil Mailer as "mail disabled".
func New(cfg config.Config) *Mailer {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" {
		return nil
	}
	return &Mailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.SMTPUser,
	}
}

// SendPasswordReset mails the reset link built from the client URL and the
// short-lived reset token.
func (m *Mailer) SendPasswordReset(to, clientURL, token string) error {
	link := fmt.Sprintf("%s/resetPassword?token=%s", clientURL, token)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "GYMBOO password reset")
	msg.SetBody("text/html", fmt.Sprintf(
		`<p>We received a request to reset your password.</p>
<p><a href="%s">Reset your password</a></p>
<p>The link expires in 15 minutes. If you did not ask for this, ignore this mail.</p>`, link))

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	return d.DialAndSend(msg)
}
