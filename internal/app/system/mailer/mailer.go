// internal/app/system/mailer/mailer.go
package mailer

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Config holds SMTP settings plus the site identity used in templates.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SiteName string
	BaseURL  string // public base URL for links in emails
}

// Mailer sends transactional email over SMTP. When no SMTP host is
// configured the mailer logs the message and drops it, so local dev and
// tests work without a mail server.
type Mailer struct {
	cfg    Config
	dialer *gomail.Dialer
	logger *zap.Logger
}

// Email is a single outgoing message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// New creates a Mailer from the given config.
func New(cfg Config, logger *zap.Logger) *Mailer {
	m := &Mailer{cfg: cfg, logger: logger}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool { return m.dialer != nil }

// Send delivers a single email.
func (m *Mailer) Send(email Email) error {
	if email.To == "" {
		return fmt.Errorf("no recipient specified")
	}

	if m.dialer == nil {
		m.logger.Info("mail delivery disabled; dropping message",
			zap.String("to", email.To),
			zap.String("subject", email.Subject))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.TextBody != "" {
			msg.AddAlternative("text/plain", email.TextBody)
		}
	} else {
		msg.SetBody("text/plain", email.TextBody)
	}

	return m.dialer.DialAndSend(msg)
}

// SendPasswordReset emails a reset link carrying the raw token. The
// token itself is single-use and expires server-side.
func (m *Mailer) SendPasswordReset(to, token, expiresIn string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.cfg.BaseURL, token)
	email := buildPasswordResetEmail(linkEmailData{
		SiteName:  m.cfg.SiteName,
		Link:      link,
		ExpiresIn: expiresIn,
	})
	email.To = to
	return m.Send(email)
}

// SendEmailVerification emails a verification link for a new account.
func (m *Mailer) SendEmailVerification(to, token, expiresIn string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.cfg.BaseURL, token)
	email := buildVerificationEmail(linkEmailData{
		SiteName:  m.cfg.SiteName,
		Link:      link,
		ExpiresIn: expiresIn,
	})
	email.To = to
	return m.Send(email)
}
