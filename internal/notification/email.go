// Package notification delivers out-of-band messages to users.
package notification

import (
	"fmt"
	"net/smtp"
)

// Mailer sends account emails. Handlers treat a nil Mailer as "mail
// disabled" and skip delivery rather than failing the request.
type Mailer interface {
	SendVerificationEmail(to, verifyURL string) error
}

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// EmailService sends mail over plain SMTP.
type EmailService struct {
	config EmailConfig
}

// NewEmailService creates a new SMTP mailer.
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config}
}

// SendVerificationEmail sends the address-confirmation link.
func (s *EmailService) SendVerificationEmail(to, verifyURL string) error {
	subject := "Confirm your email address"
	body := fmt.Sprintf(`<html><body>
		<h2>Confirm your email address</h2>
		<p>Welcome to Shelfmark! Confirm your email address to start using your account.</p>
		<p><a href="%s">Click here to confirm</a></p>
		<p>Or copy this link to your browser: %s</p>
		<p>This link will expire in 24 hours.</p>
	</body></html>`, verifyURL, verifyURL)
	return s.sendEmail(to, subject, body)
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	return smtp.SendMail(addr, auth, s.config.From, []string{to}, []byte(msg))
}
