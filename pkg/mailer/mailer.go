package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends transactional mail over SMTP. Callers treat sends as
// fire-and-forget; a failed notification must never abort the operation
// that triggered it.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

type SMTPMailer struct {
	config *SMTPConfig
}

func NewSMTPMailer(config *SMTPConfig) *SMTPMailer {
	return &SMTPMailer{config: config}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)

	from := m.config.FromEmail
	if m.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.config.FromName, m.config.FromEmail)
	}

	var msg strings.Builder
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	return smtp.SendMail(addr, auth, m.config.FromEmail, []string{to}, []byte(msg.String()))
}

// NopMailer discards mail. Used when SMTP is disabled in config.
type NopMailer struct{}

func (NopMailer) Send(string, string, string) error { return nil }
