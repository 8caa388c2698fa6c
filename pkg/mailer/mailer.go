// Package mailer sends transactional email over SMTP. It is used for vault
// invitation notifications; delivery is always best-effort from the caller's
// point of view.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer holds SMTP server settings and credentials.
type Mailer struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

// New creates a Mailer. An empty host yields a nil Mailer, which callers treat
// as "mail disabled".
func New(host, port, username, password, sender string) *Mailer {
	if host == "" {
		return nil
	}
	return &Mailer{Host: host, Port: port, Username: username, Password: password, Sender: sender}
}

// Send delivers a single email. The Content-Type is inferred from the body:
// anything containing an <html> or <p> tag is sent as HTML.
func (m *Mailer) Send(recipient, subject, body string) error {
	if recipient == "" || subject == "" {
		return fmt.Errorf("mailer: recipient and subject are required")
	}

	contentType := "text/plain; charset=\"UTF-8\""
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=\"UTF-8\""
	}

	msg := strings.Join([]string{
		"From: " + m.Sender,
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: " + contentType,
		"",
		body,
	}, "\r\n")

	addr := m.Host + ":" + m.Port
	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	if err := smtp.SendMail(addr, auth, m.Sender, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("mailer: failed to send to %s: %w", recipient, err)
	}
	return nil
}
