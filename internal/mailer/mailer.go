// Package mailer sends transactional email notifications.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers a single message. Implementations should be synchronous;
// callers decide whether a failure is fatal.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer talks to a plain SMTP relay.
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer returns a Mailer backed by the relay at addr (host:port).
func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	if m.addr == "" {
		return fmt.Errorf("smtp relay address not configured")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
