package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// Mailer sends a single email. The transport is an external collaborator;
// the dispatch logic only depends on this interface.
type Mailer interface {
	Send(msg MailMessage) error
}

// MailMessage is one outbound email.
type MailMessage struct {
	To       string
	Subject  string
	BodyText string
	BodyHTML string
}

// SMTPMailer delivers through a plain SMTP relay. Blocking, no timeout
// control beyond the transport's own.
type SMTPMailer struct {
	cfg config.NotificationConfig
}

// NewSMTPMailer builds a mailer from notification config.
func NewSMTPMailer(cfg config.NotificationConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send delivers the message. Multipart only when an HTML body exists.
func (m *SMTPMailer) Send(msg MailMessage) error {
	if m.cfg.SMTPHost == "" {
		return fmt.Errorf("smtp host not configured")
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)

	var auth smtp.Auth
	if m.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.EmailFrom)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.BodyHTML != "" {
		const boundary = "helpdesk-alt-boundary"
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.BodyText)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.BodyHTML)
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	} else {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(msg.BodyText)
		b.WriteString("\r\n")
	}

	return smtp.SendMail(addr, auth, m.cfg.EmailFrom, []string{msg.To}, []byte(b.String()))
}
