package notification

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(msg Message) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	from     string
	username string
	password string
}

func NewSMTPMailer(host string, port int, from, username, password string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		from:     from,
		username: username,
		password: password,
	}
}

func (m *SMTPMailer) Send(msg Message) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
