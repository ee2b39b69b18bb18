package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTP relays through a configured SMTP server. In local development this is
// typically a mailcatcher on localhost; in a deployed-with-backend setup it is
// the academy's relay.
type SMTP struct {
	addr     string
	user     string
	password string
	from     string
}

// NewSMTP returns nil when no relay address is configured.
func NewSMTP(addr, user, password, from string) *SMTP {
	if addr == "" {
		return nil
	}
	return &SMTP{addr: addr, user: user, password: password, from: from}
}

func (s *SMTP) Name() string { return "smtp" }

// Send writes a plain-text RFC 822 message through the relay.
func (s *SMTP) Send(_ context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return errors.New("recipient email required")
	}

	var b strings.Builder
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.ToEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	var auth smtp.Auth
	if s.user != "" {
		host := s.addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", s.user, s.password, host)
	}
	return smtp.SendMail(s.addr, auth, s.from, []string{msg.ToEmail}, []byte(b.String()))
}
