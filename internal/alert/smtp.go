package alert

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPNotifier emails the alert report.
type SMTPNotifier struct {
	addr string
	auth smtp.Auth
	from string
	to   []string

	// send is swappable for tests.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP creates the email channel. Auth is skipped when username is
// empty (local relay).
func NewSMTP(host string, port int, username, password, from string, to []string) *SMTPNotifier {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPNotifier{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
		from: from,
		to:   to,
		send: smtp.SendMail,
	}
}

func (s *SMTPNotifier) Name() string { return "smtp" }

func (s *SMTPNotifier) Notify(ctx context.Context, a Alert) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(s.to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", a.Title)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(a.Body)
	if a.Link != "" {
		b.WriteString("\r\n\r\n" + a.Link)
	}

	if err := s.send(s.addr, s.auth, s.from, s.to, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
