package alert

import "net/smtp"

// SetSMTPSender swaps the SMTP send function for tests.
func SetSMTPSender(s *SMTPNotifier, send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error) {
	s.send = send
}
