package mailer

import (
	"fmt"
	"time"

	gomail "gopkg.in/mail.v2"
)

type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	fromEmail string
	dialer    Dialer
	backoff   time.Duration
}

func NewSMTP(host string, port int, username, password, fromEmail string) (*SMTPMailer, error) {
	if host == "" || fromEmail == "" {
		return nil, ErrNotConfigured
	}
	d := gomail.NewDialer(host, port, username, password)
	d.Timeout = 10 * time.Second
	return &SMTPMailer{fromEmail: fromEmail, dialer: d, backoff: time.Second}, nil
}

// Send renders templateFile and delivers it, retrying with a linear backoff.
// It returns the attempt number that succeeded.
func (m *SMTPMailer) Send(templateFile, username, email string, data any) (int, error) {
	rendered, err := Render(templateFile, data)
	if err != nil {
		return -1, err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, FromName)
	msg.SetAddressHeader("To", email, username)
	msg.SetHeader("Subject", rendered.Subject)
	msg.SetBody("text/plain", rendered.PlainBody)
	msg.AddAlternative("text/html", rendered.HTMLBody)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if lastErr = m.dialer.DialAndSend(msg); lastErr == nil {
			return attempt, nil
		}
		if attempt < maxRetries {
			time.Sleep(m.backoff * time.Duration(attempt))
		}
	}

	return -1, fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
