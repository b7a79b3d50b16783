// Package mail sends plain-text email over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// ErrNotConfigured is returned when SMTP credentials are unset.
var ErrNotConfigured = errors.New("mail credentials are not configured")

// Settings describes the SMTP account used for outgoing mail.
type Settings struct {
	Host     string
	Port     int
	UseTLS   bool
	Username string
	Password string
	Sender   string
}

// SettingsSource yields the current SMTP settings. They are read on every send so
// admin changes apply without a restart.
type SettingsSource interface {
	MailSettings(ctx context.Context) (Settings, error)
}

// SMTPMailer sends mail with a bounded dial-and-send time.
type SMTPMailer struct {
	source  SettingsSource
	timeout time.Duration
}

func NewSMTPMailer(source SettingsSource, timeout time.Duration) *SMTPMailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMTPMailer{source: source, timeout: timeout}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	s, err := m.source.MailSettings(ctx)
	if err != nil {
		return fmt.Errorf("load mail settings: %w", err)
	}
	if s.Username == "" || s.Password == "" {
		return ErrNotConfigured
	}

	msg, err := buildMessage(s.Sender, to, subject, body)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.Host, clientOptions(s, m.timeout)...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("set sender %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("set recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return msg, nil
}

func clientOptions(s Settings, timeout time.Duration) []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(s.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.Username),
		gomail.WithPassword(s.Password),
		gomail.WithTimeout(timeout),
	}
	switch {
	case s.Port == 465:
		opts = append(opts, gomail.WithSSL())
	case s.UseTLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	return opts
}
