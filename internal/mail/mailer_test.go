package mail

import (
	"context"
	"errors"
	"testing"
)

type staticSettings Settings

func (s staticSettings) MailSettings(context.Context) (Settings, error) {
	return Settings(s), nil
}

func TestSendWithoutCredentials(t *testing.T) {
	m := NewSMTPMailer(staticSettings{Host: "localhost", Port: 587, Sender: "noreply@example.com"}, 0)
	err := m.Send(context.Background(), "to@example.com", "subject", "body")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestBuildMessageRejectsBadAddress(t *testing.T) {
	if _, err := buildMessage("noreply@example.com", "not an address", "s", "b"); err == nil {
		t.Fatalf("expected error for invalid recipient")
	}
	if _, err := buildMessage("noreply@example.com", "to@example.com", "s", "b"); err != nil {
		t.Fatalf("buildMessage: %v", err)
	}
}
