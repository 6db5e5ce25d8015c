package email

import (
	"context"
	"strings"
	"testing"
)

func TestRedactBodyRedactsTokenQueryParam(t *testing.T) {
	body := "Click here: https://example.com/reset?token=secret123"
	got := redactBody(body)
	if !strings.Contains(got, "token=[REDACTED]") {
		t.Fatalf("expected token to be redacted, got %q", got)
	}
	if strings.Contains(got, "secret123") {
		t.Fatal("expected the secret value to be gone")
	}
}

func TestRedactBodyHandlesMultiplePatternsCaseInsensitively(t *testing.T) {
	body := "API_KEY=abc123&password=hunter2&code=xyz789"
	got := redactBody(body)
	for _, want := range []string{"abc123", "hunter2", "xyz789"} {
		if strings.Contains(got, want) {
			t.Fatalf("expected %q to be redacted out of %q", want, got)
		}
	}
}

func TestLogSenderRetainsSentMessages(t *testing.T) {
	sender := NewLogSender()
	msg := VerificationEmail("test@example.com", VerificationData{VerificationURL: "https://x/y", ExpiresInHours: 1})
	if err := sender.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	sent := sender.Sent()
	if len(sent) != 1 || sent[0].To != "test@example.com" {
		t.Fatalf("expected the message to be retained, got %+v", sent)
	}
}

func TestNoopSenderNeverErrors(t *testing.T) {
	if err := (NoopSender{}).Send(context.Background(), Message{}); err != nil {
		t.Fatalf("noop sender must never error: %v", err)
	}
}
