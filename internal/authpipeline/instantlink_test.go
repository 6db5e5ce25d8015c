package authpipeline_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cedros/core/internal/authpipeline"
)

func extractInstantLinkToken(url string) string {
	idx := strings.LastIndex(url, "token=")
	if idx < 0 {
		return ""
	}
	return url[idx+len("token="):]
}

func TestInstantLinkRequestAndComplete(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	reg, err := eng.Register(ctx, authpipeline.RegisterRequest{Email: "bob@example.com", Password: "correct horse battery"}, dc)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := eng.RequestInstantLink(ctx, "Bob@Example.com", dc); err != nil {
		t.Fatalf("request instant link: %v", err)
	}

	items, err := eng.Store.Outbox.Dequeue(ctx, time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("dequeue outbox: %v", err)
	}
	var token string
	for _, item := range items {
		if item.Payload["template"] == "instant_link" {
			url, _ := item.Payload["instant_link_url"].(string)
			token = extractInstantLinkToken(url)
		}
	}
	if token == "" {
		t.Fatal("expected an instant link email to be queued with a token")
	}

	result, mfa, err := eng.CompleteInstantLink(ctx, token, dc)
	if err != nil {
		t.Fatalf("complete instant link: %v", err)
	}
	if mfa != nil {
		t.Fatal("expected no mfa challenge for an account without totp enrolled")
	}
	if result.User.ID != reg.User.ID {
		t.Fatal("instant link must resolve to the same user that registered")
	}
	if !result.User.EmailVerified {
		t.Fatal("completing an instant link must mark the email verified")
	}
}

func TestInstantLinkRequestForUnknownEmailSucceedsSilently(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	start := time.Now()
	if err := eng.RequestInstantLink(ctx, "nobody@example.com", dc); err != nil {
		t.Fatalf("expected no error for an unknown email: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Fatalf("expected the response to wait out the timing floor, took %v", elapsed)
	}
}

func TestInstantLinkTokenIsSingleUse(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	if _, err := eng.Register(ctx, authpipeline.RegisterRequest{Email: "carol@example.com", Password: "correct horse battery"}, dc); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := eng.RequestInstantLink(ctx, "carol@example.com", dc); err != nil {
		t.Fatalf("request instant link: %v", err)
	}
	items, _ := eng.Store.Outbox.Dequeue(ctx, time.Now().Add(time.Minute), 10)
	var token string
	for _, item := range items {
		if item.Payload["template"] == "instant_link" {
			url, _ := item.Payload["instant_link_url"].(string)
			token = extractInstantLinkToken(url)
		}
	}
	if token == "" {
		t.Fatal("expected a token to be queued")
	}

	if _, _, err := eng.CompleteInstantLink(ctx, token, dc); err != nil {
		t.Fatalf("first completion should succeed: %v", err)
	}
	if _, _, err := eng.CompleteInstantLink(ctx, token, dc); err == nil {
		t.Fatal("expected a reused instant link token to be rejected")
	}
}
