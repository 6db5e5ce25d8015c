package authpipeline_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cedros/core/internal/authpipeline"
)

func extractResetToken(url string) string {
	idx := strings.LastIndex(url, "token=")
	if idx < 0 {
		return ""
	}
	return url[idx+len("token="):]
}

func TestPasswordResetRequestAndComplete(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	if _, err := eng.Register(ctx, authpipeline.RegisterRequest{Email: "dave@example.com", Password: "correct horse battery"}, dc); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := eng.RequestPasswordReset(ctx, "Dave@Example.com"); err != nil {
		t.Fatalf("request password reset: %v", err)
	}

	items, err := eng.Store.Outbox.Dequeue(ctx, time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("dequeue outbox: %v", err)
	}
	var token string
	for _, item := range items {
		if item.Payload["template"] == "password_reset" {
			url, _ := item.Payload["reset_url"].(string)
			token = extractResetToken(url)
		}
	}
	if token == "" {
		t.Fatal("expected a password reset email to be queued with a token")
	}

	if err := eng.CompletePasswordReset(ctx, token, "a brand new password", dc); err != nil {
		t.Fatalf("complete password reset: %v", err)
	}

	if _, _, err := eng.Login(ctx, authpipeline.LoginRequest{Email: "dave@example.com", Password: "a brand new password"}, dc); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := eng.Login(ctx, authpipeline.LoginRequest{Email: "dave@example.com", Password: "correct horse battery"}, dc); err == nil {
		t.Fatal("expected the old password to be rejected after reset")
	}
}

func TestPasswordResetTokenIsSingleUse(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	if _, err := eng.Register(ctx, authpipeline.RegisterRequest{Email: "erin@example.com", Password: "correct horse battery"}, dc); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := eng.RequestPasswordReset(ctx, "erin@example.com"); err != nil {
		t.Fatalf("request password reset: %v", err)
	}
	items, _ := eng.Store.Outbox.Dequeue(ctx, time.Now().Add(time.Minute), 10)
	var token string
	for _, item := range items {
		if item.Payload["template"] == "password_reset" {
			url, _ := item.Payload["reset_url"].(string)
			token = extractResetToken(url)
		}
	}
	if token == "" {
		t.Fatal("expected a token to be queued")
	}

	if err := eng.CompletePasswordReset(ctx, token, "first new password", dc); err != nil {
		t.Fatalf("first completion should succeed: %v", err)
	}
	if err := eng.CompletePasswordReset(ctx, token, "second new password", dc); err == nil {
		t.Fatal("expected a reused reset token to be rejected")
	}
}

func TestPasswordResetForUnknownEmailSucceedsSilently(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()

	if err := eng.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("expected no error for an unknown email: %v", err)
	}
}

func TestEmailVerificationOnRegister(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	dc := authpipeline.DeviceContext{IPAddress: "1.2.3.4", UserAgent: "test"}

	if _, err := eng.Register(ctx, authpipeline.RegisterRequest{Email: "frank@example.com", Password: "correct horse battery"}, dc); err != nil {
		t.Fatalf("register: %v", err)
	}

	items, err := eng.Store.Outbox.Dequeue(ctx, time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("dequeue outbox: %v", err)
	}
	var token string
	for _, item := range items {
		if item.Payload["template"] == "email_verification" {
			url, _ := item.Payload["verification_url"].(string)
			token = extractResetToken(url)
		}
	}
	if token == "" {
		t.Fatal("expected a verification email to be queued on register")
	}

	if err := eng.CompleteEmailVerification(ctx, token); err != nil {
		t.Fatalf("complete email verification: %v", err)
	}
}
